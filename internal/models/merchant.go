package models

import "github.com/google/uuid"

// Merchant types.
const (
	MerchantTypeRestaurant = "RESTAURANT"
	MerchantTypeGrocery    = "GROCERY"
)

// Merchant is a catalog-owning seller (restaurant or grocery).
type Merchant struct {
	BaseModel
	Name         string    `json:"name"`
	NameAr       string    `json:"name_ar"`
	Type         string    `gorm:"index" json:"type"`
	CategoryText string    `json:"category_text"`
	Image        string    `json:"image"`
	Rating       float64   `json:"rating"`
	MinOrder     float64   `json:"min_order"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	AddressText  string    `json:"address_text"`
	IsOpen       bool      `json:"is_open"`
	OpeningTime  string    `json:"opening_time"`
	ClosingTime  string    `json:"closing_time"`
	Products     []Product `json:"products,omitempty"`

	// Pricing overrides. Both must be set to supersede the global defaults.
	BaseDeliveryFee *float64 `json:"base_delivery_fee"`
	PricePerKm      *float64 `json:"price_per_km"`
}

// Product belongs to exactly one merchant's catalog.
type Product struct {
	BaseModel
	MerchantID  uuid.UUID `gorm:"type:uuid;index" json:"merchant_id"`
	Name        string    `json:"name"`
	NameAr      string    `json:"name_ar"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	InStock     bool      `json:"in_stock"`
}
