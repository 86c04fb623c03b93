package models

import (
	"time"

	"github.com/google/uuid"
)

// Promotion types.
const (
	PromotionPercentage = "PERCENTAGE"
	PromotionFixed      = "FIXED"
)

// Notification categories.
const (
	NotificationOrder  = "ORDER"
	NotificationSystem = "SYSTEM"
	NotificationPromo  = "PROMO"
)

// Promotion is a discount code applied at checkout.
type Promotion struct {
	BaseModel
	Code        string     `gorm:"uniqueIndex" json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	MinOrder    float64    `json:"min_order"`
	MaxDiscount float64    `json:"max_discount"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	IsActive    bool       `json:"is_active"`
}

// Notification is a user-facing message about order or system activity.
type Notification struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Message  string    `json:"message"`
	Category string    `json:"category"`
	IsRead   bool      `json:"is_read"`
}

// DeliveryZone is a circular area with a fixed delivery price that
// supersedes the per-km formula for addresses inside it.
type DeliveryZone struct {
	BaseModel
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	RadiusKm   float64 `json:"radius_km"`
	FixedPrice float64 `json:"fixed_price"`
}

// GlobalSettings is the singleton row of platform-wide pricing defaults.
type GlobalSettings struct {
	BaseModel
	DefaultBaseFee    float64 `json:"default_base_fee"`
	DefaultPricePerKm float64 `json:"default_price_per_km"`
	ExtraMerchantFee  float64 `json:"extra_merchant_fee"`
	VodafoneNumber    string  `json:"vodafone_number"`
	InstapayHandle    string  `json:"instapay_handle"`
}
