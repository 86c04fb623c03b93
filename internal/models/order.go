package models

import (
	"time"

	"github.com/google/uuid"
)

// Order kinds.
const (
	OrderKindMerchant = "MERCHANT"
	OrderKindCustom   = "CUSTOM"
)

// Payment methods.
const (
	PaymentCOD          = "COD"
	PaymentInstapay     = "INSTAPAY"
	PaymentVodafoneCash = "VODAFONE_CASH"
)

// Order is the central entity: a customer's request for a delivery.
type Order struct {
	BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User        *User      `json:"user,omitempty"`
	OrderNumber int        `gorm:"uniqueIndex" json:"order_number"`
	Status      string     `gorm:"index" json:"status"`
	Kind        string     `json:"kind"`
	CourierID   *uuid.UUID `gorm:"type:uuid;index" json:"courier_id"`
	Courier     *User      `gorm:"foreignKey:CourierID" json:"courier,omitempty"`
	PlacedAt    time.Time  `json:"placed_at"`

	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Surcharge   float64 `json:"surcharge"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
	DistanceKm  float64 `json:"distance_km"`
	PromoCode   string  `json:"promo_code"`

	PaymentMethod string `json:"payment_method"`

	DeliveryStreet string  `json:"delivery_street"`
	DeliveryArea   string  `json:"delivery_area"`
	DeliveryLat    float64 `json:"delivery_lat"`
	DeliveryLng    float64 `json:"delivery_lng"`
	AlternatePhone string  `json:"alternate_phone"`

	CancellationReason string `json:"cancellation_reason"`

	IsReviewed     bool    `json:"is_reviewed"`
	CourierRating  float64 `json:"courier_rating"`
	MerchantRating float64 `json:"merchant_rating"`
	ReviewComment  string  `json:"review_comment"`

	Items         []OrderItem        `json:"items,omitempty"`
	StatusHistory []OrderStatusEvent `json:"status_history,omitempty"`
	Messages      []OrderMessage     `json:"messages,omitempty"`
}

// OrderItem is a single line of an order. A nil MerchantID marks an ad-hoc
// custom item outside any merchant catalog.
type OrderItem struct {
	BaseModel
	OrderID       uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID     *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName   string     `json:"product_name"`
	Quantity      int        `json:"quantity"`
	UnitPrice     float64    `json:"unit_price"`
	LineTotal     float64    `json:"line_total"`
	MerchantID    *uuid.UUID `gorm:"type:uuid" json:"merchant_id"`
	MerchantName  string     `json:"merchant_name"`
	CustomDetails string     `json:"custom_details"`
}

// OrderStatusEvent is one entry of an order's append-only status history.
type OrderStatusEvent struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Status     string    `json:"status"`
	Note       string    `json:"note"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OrderMessage is a chat message between the customer and the courier.
type OrderMessage struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	SenderID   uuid.UUID `gorm:"type:uuid" json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Role       string    `json:"role"`
	Text       string    `json:"text"`
}
