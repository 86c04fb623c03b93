package models

import "github.com/google/uuid"

// User roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
	RoleCourier  = "COURIER"
)

// User represents a customer, courier or admin account.
type User struct {
	BaseModel
	Name           string        `json:"name"`
	Phone          string        `gorm:"uniqueIndex" json:"phone"`
	AlternatePhone string        `json:"alternate_phone"`
	Email          string        `json:"email"`
	PasswordHash   string        `json:"-"`
	Role           string        `gorm:"index" json:"role"`
	IsActive       bool          `json:"is_active"`
	Rating         float64       `json:"rating"`
	Lat            *float64      `json:"lat"`
	Lng            *float64      `json:"lng"`
	Addresses      []UserAddress `json:"addresses,omitempty"`
	Orders         []Order       `json:"orders,omitempty"`
}

// UserAddress is a saved delivery address.
type UserAddress struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label     string    `json:"label"`
	Street    string    `json:"street"`
	Building  string    `json:"building"`
	Floor     string    `json:"floor"`
	Apartment string    `json:"apartment"`
	Area      string    `json:"area"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
}
