package pricing

import "time"

// Promotion is a discount code's terms.
type Promotion struct {
	Type        string // PERCENTAGE or FIXED
	Value       float64
	MinOrder    float64
	MaxDiscount float64
	ExpiryDate  *time.Time
	IsActive    bool
}

// PromotionDiscount computes the discount a promotion grants on a subtotal.
// Inactive, expired or below-minimum promotions grant nothing. The discount
// never exceeds the subtotal or the promotion's cap.
func PromotionDiscount(p Promotion, subtotal float64, now time.Time) float64 {
	if !p.IsActive {
		return 0
	}
	if p.ExpiryDate != nil && now.After(*p.ExpiryDate) {
		return 0
	}
	if subtotal < p.MinOrder {
		return 0
	}

	var discount float64
	switch p.Type {
	case "PERCENTAGE":
		discount = subtotal * p.Value / 100
	case "FIXED":
		discount = p.Value
	default:
		return 0
	}

	if p.MaxDiscount > 0 && discount > p.MaxDiscount {
		discount = p.MaxDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
