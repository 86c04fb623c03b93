// Package pricing computes delivery fees, multi-vendor surcharges and order
// totals. All functions are pure; callers load settings and merchant
// overrides and pass them in.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidAmount marks numeric input that failed strict validation.
var ErrInvalidAmount = errors.New("invalid amount")

// Settings are the platform-wide pricing defaults.
type Settings struct {
	DefaultBaseFee    float64
	DefaultPricePerKm float64
	ExtraMerchantFee  float64
}

// Override is a merchant's optional fee schedule. It only takes effect when
// both fields are present.
type Override struct {
	BaseDeliveryFee *float64
	PricePerKm      *float64
}

// Totals is the result of summing an order's lines and charges.
type Totals struct {
	Subtotal float64
	Total    float64
}

// DeliveryFee computes the fee for a trip of distanceKm. The merchant's
// override is used when it carries both a base fee and a per-km rate,
// otherwise the global defaults apply. Rounding is always ceiling to the
// next whole currency unit.
func DeliveryFee(distanceKm float64, override *Override, s Settings) (float64, error) {
	if err := checkAmount(distanceKm); err != nil {
		return 0, fmt.Errorf("distance: %w", err)
	}

	base, perKm := s.DefaultBaseFee, s.DefaultPricePerKm
	if override != nil && override.BaseDeliveryFee != nil && override.PricePerKm != nil {
		base, perKm = *override.BaseDeliveryFee, *override.PricePerKm
	}

	if err := checkAmount(base); err != nil {
		return 0, fmt.Errorf("base fee: %w", err)
	}
	if err := checkAmount(perKm); err != nil {
		return 0, fmt.Errorf("price per km: %w", err)
	}

	return math.Ceil(base + distanceKm*perKm), nil
}

// MultiVendorSurcharge charges for every real merchant beyond the first one
// in the cart. Custom items (nil merchant) count as a single logical vendor
// and never contribute.
func MultiVendorSurcharge(merchantIDs []*uuid.UUID, extraMerchantFee float64) float64 {
	distinct := make(map[uuid.UUID]struct{})
	for _, id := range merchantIDs {
		if id == nil {
			continue
		}
		distinct[*id] = struct{}{}
	}

	if len(distinct) <= 1 {
		return 0
	}
	return float64(len(distinct)-1) * extraMerchantFee
}

// Line is the subset of an order item the totals calculation needs.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// OrderTotals sums the lines exactly and applies charges and discount. The
// total never goes negative, however large the discount.
func OrderTotals(lines []Line, deliveryFee, surcharge, discount float64) Totals {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}

	total := subtotal + deliveryFee + surcharge - discount
	if total < 0 {
		total = 0
	}

	return Totals{Subtotal: subtotal, Total: total}
}

// ParseAmount parses a free-text form field into a non-negative finite
// number. Anything else is rejected rather than silently coerced.
func ParseAmount(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if err := checkAmount(value); err != nil {
		return 0, err
	}
	return value, nil
}

func checkAmount(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: not finite", ErrInvalidAmount)
	}
	if value < 0 {
		return fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	return nil
}
