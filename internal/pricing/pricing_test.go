package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSettings = Settings{
	DefaultBaseFee:    15,
	DefaultPricePerKm: 5,
	ExtraMerchantFee:  10,
}

func floatPtr(v float64) *float64 { return &v }

func TestDeliveryFeeWithMerchantOverride(t *testing.T) {
	override := &Override{BaseDeliveryFee: floatPtr(20), PricePerKm: floatPtr(4)}

	fee, err := DeliveryFee(3.5, override, testSettings)
	require.NoError(t, err)
	require.Equal(t, 34.0, fee) // ceil(20 + 3.5*4)
}

func TestDeliveryFeeDefaultsWhenOverrideIncomplete(t *testing.T) {
	// Only one of the two override fields set: fall back to defaults.
	override := &Override{BaseDeliveryFee: floatPtr(20)}

	fee, err := DeliveryFee(2, override, testSettings)
	require.NoError(t, err)
	require.Equal(t, 25.0, fee) // ceil(15 + 2*5)

	fee, err = DeliveryFee(2, nil, testSettings)
	require.NoError(t, err)
	require.Equal(t, 25.0, fee)
}

func TestDeliveryFeeAlwaysRoundsUp(t *testing.T) {
	fee, err := DeliveryFee(0.1, nil, testSettings)
	require.NoError(t, err)
	require.Equal(t, 16.0, fee) // ceil(15.5)
}

func TestDeliveryFeeRejectsBadInput(t *testing.T) {
	_, err := DeliveryFee(-1, nil, testSettings)
	require.ErrorIs(t, err, ErrInvalidAmount)

	bad := testSettings
	bad.DefaultBaseFee = -5
	_, err = DeliveryFee(1, nil, bad)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMultiVendorSurcharge(t *testing.T) {
	m1, m2, m3 := uuid.New(), uuid.New(), uuid.New()

	require.Equal(t, 20.0, MultiVendorSurcharge([]*uuid.UUID{&m1, &m2, &m3}, 10))
	require.Equal(t, 0.0, MultiVendorSurcharge([]*uuid.UUID{&m1, &m1}, 10))
	require.Equal(t, 0.0, MultiVendorSurcharge([]*uuid.UUID{nil, nil}, 10))
	require.Equal(t, 0.0, MultiVendorSurcharge(nil, 10))

	// Custom items do not add to the count of real vendors.
	require.Equal(t, 10.0, MultiVendorSurcharge([]*uuid.UUID{&m1, &m2, nil}, 10))
}

func TestOrderTotals(t *testing.T) {
	lines := []Line{
		{UnitPrice: 120, Quantity: 1},
		{UnitPrice: 45, Quantity: 2},
	}

	totals := OrderTotals(lines, 25, 10, 0)
	require.Equal(t, 210.0, totals.Subtotal)
	require.Equal(t, 245.0, totals.Total)
}

func TestOrderTotalsNeverNegative(t *testing.T) {
	lines := []Line{{UnitPrice: 10, Quantity: 1}}

	totals := OrderTotals(lines, 5, 0, 1000)
	require.Equal(t, 10.0, totals.Subtotal)
	require.Equal(t, 0.0, totals.Total)
}

func TestParseAmount(t *testing.T) {
	value, err := ParseAmount("55.5")
	require.NoError(t, err)
	require.Equal(t, 55.5, value)

	value, err = ParseAmount(" 42 ")
	require.NoError(t, err)
	require.Equal(t, 42.0, value)

	for _, raw := range []string{"", "  ", "abc", "-3", "NaN", "Inf", "1e999"} {
		_, err := ParseAmount(raw)
		require.ErrorIs(t, err, ErrInvalidAmount, "input %q", raw)
	}
}

func TestDistanceKm(t *testing.T) {
	// Downtown Cairo to Zamalek is roughly 0.7-0.8 km.
	d := DistanceKm(30.0444, 31.2357, 30.0500, 31.2400)
	require.InDelta(t, 0.75, d, 0.2)

	require.Equal(t, 0.0, DistanceKm(30.0444, 31.2357, 30.0444, 31.2357))
}

func TestZoneFee(t *testing.T) {
	zones := []Zone{
		{Lat: 30.0444, Lng: 31.2357, RadiusKm: 2, FixedPrice: 30},
		{Lat: 31.2001, Lng: 29.9187, RadiusKm: 5, FixedPrice: 50},
	}

	fee, ok := ZoneFee(30.0500, 31.2400, zones)
	require.True(t, ok)
	require.Equal(t, 30.0, fee)

	_, ok = ZoneFee(25.6872, 32.6396, zones)
	require.False(t, ok)

	// Zones with a non-positive radius never match.
	_, ok = ZoneFee(30.0444, 31.2357, []Zone{{Lat: 30.0444, Lng: 31.2357, RadiusKm: 0, FixedPrice: 10}})
	require.False(t, ok)
}

func TestPromotionDiscount(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	percent := Promotion{Type: "PERCENTAGE", Value: 10, IsActive: true}
	require.Equal(t, 20.0, PromotionDiscount(percent, 200, now))

	capped := Promotion{Type: "PERCENTAGE", Value: 50, MaxDiscount: 30, IsActive: true}
	require.Equal(t, 30.0, PromotionDiscount(capped, 200, now))

	fixed := Promotion{Type: "FIXED", Value: 25, IsActive: true}
	require.Equal(t, 25.0, PromotionDiscount(fixed, 200, now))

	// A fixed discount never exceeds the subtotal.
	require.Equal(t, 10.0, PromotionDiscount(fixed, 10, now))

	belowMin := Promotion{Type: "FIXED", Value: 25, MinOrder: 300, IsActive: true}
	require.Equal(t, 0.0, PromotionDiscount(belowMin, 200, now))

	inactive := Promotion{Type: "FIXED", Value: 25}
	require.Equal(t, 0.0, PromotionDiscount(inactive, 200, now))

	gone := Promotion{Type: "FIXED", Value: 25, IsActive: true, ExpiryDate: &expired}
	require.Equal(t, 0.0, PromotionDiscount(gone, 200, now))

	alive := Promotion{Type: "FIXED", Value: 25, IsActive: true, ExpiryDate: &future}
	require.Equal(t, 25.0, PromotionDiscount(alive, 200, now))
}
