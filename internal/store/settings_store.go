package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/pricing"
)

// SettingsStore reads and updates the singleton GlobalSettings row and the
// configured delivery zones.
type SettingsStore struct {
	db *gorm.DB
}

// NewSettingsStore constructs a SettingsStore.
func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the settings row, or built-in defaults when none was seeded.
func (s *SettingsStore) Get(ctx context.Context) (models.GlobalSettings, error) {
	var settings models.GlobalSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return models.GlobalSettings{
			DefaultBaseFee:    15,
			DefaultPricePerKm: 5,
			ExtraMerchantFee:  10,
		}, nil
	}
	if err != nil {
		return models.GlobalSettings{}, err
	}
	return settings, nil
}

// Update overwrites the pricing defaults on the settings row.
func (s *SettingsStore) Update(ctx context.Context, updated models.GlobalSettings) (models.GlobalSettings, error) {
	if updated.DefaultBaseFee < 0 || updated.DefaultPricePerKm < 0 || updated.ExtraMerchantFee < 0 {
		return models.GlobalSettings{}, fmt.Errorf("%w: fees must be >= 0", ErrValidation)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return models.GlobalSettings{}, err
	}

	if current.ID == uuid.Nil {
		// No row yet: persist one.
		settings := updated
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return models.GlobalSettings{}, err
		}
		return settings, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.GlobalSettings{}).
		Where("id = ?", current.ID).
		Updates(map[string]interface{}{
			"default_base_fee":     updated.DefaultBaseFee,
			"default_price_per_km": updated.DefaultPricePerKm,
			"extra_merchant_fee":   updated.ExtraMerchantFee,
			"vodafone_number":      updated.VodafoneNumber,
			"instapay_handle":      updated.InstapayHandle,
		}).Error; err != nil {
		return models.GlobalSettings{}, err
	}

	return s.Get(ctx)
}

// Pricing converts the stored settings into the pricing engine's input.
func (s *SettingsStore) Pricing(ctx context.Context) (pricing.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return pricing.Settings{}, err
	}
	return pricing.Settings{
		DefaultBaseFee:    settings.DefaultBaseFee,
		DefaultPricePerKm: settings.DefaultPricePerKm,
		ExtraMerchantFee:  settings.ExtraMerchantFee,
	}, nil
}

// Zones returns the configured delivery zones as pricing inputs.
func (s *SettingsStore) Zones(ctx context.Context) ([]pricing.Zone, error) {
	var rows []models.DeliveryZone
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	zones := make([]pricing.Zone, len(rows))
	for i, row := range rows {
		zones[i] = pricing.Zone{
			Lat:        row.Lat,
			Lng:        row.Lng,
			RadiusKm:   row.RadiusKm,
			FixedPrice: row.FixedPrice,
		}
	}
	return zones, nil
}
