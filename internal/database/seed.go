package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/config"
	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/utils"
)

// Seed ensures the singleton settings row exists and, on an empty database,
// loads the demo accounts and merchants the reference deployment ships with.
func Seed(conn *gorm.DB, cfg *config.Config) error {
	if err := seedSettings(conn, cfg); err != nil {
		return err
	}
	return seedDemoData(conn)
}

func seedSettings(conn *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := conn.Model(&models.GlobalSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings := models.GlobalSettings{
		DefaultBaseFee:    cfg.DefaultBaseFee,
		DefaultPricePerKm: cfg.DefaultPricePerKm,
		ExtraMerchantFee:  cfg.ExtraMerchantFee,
		VodafoneNumber:    "01000000000",
		InstapayHandle:    "town@eg",
	}
	return conn.Create(&settings).Error
}

func seedDemoData(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("123")
	if err != nil {
		return err
	}

	users := []models.User{
		{Name: "أحمد محمد", Phone: "01012345678", Email: "client@town.eg", PasswordHash: hash, Role: models.RoleCustomer, IsActive: true},
		{Name: "المدير العام", Phone: "01000000001", Email: "admin@town.eg", PasswordHash: hash, Role: models.RoleAdmin, IsActive: true},
		{Name: "كابتن محمود", Phone: "01234567890", Email: "courier@town.eg", PasswordHash: hash, Role: models.RoleCourier, IsActive: true, Rating: 4.9},
	}
	if err := conn.Create(&users).Error; err != nil {
		return err
	}

	merchants := []models.Merchant{
		{
			Name:         "Buffalo Burger",
			NameAr:       "بافلو برجر",
			Type:         models.MerchantTypeRestaurant,
			CategoryText: "برجر • وجبات سريعة",
			Rating:       4.8,
			MinOrder:     50,
			Lat:          30.0444,
			Lng:          31.2357,
			AddressText:  "وسط البلد، القاهرة",
			IsOpen:       true,
			Products: []models.Product{
				{Name: "Old School", NameAr: "اولد سكول", Description: "برجر مشوي على اللهب مع جبنة شيدر", Price: 120, Category: "Burgers", InStock: true},
				{Name: "Animal Style", NameAr: "انيمال ستايل", Description: "برجر مع صوص خاص وبصل مكرمل", Price: 140, Category: "Burgers", InStock: true},
			},
		},
		{
			Name:         "Seoudi Market",
			NameAr:       "سعودي ماركت",
			Type:         models.MerchantTypeGrocery,
			CategoryText: "سوبر ماركت • منتجات غذائية",
			Rating:       4.9,
			MinOrder:     100,
			Lat:          30.0500,
			Lng:          31.2400,
			AddressText:  "الزمالك، القاهرة",
			IsOpen:       true,
			Products: []models.Product{
				{Name: "Milk 1L", NameAr: "لبن 1 لتر", Description: "لبن كامل الدسم معقم", Price: 45, Category: "Dairy", InStock: true},
			},
		},
	}
	if err := conn.Create(&merchants).Error; err != nil {
		return err
	}

	logrus.WithField("merchants", len(merchants)).Info("seeded demo data")
	return nil
}
