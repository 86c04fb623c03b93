package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/utils"
)

// MerchantHandler manages merchant and product catalog endpoints.
type MerchantHandler struct {
	db *gorm.DB
}

// NewMerchantHandler constructs MerchantHandler.
func NewMerchantHandler(db *gorm.DB) *MerchantHandler {
	return &MerchantHandler{db: db}
}

// ListMerchants returns paginated merchants with optional filters.
func (h *MerchantHandler) ListMerchants(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Merchant{})

	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	if search := c.Query("search"); search != "" {
		q := "%" + search + "%"
		query = query.Where("name LIKE ? OR name_ar LIKE ?", q, q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var merchants []models.Merchant
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("rating desc").
		Find(&merchants).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    merchants,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetMerchant returns a single merchant with its products.
func (h *MerchantHandler) GetMerchant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var merchant models.Merchant
	if err := h.db.Preload("Products").First(&merchant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "merchant not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": merchant})
}

// CreateMerchant persists a new merchant. Admin only.
func (h *MerchantHandler) CreateMerchant(c *fiber.Ctx) error {
	var payload models.Merchant
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Name == "" && payload.NameAr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "merchant name required")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateMerchant updates an existing merchant, including its pricing override.
func (h *MerchantHandler) UpdateMerchant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var merchant models.Merchant
	if err := h.db.First(&merchant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "merchant not found")
		}
		return err
	}

	var payload models.Merchant
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = merchant.ID
	if err := h.db.Model(&merchant).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": merchant})
}

// DeleteMerchant removes a merchant and its catalog. Admin only.
func (h *MerchantHandler) DeleteMerchant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Product{}, "merchant_id = ?", id).Error; err != nil {
		return err
	}
	if err := h.db.Delete(&models.Merchant{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListProducts returns a merchant's products.
func (h *MerchantHandler) ListProducts(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	query := h.db.Where("merchant_id = ?", merchantID)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("in_stock") == "true" {
		query = query.Where("in_stock", true)
	}

	var products []models.Product
	if err := query.Order("created_at desc").Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": products})
}

// CreateProduct adds a product to a merchant's catalog. Admin only.
func (h *MerchantHandler) CreateProduct(c *fiber.Ctx) error {
	merchantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var merchant models.Merchant
	if err := h.db.First(&merchant, "id = ?", merchantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "merchant not found")
		}
		return err
	}

	var payload models.Product
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be >= 0")
	}

	payload.MerchantID = merchantID
	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateProduct updates a catalog product. Admin only.
func (h *MerchantHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var payload models.Product
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be >= 0")
	}

	payload.ID = product.ID
	payload.MerchantID = product.MerchantID
	if err := h.db.Model(&product).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a catalog product. Admin only.
func (h *MerchantHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
