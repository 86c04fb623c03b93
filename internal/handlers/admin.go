package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/lifecycle"
	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/store"
	"github.com/example/towndelivery/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db       *gorm.DB
	settings *store.SettingsStore
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, settings *store.SettingsStore) *AdminHandler {
	return &AdminHandler{db: db, settings: settings}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalMerchants int64
	if err := h.db.Model(&models.Merchant{}).Count(&totalMerchants).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	// Sales only count delivered orders.
	var totalSales float64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", lifecycle.StatusDelivered).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalSales).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_sales":      totalSales,
			"total_orders":     totalOrders,
			"total_users":      totalUsers,
			"total_merchants":  totalMerchants,
			"orders_by_status": ordersByStatus,
		},
	})
}

// GetSettings returns the platform pricing defaults.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateSettings overwrites the platform pricing defaults.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var payload models.GlobalSettings
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	settings, err := h.settings.Update(c.Context(), payload)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// ListUsers returns paginated users with optional role filter.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetUserActive enables or disables an account.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res := h.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", req.IsActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "user updated"})
}

// Promotions

// ListPromotions returns all promotions.
func (h *AdminHandler) ListPromotions(c *fiber.Ctx) error {
	var promotions []models.Promotion
	if err := h.db.Order("created_at desc").Find(&promotions).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": promotions})
}

// CreatePromotion persists a new promotion code.
func (h *AdminHandler) CreatePromotion(c *fiber.Ctx) error {
	var payload models.Promotion
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "promotion code required")
	}
	if payload.Type != models.PromotionPercentage && payload.Type != models.PromotionFixed {
		return fiber.NewError(fiber.StatusBadRequest, "promotion type must be PERCENTAGE or FIXED")
	}
	if payload.Value <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "promotion value must be > 0")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdatePromotion updates an existing promotion.
func (h *AdminHandler) UpdatePromotion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var promotion models.Promotion
	if err := h.db.First(&promotion, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "promotion not found")
		}
		return err
	}

	var payload models.Promotion
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = promotion.ID
	if err := h.db.Model(&promotion).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promotion})
}

// DeletePromotion removes a promotion.
func (h *AdminHandler) DeletePromotion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Promotion{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Delivery zones

// ListZones returns all configured delivery zones.
func (h *AdminHandler) ListZones(c *fiber.Ctx) error {
	var zones []models.DeliveryZone
	if err := h.db.Order("created_at desc").Find(&zones).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": zones})
}

// CreateZone persists a new delivery zone.
func (h *AdminHandler) CreateZone(c *fiber.Ctx) error {
	var payload models.DeliveryZone
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.RadiusKm <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "radius must be > 0")
	}
	if payload.FixedPrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "fixed price must be >= 0")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// DeleteZone removes a delivery zone.
func (h *AdminHandler) DeleteZone(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.DeliveryZone{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
