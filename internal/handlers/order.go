package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/lifecycle"
	"github.com/example/towndelivery/internal/middleware"
	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/pricing"
	"github.com/example/towndelivery/internal/services"
	"github.com/example/towndelivery/internal/store"
	"github.com/example/towndelivery/internal/utils"
)

// OrderHandler manages order placement and the delivery lifecycle.
type OrderHandler struct {
	db       *gorm.DB
	orders   *store.OrderStore
	settings *store.SettingsStore
	notifier *services.Notifier
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *store.OrderStore, settings *store.SettingsStore, notifier *services.Notifier) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, settings: settings, notifier: notifier}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type customItemRequest struct {
	StoreName string   `json:"store_name"`
	Address   string   `json:"address"`
	Items     []string `json:"items"`
}

type createOrderRequest struct {
	Items          []orderItemRequest  `json:"items"`
	CustomItems    []customItemRequest `json:"custom_items"`
	Street         string              `json:"street"`
	Area           string              `json:"area"`
	Lat            float64             `json:"lat"`
	Lng            float64             `json:"lng"`
	AlternatePhone string              `json:"alternate_phone"`
	PaymentMethod  string              `json:"payment_method"`
	PromoCode      string              `json:"promo_code"`
}

// CreateOrder places an order from catalog items and/or ad-hoc custom
// requests. Prices come from the catalog, never from the client; custom
// items start at 0 pending staff repricing.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 && len(req.CustomItems) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	ctx := c.Context()
	settings, err := h.settings.Pricing(ctx)
	if err != nil {
		return err
	}

	var (
		items           []models.OrderItem
		merchantIDs     []*uuid.UUID
		primaryMerchant *models.Merchant
	)

	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		if line.Quantity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be >= 1")
		}

		var product models.Product
		if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "product not found")
			}
			return err
		}
		if !product.InStock {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("product %s is out of stock", product.Name))
		}

		var merchant models.Merchant
		if err := h.db.First(&merchant, "id = ?", product.MerchantID).Error; err != nil {
			return err
		}
		if !merchant.IsOpen {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("merchant %s is closed", merchant.Name))
		}
		if primaryMerchant == nil {
			m := merchant
			primaryMerchant = &m
		}

		merchantID := merchant.ID
		merchantIDs = append(merchantIDs, &merchantID)
		items = append(items, models.OrderItem{
			ProductID:    &product.ID,
			ProductName:  product.NameAr,
			Quantity:     line.Quantity,
			UnitPrice:    product.Price,
			MerchantID:   &merchantID,
			MerchantName: merchant.NameAr,
		})
	}

	for _, custom := range req.CustomItems {
		if strings.TrimSpace(custom.StoreName) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "custom item store name required")
		}

		wanted := make([]string, 0, len(custom.Items))
		for _, it := range custom.Items {
			if strings.TrimSpace(it) != "" {
				wanted = append(wanted, it)
			}
		}
		if len(wanted) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "custom item list required")
		}

		merchantIDs = append(merchantIDs, nil)
		items = append(items, models.OrderItem{
			ProductName:   fmt.Sprintf("طلب خاص من %s", custom.StoreName),
			Quantity:      1,
			UnitPrice:     0,
			MerchantName:  custom.StoreName,
			CustomDetails: fmt.Sprintf("الموقع: %s\nالمنتجات:\n%s", custom.Address, strings.Join(wanted, "\n")),
		})
	}

	kind := models.OrderKindMerchant
	if len(req.CustomItems) > 0 {
		kind = models.OrderKindCustom
	}

	distanceKm := pricing.DefaultDistanceKm
	var override *pricing.Override
	if primaryMerchant != nil {
		if req.Lat != 0 || req.Lng != 0 {
			distanceKm = pricing.DistanceKm(primaryMerchant.Lat, primaryMerchant.Lng, req.Lat, req.Lng)
		}
		override = &pricing.Override{
			BaseDeliveryFee: primaryMerchant.BaseDeliveryFee,
			PricePerKm:      primaryMerchant.PricePerKm,
		}
	}

	zones, err := h.settings.Zones(ctx)
	if err != nil {
		return err
	}

	deliveryFee, inZone := pricing.ZoneFee(req.Lat, req.Lng, zones)
	if !inZone {
		deliveryFee, err = pricing.DeliveryFee(distanceKm, override, settings)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	surcharge := pricing.MultiVendorSurcharge(merchantIDs, settings.ExtraMerchantFee)

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	subtotal := pricing.OrderTotals(lines, 0, 0, 0).Subtotal

	var discount float64
	var promoCode string
	if req.PromoCode != "" {
		var promo models.Promotion
		if err := h.db.First(&promo, "code = ?", req.PromoCode).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusBadRequest, "unknown promo code")
			}
			return err
		}
		discount = pricing.PromotionDiscount(pricing.Promotion{
			Type:        promo.Type,
			Value:       promo.Value,
			MinOrder:    promo.MinOrder,
			MaxDiscount: promo.MaxDiscount,
			ExpiryDate:  promo.ExpiryDate,
			IsActive:    promo.IsActive,
		}, subtotal, time.Now())
		if discount == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "promo code not applicable")
		}
		promoCode = promo.Code
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentCOD
	}

	order := models.Order{
		UserID:         userID,
		Kind:           kind,
		Items:          items,
		DeliveryFee:    deliveryFee,
		Surcharge:      surcharge,
		Discount:       discount,
		DistanceKm:     distanceKm,
		PromoCode:      promoCode,
		PaymentMethod:  paymentMethod,
		DeliveryStreet: req.Street,
		DeliveryArea:   req.Area,
		DeliveryLat:    req.Lat,
		DeliveryLng:    req.Lng,
		AlternatePhone: req.AlternatePhone,
	}

	if err := h.orders.Create(ctx, &order); err != nil {
		return httpError(err)
	}

	var customer models.User
	if err := h.db.First(&customer, "id = ?", userID).Error; err == nil {
		h.notifier.OrderPlaced(&order, &customer)
	} else {
		h.notifier.OrderPlaced(&order, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"kind":         order.Kind,
			"subtotal":     order.Subtotal,
			"delivery_fee": order.DeliveryFee,
			"surcharge":    order.Surcharge,
			"discount":     order.Discount,
			"total":        order.Total,
			"placed_at":    order.PlacedAt,
		},
	})
}

// ListOrders returns orders for the authenticated user, scoped by role:
// customers see their own, couriers see their assigned, admins see all.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	pg := utils.ParsePagination(c)
	status := c.Query("status")
	ctx := c.Context()

	var (
		orders []models.Order
		total  int64
		err    error
	)

	switch role {
	case models.RoleAdmin:
		orders, total, err = h.orders.ListAll(ctx, status, pg.Limit, pg.Offset)
	case models.RoleCourier:
		activeOnly := c.Query("active", "true") == "true"
		orders, total, err = h.orders.ListByCourier(ctx, userID, activeOnly, pg.Limit, pg.Offset)
	default:
		orders, total, err = h.orders.ListByUser(ctx, userID, status, pg.Limit, pg.Offset)
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListAvailableOrders returns unclaimed NEW orders for couriers.
func (h *OrderHandler) ListAvailableOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	orders, total, err := h.orders.ListAvailable(c.Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order with items, history and chat. Customers
// only see their own; couriers only their assigned.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.loadVisibleOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ClaimOrder lets a courier take an unclaimed NEW order.
func (h *OrderHandler) ClaimOrder(c *fiber.Ctx) error {
	courierID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.Claim(c.Context(), orderID, courierID)
	if err != nil {
		return httpError(err)
	}

	var courier models.User
	if err := h.db.First(&courier, "id = ?", courierID).Error; err == nil {
		h.notifier.OrderClaimed(order, &courier)
	} else {
		h.notifier.OrderClaimed(order, nil)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// AdvanceOrder moves an order one step along the delivery pipeline.
func (h *OrderHandler) AdvanceOrder(c *fiber.Ctx) error {
	courierID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.Advance(c.Context(), orderID, courierID)
	if err != nil {
		return httpError(err)
	}

	h.notifier.OrderStatusChanged(order)

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels an order. Customers may cancel their own orders while
// still NEW; couriers their assigned orders; admins any order.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.Context()
	current, err := h.orders.Get(ctx, orderID)
	if err != nil {
		return httpError(err)
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleCourier:
		if current.CourierID == nil || *current.CourierID != userID {
			return fiber.NewError(fiber.StatusForbidden, "order is not assigned to you")
		}
	default:
		if current.UserID != userID {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		if current.Status != lifecycle.StatusNew {
			return fiber.NewError(fiber.StatusConflict, "order can no longer be cancelled")
		}
	}

	order, err := h.orders.Cancel(ctx, orderID, req.Reason)
	if err != nil {
		return httpError(err)
	}

	h.notifier.OrderCancelled(order)

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type repriceRequest struct {
	Prices map[string]string `json:"prices"`
}

// RepriceOrder assigns unit prices to order items, typically to put real
// prices on a custom order. Courier (own orders) and admin only.
func (h *OrderHandler) RepriceOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req repriceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Prices) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no prices supplied")
	}

	ctx := c.Context()
	if role == models.RoleCourier {
		current, err := h.orders.Get(ctx, orderID)
		if err != nil {
			return httpError(err)
		}
		if current.CourierID == nil || *current.CourierID != userID {
			return fiber.NewError(fiber.StatusForbidden, "order is not assigned to you")
		}
	}

	prices := make(map[uuid.UUID]string, len(req.Prices))
	for rawID, rawPrice := range req.Prices {
		itemID, err := uuid.Parse(rawID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
		}
		prices[itemID] = rawPrice
	}

	order, err := h.orders.Reprice(ctx, orderID, prices)
	if err != nil {
		return httpError(err)
	}

	h.notifier.OrderRepriced(order)

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type reviewRequest struct {
	CourierRating  float64 `json:"courier_rating"`
	MerchantRating float64 `json:"merchant_rating"`
	Comment        string  `json:"comment"`
}

// ReviewOrder records the customer's ratings on a delivered order.
func (h *OrderHandler) ReviewOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.orders.SubmitReview(c.Context(), orderID, userID, req.CourierRating, req.MerchantRating, req.Comment); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "review recorded"})
}

type messageRequest struct {
	Text string `json:"text"`
}

// PostMessage appends a chat message to an order the caller participates in.
func (h *OrderHandler) PostMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	order, err := h.loadVisibleOrder(c)
	if err != nil {
		return err
	}

	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var sender models.User
	senderName := ""
	if err := h.db.First(&sender, "id = ?", userID).Error; err == nil {
		senderName = sender.Name
	}

	msg := models.OrderMessage{
		OrderID:    order.ID,
		SenderID:   userID,
		SenderName: senderName,
		Role:       role,
		Text:       req.Text,
	}
	if err := h.orders.AppendMessage(c.Context(), &msg); err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
}

// loadVisibleOrder parses the id param and enforces per-role visibility.
func (h *OrderHandler) loadVisibleOrder(c *fiber.Ctx) (*models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.orders.Get(c.Context(), orderID)
	if err != nil {
		return nil, httpError(err)
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleCourier:
		// Couriers see unclaimed orders and their own assignments.
		if order.CourierID != nil && *order.CourierID != userID {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
	default:
		if order.UserID != userID {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
	}

	return order, nil
}
