// Package store is the repository layer that owns the order collection.
// Every mutation is scoped to a single order id and runs inside a
// transaction, so rejected operations never partially apply. Status changes
// are conditional updates keyed on the previous status, which keeps
// concurrent couriers from claiming or advancing the same order twice.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/lifecycle"
	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/pricing"
)

// firstOrderNumber is where human-facing order numbers start.
const firstOrderNumber = 101

// createRetries bounds how often Create retries after losing an order-number
// allocation race.
const createRetries = 3

// OrderStore owns all Order mutations.
type OrderStore struct {
	db *gorm.DB
}

// NewOrderStore constructs an OrderStore.
func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Create persists a new order in status NEW with its opening history entry.
// The order must carry at least one item; subtotal and total are recomputed
// from the items regardless of what the caller filled in.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	for i := range order.Items {
		if order.Items[i].Quantity < 1 {
			return fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
		if order.Items[i].UnitPrice < 0 {
			return fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
		}
		order.Items[i].LineTotal = order.Items[i].UnitPrice * float64(order.Items[i].Quantity)
	}

	lines := make([]pricing.Line, len(order.Items))
	for i, item := range order.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	totals := pricing.OrderTotals(lines, order.DeliveryFee, order.Surcharge, order.Discount)
	order.Subtotal = totals.Subtotal
	order.Total = totals.Total

	order.Status = lifecycle.StatusNew
	if order.PlacedAt.IsZero() {
		order.PlacedAt = time.Now()
	}

	// Two concurrent creates can compute the same MAX(order_number)+1; the
	// unique index catches the loser, which retries with a fresh number.
	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxNumber int
			if err := tx.Model(&models.Order{}).
				Select("COALESCE(MAX(order_number), ?)", firstOrderNumber-1).
				Scan(&maxNumber).Error; err != nil {
				return err
			}
			order.OrderNumber = maxNumber + 1

			if err := tx.Create(order).Error; err != nil {
				return err
			}

			event := models.OrderStatusEvent{
				OrderID:    order.ID,
				Status:     lifecycle.StatusNew,
				Note:       "تم استلام طلبك وجاري البحث عن كابتن",
				RecordedAt: order.PlacedAt,
			}
			return tx.Create(&event).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

// Claim atomically assigns an unclaimed NEW order to a courier and moves it
// to CONFIRMED. A second courier racing for the same order loses: the
// conditional update matches zero rows and the claim is rejected without
// touching the first courier's assignment.
func (s *OrderStore) Claim(ctx context.Context, orderID, courierID uuid.UUID) (*models.Order, error) {
	var claimed *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND courier_id IS NULL", orderID, lifecycle.StatusNew).
			Updates(map[string]interface{}{
				"courier_id": courierID,
				"status":     lifecycle.StatusConfirmed,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var order models.Order
			if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
				}
				return err
			}
			return fmt.Errorf("%w: order %d is already claimed", ErrInvalidTransition, order.OrderNumber)
		}

		if err := s.appendEvent(tx, orderID, lifecycle.StatusConfirmed, "تم قبول الطلب بواسطة الكابتن"); err != nil {
			return err
		}

		var full models.Order
		if err := tx.Preload("Items").First(&full, "id = ?", orderID).Error; err != nil {
			return err
		}
		claimed = &full
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order":   claimed.OrderNumber,
		"courier": courierID,
	}).Info("order claimed")
	return claimed, nil
}

// Advance moves the order one step along the delivery pipeline. Only the
// assigned courier may advance; terminal orders are rejected. The update is
// conditional on the status the courier saw, so two racing advances apply
// exactly once.
func (s *OrderStore) Advance(ctx context.Context, orderID, courierID uuid.UUID) (*models.Order, error) {
	var advanced *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
			}
			return err
		}

		if order.CourierID == nil || *order.CourierID != courierID {
			return fmt.Errorf("%w: order %d is not assigned to this courier", ErrInvalidTransition, order.OrderNumber)
		}

		next, ok := lifecycle.Next(order.Status)
		if !ok {
			return fmt.Errorf("%w: order %d cannot advance from %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, order.OrderNumber)
		}

		note := fmt.Sprintf("تحديث حالة بواسطة الكابتن: %s", lifecycle.Label(next))
		if err := s.appendEvent(tx, orderID, next, note); err != nil {
			return err
		}

		var full models.Order
		if err := tx.Preload("Items").First(&full, "id = ?", orderID).Error; err != nil {
			return err
		}
		advanced = &full
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advanced, nil
}

// Cancel moves an order to CANCELLED and records the reason. Legal from any
// non-terminal status.
func (s *OrderStore) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	var cancelled *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
			}
			return err
		}

		if !lifecycle.CanCancel(order.Status) {
			return fmt.Errorf("%w: order %d cannot be cancelled from %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{
				"status":              lifecycle.StatusCancelled,
				"cancellation_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, order.OrderNumber)
		}

		note := "تم إلغاء الطلب"
		if reason != "" {
			note = fmt.Sprintf("تم إلغاء الطلب: %s", reason)
		}
		if err := s.appendEvent(tx, orderID, lifecycle.StatusCancelled, note); err != nil {
			return err
		}

		var full models.Order
		if err := tx.Preload("Items").First(&full, "id = ?", orderID).Error; err != nil {
			return err
		}
		cancelled = &full
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Reprice assigns new unit prices to the order's items from a partial map
// keyed by item id, then recomputes line totals, subtotal and total. Values
// are free-text form input and validated strictly: one malformed or negative
// price rejects the whole operation and nothing changes. Items absent from
// the map keep their price. Status and history are untouched.
func (s *OrderStore) Reprice(ctx context.Context, orderID uuid.UUID, prices map[uuid.UUID]string) (*models.Order, error) {
	parsed := make(map[uuid.UUID]float64, len(prices))
	for itemID, raw := range prices {
		value, err := pricing.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s: price %q", ErrValidation, itemID, raw)
		}
		parsed[itemID] = value
	}

	var repriced *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
			}
			return err
		}

		known := make(map[uuid.UUID]bool, len(order.Items))
		for _, item := range order.Items {
			known[item.ID] = true
		}
		for itemID := range parsed {
			if !known[itemID] {
				return fmt.Errorf("%w: item %s is not part of order %d", ErrNotFound, itemID, order.OrderNumber)
			}
		}

		lines := make([]pricing.Line, len(order.Items))
		for i := range order.Items {
			item := &order.Items[i]
			if value, ok := parsed[item.ID]; ok {
				item.UnitPrice = value
			}
			item.LineTotal = item.UnitPrice * float64(item.Quantity)
			lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}

			if err := tx.Model(&models.OrderItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]interface{}{
					"unit_price": item.UnitPrice,
					"line_total": item.LineTotal,
				}).Error; err != nil {
				return err
			}
		}

		totals := pricing.OrderTotals(lines, order.DeliveryFee, order.Surcharge, order.Discount)
		if err := tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"subtotal": totals.Subtotal,
				"total":    totals.Total,
			}).Error; err != nil {
			return err
		}

		var full models.Order
		if err := tx.Preload("Items").First(&full, "id = ?", orderID).Error; err != nil {
			return err
		}
		repriced = &full
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repriced, nil
}

// SubmitReview records the customer's ratings on a delivered order and folds
// the courier rating into the courier's running average.
func (s *OrderStore) SubmitReview(ctx context.Context, orderID, userID uuid.UUID, courierRating, merchantRating float64, comment string) error {
	if courierRating < 0 || courierRating > 5 || merchantRating < 0 || merchantRating > 5 {
		return fmt.Errorf("%w: ratings must be between 0 and 5", ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
			}
			return err
		}

		if order.Status != lifecycle.StatusDelivered {
			return fmt.Errorf("%w: order %d is not delivered yet", ErrInvalidTransition, order.OrderNumber)
		}
		if order.IsReviewed {
			return fmt.Errorf("%w: order %d is already reviewed", ErrInvalidTransition, order.OrderNumber)
		}

		if err := tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"is_reviewed":     true,
				"courier_rating":  courierRating,
				"merchant_rating": merchantRating,
				"review_comment":  comment,
			}).Error; err != nil {
			return err
		}

		if order.CourierID == nil || courierRating == 0 {
			return nil
		}

		var avg float64
		if err := tx.Model(&models.Order{}).
			Where("courier_id = ? AND is_reviewed AND courier_rating > 0", order.CourierID).
			Select("COALESCE(AVG(courier_rating), 0)").
			Scan(&avg).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", order.CourierID).
			Update("rating", avg).Error
	})
}

// AppendMessage adds a chat message to an order's conversation.
func (s *OrderStore) AppendMessage(ctx context.Context, msg *models.OrderMessage) error {
	if msg.Text == "" {
		return fmt.Errorf("%w: message text required", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", msg.OrderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: order %s", ErrNotFound, msg.OrderID)
	}

	return s.db.WithContext(ctx).Create(msg).Error
}

// Get loads one order with its items, ordered history and chat.
func (s *OrderStore) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at asc, created_at asc")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a customer's orders, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return s.list(query, limit, offset)
}

// ListAvailable returns unclaimed NEW orders couriers can pick up.
func (s *OrderStore) ListAvailable(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND courier_id IS NULL", lifecycle.StatusNew)
	return s.list(query, limit, offset)
}

// ListByCourier returns a courier's orders. With activeOnly, terminal orders
// are filtered out.
func (s *OrderStore) ListByCourier(ctx context.Context, courierID uuid.UUID, activeOnly bool, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("courier_id = ?", courierID)
	if activeOnly {
		query = query.Where("status NOT IN ?", []string{lifecycle.StatusDelivered, lifecycle.StatusCancelled})
	}
	return s.list(query, limit, offset)
}

// ListAll returns every order, optionally filtered by status. Admin only.
func (s *OrderStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return s.list(query, limit, offset)
}

func (s *OrderStore) list(query *gorm.DB, limit, offset int) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderStore) appendEvent(tx *gorm.DB, orderID uuid.UUID, status, note string) error {
	event := models.OrderStatusEvent{
		OrderID:    orderID,
		Status:     status,
		Note:       note,
		RecordedAt: time.Now(),
	}
	return tx.Create(&event).Error
}
