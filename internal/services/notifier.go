package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/lifecycle"
	"github.com/example/towndelivery/internal/models"
)

// Notifier fans out user-facing notification rows and best-effort Telegram
// alerts. Pushing never blocks or fails the triggering mutation: failures are
// logged and the in-database state stands.
type Notifier struct {
	db       *gorm.DB
	telegram *TelegramService
}

// NewNotifier constructs a Notifier.
func NewNotifier(db *gorm.DB, telegram *TelegramService) *Notifier {
	return &Notifier{db: db, telegram: telegram}
}

// OrderPlaced notifies the customer and alerts the admin chat.
func (n *Notifier) OrderPlaced(order *models.Order, customer *models.User) {
	message := fmt.Sprintf("تم تأكيد طلبك #%d! السعر هايوصلك في دقايق.", order.OrderNumber)
	if order.Kind == models.OrderKindMerchant {
		message = fmt.Sprintf("تم تأكيد طلبك #%d! جاري البحث عن كابتن.", order.OrderNumber)
	}
	n.push(order.UserID, message, models.NotificationOrder)

	if n.telegram == nil {
		return
	}

	items := make([]OrderItemAlert, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemAlert{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	alert := OrderAlert{
		OrderNumber:   order.OrderNumber,
		Kind:          order.Kind,
		Items:         items,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	}
	if customer != nil {
		alert.CustomerName = customer.Name
		alert.CustomerPhone = customer.Phone
	}

	go func() {
		if err := n.telegram.NotifyNewOrder(alert); err != nil {
			logrus.WithError(err).WithField("order", order.OrderNumber).
				Warn("telegram order alert failed")
		}
	}()
}

// OrderClaimed tells the customer a courier took the order.
func (n *Notifier) OrderClaimed(order *models.Order, courier *models.User) {
	name := "الكابتن"
	if courier != nil {
		name = courier.Name
	}
	n.push(order.UserID, fmt.Sprintf("%s قبل طلبك #%d وجاري التجهيز.", name, order.OrderNumber), models.NotificationOrder)
}

// OrderStatusChanged tells the customer about a pipeline step.
func (n *Notifier) OrderStatusChanged(order *models.Order) {
	message := fmt.Sprintf("تحديث طلبك #%d: %s", order.OrderNumber, lifecycle.Label(order.Status))
	n.push(order.UserID, message, models.NotificationOrder)
}

// OrderCancelled tells the customer the order was cancelled.
func (n *Notifier) OrderCancelled(order *models.Order) {
	message := fmt.Sprintf("تم إلغاء طلبك #%d.", order.OrderNumber)
	if order.CancellationReason != "" {
		message = fmt.Sprintf("تم إلغاء طلبك #%d: %s", order.OrderNumber, order.CancellationReason)
	}
	n.push(order.UserID, message, models.NotificationOrder)
}

// OrderRepriced tells the customer the final price is in.
func (n *Notifier) OrderRepriced(order *models.Order) {
	message := fmt.Sprintf("تم تسعير طلبك #%d: الإجمالي %.2f ج.م", order.OrderNumber, order.Total)
	n.push(order.UserID, message, models.NotificationOrder)
}

func (n *Notifier) push(userID uuid.UUID, message, category string) {
	notification := models.Notification{
		UserID:   userID,
		Message:  message,
		Category: category,
	}
	if err := n.db.Create(&notification).Error; err != nil {
		logrus.WithError(err).Warn("failed to store notification")
	}
}
