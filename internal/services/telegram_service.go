package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// TelegramService pushes operational alerts to the admin Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		logrus.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Warn("telegram send failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Warn("telegram returned unexpected status")
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderAlert carries order data for the admin alert.
type OrderAlert struct {
	OrderNumber   int
	Kind          string
	CustomerName  string
	CustomerPhone string
	Items         []OrderItemAlert
	Subtotal      float64
	DeliveryFee   float64
	Total         float64
	PaymentMethod string
}

// OrderItemAlert is one line of the alert.
type OrderItemAlert struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// NotifyNewOrder alerts the admin chat about a freshly placed order. Custom
// orders are flagged so staff knows repricing is pending.
func (s *TelegramService) NotifyNewOrder(alert OrderAlert) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range alert.Items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %.2f = %.2f ج.م\n",
			i+1,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.UnitPrice*float64(item.Quantity),
		))
	}

	kindText := "🏪 طلب من متجر"
	if alert.Kind == "CUSTOM" {
		kindText = "⚡ طلب خاص — يحتاج تسعير"
	}

	message := fmt.Sprintf(`<b>🛒 طلب جديد #%d</b>
%s
<b>👤 العميل:</b> %s
<b>📞 الهاتف:</b> %s
<b>📦 المنتجات:</b>
%s
<b>💰 الإجمالي:</b> %.2f ج.م (توصيل %.2f)
<b>💳 الدفع:</b> %s
━━━━━━━━━━━━━━━━━━`,
		alert.OrderNumber,
		kindText,
		alert.CustomerName,
		alert.CustomerPhone,
		itemsList.String(),
		alert.Total,
		alert.DeliveryFee,
		alert.PaymentMethod,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
