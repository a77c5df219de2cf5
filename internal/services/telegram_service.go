package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply keyboard labels of the login confirmation prompt.
const (
	ApproveLabel = "✅Tasdiqlash"
	RejectLabel  = "🚫Bekor qilish"
)

const confirmationPrompt = "🔔 Tizimga kirishingizni tasdiqlang:"

// ErrTelegramDisabled is returned when no bot is configured.
var ErrTelegramDisabled = errors.New("telegram bot is not configured")

// Sender is the part of tgbotapi.BotAPI the services need.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBotAPI connects to the Bot API with token and routes library logs through logger.
func NewBotAPI(token string, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := tgbotapi.SetLogger(&slogBotLogger{log: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return bot, nil
}

// slogBotLogger adapts slog.Logger to tgbotapi.BotLogger.
type slogBotLogger struct {
	log *slog.Logger
}

func (s *slogBotLogger) Println(v ...any) {
	s.log.Warn(fmt.Sprint(v...))
}

func (s *slogBotLogger) Printf(format string, v ...any) {
	s.log.Warn(fmt.Sprintf(format, v...))
}

// TelegramService sends confirmation prompts to users and notifications to the admin chat.
type TelegramService struct {
	sender      Sender
	adminChatID int64
	logger      *slog.Logger
}

// NewTelegramService creates a new TelegramService. With a nil sender every
// send fails with ErrTelegramDisabled. An unparsable adminChatID disables
// admin notifications.
func NewTelegramService(sender Sender, adminChatID string, logger *slog.Logger) *TelegramService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "telegram"))

	var chatID int64
	if adminChatID = strings.TrimSpace(adminChatID); adminChatID != "" {
		parsed, err := strconv.ParseInt(adminChatID, 10, 64)
		if err != nil {
			logger.Warn("invalid admin chat id, notifications disabled", slog.String("value", adminChatID))
		} else {
			chatID = parsed
		}
	}

	return &TelegramService{sender: sender, adminChatID: chatID, logger: logger}
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return s.send(msg)
}

// SendConfirmationPrompt asks the owner of telegramID to approve or reject a login.
func (s *TelegramService) SendConfirmationPrompt(_ context.Context, telegramID int64) error {
	msg := tgbotapi.NewMessage(telegramID, confirmationPrompt)
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ApproveLabel),
			tgbotapi.NewKeyboardButton(RejectLabel),
		),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	return s.send(msg)
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == 0 {
		s.logger.Debug("admin chat not configured, message dropped")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

func (s *TelegramService) send(msg tgbotapi.Chattable) error {
	if s.sender == nil {
		return ErrTelegramDisabled
	}
	if _, err := s.sender.Send(msg); err != nil {
		s.logger.Warn("telegram send failed", slog.Any("error", err))
		return err
	}
	return nil
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID      string
	Organization string
	TableNumber  int
	Type         string
	Items        []OrderItemNotification
	Subtotal     float64
	ServiceFee   float64
	TotalAmount  float64
	Currency     string
	UserName     string
	UserPhone    string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    float64
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "UZS"
	}
	intAmount := int64(amount)
	sign := ""
	if intAmount < 0 {
		sign = "-"
		intAmount = -intAmount
	}
	str := strconv.FormatInt(intAmount, 10)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + " " + currency
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == 0 {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemTotal := item.Price * float64(item.Quantity)
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(itemTotal, order.Currency),
		))
	}

	typeText := "🍽 Zalda"
	if order.Type == "takeaway" {
		typeText = "🥡 Olib ketish"
	}

	message := fmt.Sprintf(`<b>🛒 YANGI BUYURTMA!</b>
<b>📋 Buyurtma:</b> %s
<b>🏪 Muassasa:</b> %s
<b>🪑 Stol:</b> %d
<b>🚚 Turi:</b> %s
<b>👤 Mijoz:</b> %s
<b>📞 Telefon:</b> %s
<b>📦 Mahsulotlar:</b>
%s
<b>🧮 Summa:</b> %s
<b>🧾 Xizmat haqi:</b> %s
<b>💰 Jami:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderID,
		html.EscapeString(order.Organization),
		order.TableNumber,
		typeText,
		html.EscapeString(order.UserName),
		order.UserPhone,
		itemsList.String(),
		FormatPrice(order.Subtotal, order.Currency),
		FormatPrice(order.ServiceFee, order.Currency),
		FormatPrice(order.TotalAmount, order.Currency),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
