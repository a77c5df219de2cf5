package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/foodlist/internal/logging"
)

type recordingSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.sent = append(r.sent, c)
	return tgbotapi.Message{}, r.err
}

func TestSendConfirmationPrompt(t *testing.T) {
	sender := &recordingSender{}
	svc := NewTelegramService(sender, "", logging.Discard())

	require.NoError(t, svc.SendConfirmationPrompt(context.Background(), 42))
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, confirmationPrompt, msg.Text)

	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.Keyboard, 1)
	require.Len(t, keyboard.Keyboard[0], 2)
	assert.Equal(t, ApproveLabel, keyboard.Keyboard[0][0].Text)
	assert.Equal(t, RejectLabel, keyboard.Keyboard[0][1].Text)
	assert.True(t, keyboard.OneTimeKeyboard)
}

func TestSendConfirmationPromptErrors(t *testing.T) {
	err := NewTelegramService(nil, "", logging.Discard()).SendConfirmationPrompt(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTelegramDisabled)

	sender := &recordingSender{err: errors.New("Forbidden: bot was blocked by the user")}
	err = NewTelegramService(sender, "", logging.Discard()).SendConfirmationPrompt(context.Background(), 1)
	assert.Error(t, err)
}

func TestSendToAdmin(t *testing.T) {
	sender := &recordingSender{}

	require.NoError(t, NewTelegramService(sender, "", logging.Discard()).SendToAdmin("hi"))
	require.NoError(t, NewTelegramService(sender, "not-a-number", logging.Discard()).SendToAdmin("hi"))
	assert.Empty(t, sender.sent)

	require.NoError(t, NewTelegramService(sender, "-1001234", logging.Discard()).SendToAdmin("hi"))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(-1001234), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:        "0 UZS",
		999:      "999 UZS",
		1000:     "1,000 UZS",
		25000.75: "25,000 UZS",
		1234567:  "1,234,567 UZS",
		-4500:    "-4,500 UZS",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatPrice(amount, ""))
	}
	assert.Equal(t, "12,000 USD", FormatPrice(12000, "USD"))
}

func TestNotifyNewOrder(t *testing.T) {
	sender := &recordingSender{}
	svc := NewTelegramService(sender, "777", logging.Discard())

	err := svc.NotifyNewOrder(OrderNotification{
		OrderID:      "abc",
		Organization: "Rayhon",
		TableNumber:  4,
		Type:         "dine_in",
		Items: []OrderItemNotification{
			{Name: "Osh", Quantity: 2, Price: 35000},
		},
		Subtotal:    70000,
		ServiceFee:  7000,
		TotalAmount: 77000,
		UserName:    "Aziz",
		UserPhone:   "+998901234567",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	text := sender.sent[0].(tgbotapi.MessageConfig).Text
	assert.True(t, strings.HasPrefix(text, "<b>🛒 YANGI BUYURTMA!</b>"))
	assert.Contains(t, text, "2 x 35,000 UZS = 70,000 UZS")
	assert.Contains(t, text, "77,000 UZS")
	assert.Contains(t, text, "<b>🪑 Stol:</b> 4")
}
