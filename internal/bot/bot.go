// Package bot handles inbound Telegram updates: registration by shared
// contact and replies to login confirmation prompts.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/foodlist/internal/auth"
	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/services"
)

const (
	shareContactLabel = "📞 Telefon raqamni jo'natish"
	alreadyRegistered = "🎉 Xush kelibsiz, %s 🎉\n\n✅ Siz allaqachon ro'yxatdan o'tgansiz"
	welcomePrompt     = "🎉 Xush kelibsiz, %s 🎉 \n\nAvtorizatsiyani yakunlash va bot imkoniyatlaridan foydalanish uchun tugmani bosing\n\n👇 Kontaktni yuboring 👇\n\nAvtorizatsiya nima beradi:\n✅ Shaxsiylashtirilgan ma'lumotlar va sozlamalar\n✅ Ma'lumotlarni qayta kiritmasdan qulay o'zaro aloqa"
	registered        = "🎉 Tabriklaymiz, %s 🎉\n\n✅ Siz roʻyxatdan oʻtdingiz!"
	approved          = "✅ Siz loginingizni muvaffaqiyatli tasdiqladingiz!\n\nEndi siz saytga kirishingiz va ishlashni davom ettirishingiz mumkin.\nXizmatimizdan foydalanganingiz uchun tashakkur!"
	rejected          = "🚫 Siz tizimga kirishni rad etdingiz!"
	chooseOption      = "Iltimos, tasdiqlash yoki bekor qilishni tanlang."
	foreignContact    = "❗ Iltimos, o'zingizning kontaktingizni yuboring."
	somethingWrong    = "❌ Xatolik yuz berdi. Iltimos, qayta urinib ko'ring."
)

// Sessions is the part of the session lifecycle the bot drives.
type Sessions interface {
	ChannelRegistered(ctx context.Context, telegramID int64) (bool, error)
	RegisterByChannel(ctx context.Context, contact auth.ChannelContact) (*models.UserProfile, bool, error)
	OnConfirmationReply(ctx context.Context, telegramID int64, choice auth.Choice) (*models.UserProfile, error)
}

// ParseChoice maps a reply keyboard label to a confirmation choice.
func ParseChoice(text string) auth.Choice {
	switch strings.TrimSpace(text) {
	case services.ApproveLabel:
		return auth.ChoiceApprove
	case services.RejectLabel:
		return auth.ChoiceReject
	default:
		return auth.ChoiceOther
	}
}

// Bot turns Telegram updates into session lifecycle calls.
type Bot struct {
	sessions Sessions
	sender   services.Sender
	logger   *slog.Logger
}

// New creates a Bot replying through sender.
func New(sessions Sessions, sender services.Sender, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		sessions: sessions,
		sender:   sender,
		logger:   logger.With(slog.String("component", "bot")),
	}
}

// Run long-polls api for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := api.GetUpdatesChan(cfg)
	b.logger.Info("polling started", slog.String("username", api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			b.logger.Info("polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				b.logger.Error("handle update failed",
					slog.Int("update_id", update.UpdateID),
					slog.Any("error", err),
				)
			}
		}
	}
}

// HandleUpdate processes a single update. Updates without a message are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		return b.handleStart(ctx, msg)
	case msg.Contact != nil:
		return b.handleContact(ctx, msg)
	case msg.Text != "" && !msg.IsCommand():
		return b.handleReply(ctx, msg)
	}
	return nil
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	ok, err := b.sessions.ChannelRegistered(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if ok {
		return b.reply(msg.Chat.ID, fmt.Sprintf(alreadyRegistered, msg.From.FirstName), nil)
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(shareContactLabel)),
	)
	keyboard.OneTimeKeyboard = true
	return b.reply(msg.Chat.ID, fmt.Sprintf(welcomePrompt, msg.From.FirstName), keyboard)
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Contact.UserID != msg.From.ID {
		return b.reply(msg.Chat.ID, foreignContact, nil)
	}

	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	_, created, err := b.sessions.RegisterByChannel(ctx, auth.ChannelContact{
		TelegramID:  msg.From.ID,
		PhoneNumber: msg.Contact.PhoneNumber,
		FullName:    fullName,
	})
	if err != nil {
		b.logger.Warn("register by contact failed",
			slog.Int64("telegram_id", msg.From.ID),
			slog.Any("error", err),
		)
		return b.reply(msg.Chat.ID, somethingWrong, tgbotapi.NewRemoveKeyboard(true))
	}
	if !created {
		return b.reply(msg.Chat.ID, fmt.Sprintf(alreadyRegistered, msg.From.FirstName), tgbotapi.NewRemoveKeyboard(true))
	}
	return b.reply(msg.Chat.ID, fmt.Sprintf(registered, msg.From.FirstName), tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleReply(ctx context.Context, msg *tgbotapi.Message) error {
	choice := ParseChoice(msg.Text)
	_, err := b.sessions.OnConfirmationReply(ctx, msg.From.ID, choice)
	if errors.Is(err, auth.ErrUnknownUser) {
		return nil
	}
	if err != nil {
		return err
	}

	switch choice {
	case auth.ChoiceApprove:
		return b.reply(msg.Chat.ID, approved, tgbotapi.NewRemoveKeyboard(true))
	case auth.ChoiceReject:
		return b.reply(msg.Chat.ID, rejected, tgbotapi.NewRemoveKeyboard(true))
	default:
		return b.reply(msg.Chat.ID, chooseOption, nil)
	}
}

func (b *Bot) reply(chatID int64, text string, markup any) error {
	out := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		out.ReplyMarkup = markup
	}
	if _, err := b.sender.Send(out); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
