package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/store"
	"github.com/example/foodlist/internal/utils"
)

// Service drives the activation state of user profiles: provisioning,
// confirmation over the channel, token issuance and expiry.
type Service struct {
	users    store.UserStore
	tokens   *TokenService
	channel  ConfirmationChannel
	validity time.Duration
	logger   *slog.Logger
}

// NewService constructs the session lifecycle. channel may be nil when no
// messaging channel is configured; prompts then fail with ErrUnreachableChannel.
func NewService(users store.UserStore, tokens *TokenService, channel ConfirmationChannel, validity time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		channel:  channel,
		validity: validity,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// PhoneCheckResult describes the outcome of CheckPhone.
type PhoneCheckResult struct {
	UserID           uuid.UUID
	Exists           bool
	ConfirmationSent bool
}

// CheckPhone provisions phone when unknown, otherwise asks the owner to
// confirm the login over the channel. Prompt failures are logged and absorbed.
func (s *Service) CheckPhone(ctx context.Context, phone string) (PhoneCheckResult, error) {
	user, created, err := s.RegisterByPhone(ctx, phone)
	if err != nil {
		return PhoneCheckResult{}, err
	}
	if created {
		return PhoneCheckResult{UserID: user.ID}, nil
	}

	if err := s.RequestConfirmation(ctx, user); err != nil {
		s.logger.Warn("confirmation prompt not delivered",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}
	return PhoneCheckResult{UserID: user.ID, Exists: true, ConfirmationSent: true}, nil
}

// RegisterByPhone creates an inactive customer profile for phone unless one
// exists. created reports whether a profile was added.
func (s *Service) RegisterByPhone(ctx context.Context, phone string) (*models.UserProfile, bool, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, false, err
	}

	if user, err := s.users.FindByPhone(ctx, phone); err == nil {
		return user, false, nil
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, err
	}

	user := &models.UserProfile{
		PhoneNumber: phone,
		FullName:    defaultFullName(phone),
		Type:        models.UserTypeCustomer,
		IsActive:    false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicatePhone) {
			existing, findErr := s.users.FindByPhone(ctx, phone)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user provisioned", slog.String("user_id", user.ID.String()))
	return user, true, nil
}

// RegisterByChannel handles a phone number shared over the channel. A new
// phone gets an active profile with a fresh token. A known phone keeps its
// activation state; the channel identity is attached when the profile has none.
func (s *Service) RegisterByChannel(ctx context.Context, contact ChannelContact) (*models.UserProfile, bool, error) {
	phone, err := utils.NormalizePhone(contact.PhoneNumber)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		return s.linkChannel(ctx, existing, contact.TelegramID), false, nil
	case !errors.Is(err, store.ErrUserNotFound):
		return nil, false, err
	}

	if bound, err := s.users.FindByTelegramID(ctx, contact.TelegramID); err == nil {
		return bound, false, nil
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, err
	}

	fullName := strings.TrimSpace(contact.FullName)
	if fullName == "" {
		fullName = defaultFullName(phone)
	}
	telegramID := contact.TelegramID
	user := &models.UserProfile{
		PhoneNumber: phone,
		FullName:    fullName,
		Type:        models.UserTypeCustomer,
		IsActive:    true,
		TelegramID:  &telegramID,
	}
	user.EnsureID()

	token, claims, err := s.tokens.Issue(user.ID, s.validity)
	if err != nil {
		return nil, false, err
	}
	user.SetToken(token, claims.ExpiresAt.Time)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicatePhone) {
			existing, findErr := s.users.FindByPhone(ctx, phone)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered via channel",
		slog.String("user_id", user.ID.String()),
		slog.Int64("telegram_id", telegramID),
	)
	return user, true, nil
}

// ChannelRegistered reports whether a profile is bound to telegramID.
func (s *Service) ChannelRegistered(ctx context.Context, telegramID int64) (bool, error) {
	_, err := s.users.FindByTelegramID(ctx, telegramID)
	if errors.Is(err, store.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RequestConfirmation sends a confirmation prompt to the user's chat.
func (s *Service) RequestConfirmation(ctx context.Context, user *models.UserProfile) error {
	if user.TelegramID == nil || s.channel == nil {
		return ErrUnreachableChannel
	}
	if err := s.channel.SendConfirmationPrompt(ctx, *user.TelegramID); err != nil {
		return fmt.Errorf("send confirmation prompt: %w", err)
	}
	return nil
}

// OnConfirmationReply applies the user's answer to a confirmation prompt.
// Approve (re)issues a token only when the current one is absent or expired
// and activates the profile. Reject deactivates it and leaves the token in
// place. Any other answer changes nothing.
func (s *Service) OnConfirmationReply(ctx context.Context, telegramID int64, choice Choice) (*models.UserProfile, error) {
	user, err := s.users.MutateByTelegramID(ctx, telegramID, func(u *models.UserProfile) (bool, error) {
		switch choice {
		case ChoiceApprove:
			return s.approve(u)
		case ChoiceReject:
			if !u.IsActive {
				return false, nil
			}
			u.IsActive = false
			return true, nil
		default:
			return false, nil
		}
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("confirmation reply applied",
		slog.String("user_id", user.ID.String()),
		slog.String("choice", choice.String()),
		slog.Bool("active", user.IsActive),
	)
	return user, nil
}

// ValidateToken resolves token to its profile. An expired token deactivates
// its owner as a side effect, provided it is still the owner's current token.
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.UserProfile, error) {
	claims, err := s.tokens.Decode(token)
	if errors.Is(err, ErrExpiredToken) {
		s.deactivateExpired(ctx, claims, token)
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, _ := claims.Subject()
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	if user.AuthToken == nil || *user.AuthToken != token {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// LoginWithPassword authenticates a manager by phone and password and returns
// the profile with a valid token on file.
func (s *Service) LoginWithPassword(ctx context.Context, phone, password string) (*models.UserProfile, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsManager() || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.users.Mutate(ctx, user.ID, s.approve)
}

// EnsureManager creates or updates a manager profile with the given password.
func (s *Service) EnsureManager(ctx context.Context, phone, password string) (*models.UserProfile, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, store.ErrUserNotFound) {
		user := &models.UserProfile{
			PhoneNumber:  phone,
			FullName:     defaultFullName(phone),
			Type:         models.UserTypeManager,
			IsActive:     true,
			PasswordHash: hash,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	return s.users.Mutate(ctx, existing.ID, func(u *models.UserProfile) (bool, error) {
		u.Type = models.UserTypeManager
		u.PasswordHash = hash
		u.IsActive = true
		return true, nil
	})
}

// approve activates u and issues a token unless the current one is still valid.
func (s *Service) approve(u *models.UserProfile) (bool, error) {
	changed := false
	if !u.HasValidToken(s.tokens.Now()) {
		token, claims, err := s.tokens.Issue(u.ID, s.validity)
		if err != nil {
			return false, err
		}
		u.SetToken(token, claims.ExpiresAt.Time)
		changed = true
	}
	if !u.IsActive {
		u.IsActive = true
		changed = true
	}
	return changed, nil
}

func (s *Service) linkChannel(ctx context.Context, user *models.UserProfile, telegramID int64) *models.UserProfile {
	if user.TelegramID != nil {
		return user
	}
	linked, err := s.users.Mutate(ctx, user.ID, func(u *models.UserProfile) (bool, error) {
		if u.TelegramID != nil {
			return false, nil
		}
		u.TelegramID = &telegramID
		return true, nil
	})
	if err != nil {
		s.logger.Warn("attach channel identity failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
		return user
	}
	return linked
}

func (s *Service) deactivateExpired(ctx context.Context, claims *Claims, token string) {
	id, err := claims.Subject()
	if err != nil {
		return
	}
	_, err = s.users.Mutate(ctx, id, func(u *models.UserProfile) (bool, error) {
		// A concurrent approval may have rotated the token; leave it alone.
		if u.AuthToken == nil || *u.AuthToken != token {
			return false, nil
		}
		if u.HasValidToken(s.tokens.Now()) || !u.IsActive {
			return false, nil
		}
		u.IsActive = false
		return true, nil
	})
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		s.logger.Error("deactivate expired user failed",
			slog.String("user_id", id.String()),
			slog.Any("error", err),
		)
	}
}

func defaultFullName(phone string) string {
	return "User " + utils.PhoneSuffix(phone, 4)
}
