package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/foodlist/internal/models"
)

// TokenValidator resolves a bearer token to a profile.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.UserProfile, error)
}

// Gate authenticates requests. It fails closed and reports every failure as
// ErrAuthenticationFailed; the underlying reason only reaches the debug log.
type Gate struct {
	validator TokenValidator
	logger    *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(validator TokenValidator, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{validator: validator, logger: logger.With(slog.String("component", "gate"))}
}

// Authenticate returns the active profile owning token.
func (g *Gate) Authenticate(ctx context.Context, token string) (*models.UserProfile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := g.validator.ValidateToken(ctx, token)
	if err != nil {
		g.logger.Debug("token rejected", slog.Any("error", err))
		return nil, ErrAuthenticationFailed
	}
	if !user.IsActive {
		g.logger.Debug("inactive user rejected", slog.String("user_id", user.ID.String()))
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}
