// Package store persists user profiles and serialises their mutations.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/foodlist/internal/models"
)

var (
	// ErrUserNotFound is returned when no profile matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicatePhone is returned when the phone number is already registered.
	ErrDuplicatePhone = errors.New("phone number already registered")
	// ErrDuplicateTelegramID is returned when the telegram account is bound to another profile.
	ErrDuplicateTelegramID = errors.New("telegram account already registered")
)

// MutateFunc edits a locked profile in place and reports whether it changed.
// Returning an error aborts the mutation and nothing is written.
type MutateFunc func(user *models.UserProfile) (changed bool, err error)

// UserStore is the credential store used by the session lifecycle.
//
// Mutate and MutateByTelegramID run fn while holding an exclusive lock on the
// profile, so two mutations of the same profile never interleave.
type UserStore interface {
	Create(ctx context.Context, user *models.UserProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	FindByPhone(ctx context.Context, phone string) (*models.UserProfile, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error)
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.UserProfile, error)
	MutateByTelegramID(ctx context.Context, telegramID int64, fn MutateFunc) (*models.UserProfile, error)
}
