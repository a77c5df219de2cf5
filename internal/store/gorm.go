package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodlist/internal/models"
)

// GormStore implements UserStore on top of gorm. Row locks come from
// SELECT ... FOR UPDATE inside a transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Create inserts a new profile.
func (s *GormStore) Create(ctx context.Context, user *models.UserProfile) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if _, findErr := s.FindByPhone(ctx, user.PhoneNumber); findErr == nil {
		return ErrDuplicatePhone
	}
	return ErrDuplicateTelegramID
}

// FindByID loads a profile by primary key.
func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return s.first(ctx, "id = ?", id)
}

// FindByPhone loads a profile by canonical phone number.
func (s *GormStore) FindByPhone(ctx context.Context, phone string) (*models.UserProfile, error) {
	return s.first(ctx, "phone_number = ?", phone)
}

// FindByTelegramID loads the profile bound to a telegram account.
func (s *GormStore) FindByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
	return s.first(ctx, "telegram_id = ?", telegramID)
}

// Mutate locks the profile with the given id and applies fn.
func (s *GormStore) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.UserProfile, error) {
	return s.mutate(ctx, fn, "id = ?", id)
}

// MutateByTelegramID locks the profile bound to telegramID and applies fn.
func (s *GormStore) MutateByTelegramID(ctx context.Context, telegramID int64, fn MutateFunc) (*models.UserProfile, error) {
	return s.mutate(ctx, fn, "telegram_id = ?", telegramID)
}

func (s *GormStore) first(ctx context.Context, query string, args ...any) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) mutate(ctx context.Context, fn MutateFunc, query string, args ...any) (*models.UserProfile, error) {
	var user models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(query, args...).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		changed, err := fn(&user)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
