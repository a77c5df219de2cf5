package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/foodlist/internal/models"
)

// MemoryStore is an in-process UserStore for tests and local runs. A single
// mutex serialises every mutation.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.UserProfile
	now   func() time.Time
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]*models.UserProfile),
		now:   time.Now,
	}
}

// Create stores a copy of user, assigning an id when missing.
func (s *MemoryStore) Create(_ context.Context, user *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.PhoneNumber == user.PhoneNumber {
			return ErrDuplicatePhone
		}
		if user.TelegramID != nil && existing.TelegramID != nil && *existing.TelegramID == *user.TelegramID {
			return ErrDuplicateTelegramID
		}
	}

	user.EnsureID()
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = clone(user)
	return nil
}

// FindByID returns a copy of the profile with id.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(user), nil
}

// FindByPhone returns a copy of the profile registered with phone.
func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.PhoneNumber == phone {
			return clone(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByTelegramID returns a copy of the profile bound to telegramID.
func (s *MemoryStore) FindByTelegramID(_ context.Context, telegramID int64) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user := s.byTelegramID(telegramID); user != nil {
		return clone(user), nil
	}
	return nil, ErrUserNotFound
}

// Mutate applies fn to the profile with id under the store lock.
func (s *MemoryStore) Mutate(_ context.Context, id uuid.UUID, fn MutateFunc) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.apply(user, fn)
}

// MutateByTelegramID applies fn to the profile bound to telegramID under the store lock.
func (s *MemoryStore) MutateByTelegramID(_ context.Context, telegramID int64, fn MutateFunc) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.byTelegramID(telegramID)
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.apply(user, fn)
}

func (s *MemoryStore) apply(stored *models.UserProfile, fn MutateFunc) (*models.UserProfile, error) {
	working := clone(stored)
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return clone(stored), nil
	}
	if working.TelegramID != nil {
		if other := s.byTelegramID(*working.TelegramID); other != nil && other.ID != working.ID {
			return nil, ErrDuplicateTelegramID
		}
	}
	working.ID = stored.ID
	working.UpdatedAt = s.now()
	s.users[stored.ID] = working
	return clone(working), nil
}

func (s *MemoryStore) byTelegramID(telegramID int64) *models.UserProfile {
	for _, user := range s.users {
		if user.TelegramID != nil && *user.TelegramID == telegramID {
			return user
		}
	}
	return nil
}

func clone(user *models.UserProfile) *models.UserProfile {
	cp := *user
	if user.TelegramID != nil {
		id := *user.TelegramID
		cp.TelegramID = &id
	}
	if user.AuthToken != nil {
		token := *user.AuthToken
		cp.AuthToken = &token
	}
	if user.TokenExpiry != nil {
		expiry := *user.TokenExpiry
		cp.TokenExpiry = &expiry
	}
	return &cp
}
