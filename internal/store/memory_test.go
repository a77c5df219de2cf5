package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/foodlist/internal/models"
)

func TestMemoryStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tgID := int64(42)
	user := &models.UserProfile{PhoneNumber: "+998901234567", TelegramID: &tgID}
	require.NoError(t, s.Create(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ID)

	byID, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PhoneNumber, byID.PhoneNumber)

	byPhone, err := s.FindByPhone(ctx, "+998901234567")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	byTelegram, err := s.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byTelegram.ID)

	_, err = s.FindByPhone(ctx, "+998900000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tgID := int64(7)
	require.NoError(t, s.Create(ctx, &models.UserProfile{PhoneNumber: "+998901234567", TelegramID: &tgID}))

	err := s.Create(ctx, &models.UserProfile{PhoneNumber: "+998901234567"})
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	err = s.Create(ctx, &models.UserProfile{PhoneNumber: "+998907654321", TelegramID: &tgID})
	assert.ErrorIs(t, err, ErrDuplicateTelegramID)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := &models.UserProfile{PhoneNumber: "+998901234567"}
	require.NoError(t, s.Create(ctx, user))

	loaded, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	loaded.IsActive = true

	again, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
}

func TestMemoryStoreMutate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := &models.UserProfile{PhoneNumber: "+998901234567"}
	require.NoError(t, s.Create(ctx, user))

	updated, err := s.Mutate(ctx, user.ID, func(u *models.UserProfile) (bool, error) {
		u.IsActive = true
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)

	_, err = s.Mutate(ctx, user.ID, func(u *models.UserProfile) (bool, error) {
		u.IsActive = false
		return false, nil
	})
	require.NoError(t, err)
	stored, _ := s.FindByID(ctx, user.ID)
	assert.True(t, stored.IsActive, "unchanged mutation must not be written")

	boom := errors.New("boom")
	_, err = s.Mutate(ctx, user.ID, func(u *models.UserProfile) (bool, error) {
		u.IsActive = false
		return true, boom
	})
	assert.ErrorIs(t, err, boom)
	stored, _ = s.FindByID(ctx, user.ID)
	assert.True(t, stored.IsActive, "failed mutation must not be written")

	_, err = s.MutateByTelegramID(ctx, 99, func(*models.UserProfile) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStoreMutateSerialises(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := &models.UserProfile{PhoneNumber: "+998901234567"}
	require.NoError(t, s.Create(ctx, user))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Mutate(ctx, user.ID, func(u *models.UserProfile) (bool, error) {
				u.FullName += "x"
				return true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, stored.FullName, 50)
}
