package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/foodlist/internal/logging"
	"github.com/example/foodlist/internal/store"
)

const (
	testSecret   = "test-secret"
	testValidity = 24 * time.Hour
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeChannel struct {
	mu    sync.Mutex
	sent  []int64
	fails bool
}

func (f *fakeChannel) SendConfirmationPrompt(_ context.Context, telegramID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, telegramID)
	if f.fails {
		return errors.New("telegram unavailable")
	}
	return nil
}

func (f *fakeChannel) Sent() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.sent...)
}

type testEnv struct {
	svc     *Service
	users   *store.MemoryStore
	tokens  *TokenService
	clock   *fakeClock
	channel *fakeChannel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newFakeClock()
	tokens, err := NewTokenService(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	users := store.NewMemoryStore()
	channel := &fakeChannel{}
	return &testEnv{
		svc:     NewService(users, tokens, channel, testValidity, logging.Discard()),
		users:   users,
		tokens:  tokens,
		clock:   clock,
		channel: channel,
	}
}
