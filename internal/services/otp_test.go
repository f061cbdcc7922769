package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestOTPService() (*OTPService, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewOTPService()
	svc.now = clock.Now
	return svc, clock
}

func confirmPayload(owner, txID, pass string) domain.Event {
	return domain.NewPostbackEvent(owner, "action=confirmReturnOrder&transaction="+txID+"&pass="+pass, 1487085535998)
}

func TestOTPService_RoundTrip(t *testing.T) {
	svc, _ := newTestOTPService()
	ctx := context.Background()
	payload := confirmPayload("U1", "rt-1", "123456")

	require.NoError(t, svc.Save(ctx, "U1", "123456", payload, time.Minute))

	got, err := svc.Verify(ctx, "U1", "123456")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payload, *got)
}

func TestOTPService_VerifyIsIdempotent(t *testing.T) {
	svc, _ := newTestOTPService()
	ctx := context.Background()
	payload := confirmPayload("U1", "rt-1", "123456")
	require.NoError(t, svc.Save(ctx, "U1", "123456", payload, time.Minute))

	first, err := svc.Verify(ctx, "U1", "123456")
	require.NoError(t, err)
	second, err := svc.Verify(ctx, "U1", "123456")
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestOTPService_AbsentAfterConsumeOrExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("consume", func(t *testing.T) {
		svc, _ := newTestOTPService()
		require.NoError(t, svc.Save(ctx, "U1", "111111", confirmPayload("U1", "rt-1", "111111"), time.Minute))
		consumed, err := svc.Consume(ctx, "U1", "111111")
		require.NoError(t, err)
		require.NotNil(t, consumed)

		got, err := svc.Verify(ctx, "U1", "111111")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expiry", func(t *testing.T) {
		svc, clock := newTestOTPService()
		require.NoError(t, svc.Save(ctx, "U1", "111111", confirmPayload("U1", "rt-1", "111111"), time.Minute))
		clock.Advance(time.Minute)

		got, err := svc.Verify(ctx, "U1", "111111")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("never saved", func(t *testing.T) {
		svc, _ := newTestOTPService()
		got, err := svc.Verify(ctx, "U1", "999999")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestOTPService_Conflict(t *testing.T) {
	svc, clock := newTestOTPService()
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt-1", "123456"), time.Minute))

	err := svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt-2", "123456"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrPassConflict)

	// other owners have their own namespace
	assert.NoError(t, svc.Save(ctx, "U2", "123456", confirmPayload("U2", "rt-3", "123456"), time.Minute))

	// an expired entry may be replaced
	clock.Advance(2 * time.Minute)
	require.NoError(t, svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt-4", "123456"), time.Minute))
	got, err := svc.Verify(ctx, "U1", "123456")
	require.NoError(t, err)
	assert.Contains(t, got.Postback.Data, "rt-4")
}

func TestOTPService_ConcurrentSaveSingleWinner(t *testing.T) {
	svc, _ := newTestOTPService()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt", "123456"), time.Minute); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestOTPService_ConsumeSingleWinner(t *testing.T) {
	svc, _ := newTestOTPService()
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt", "123456"), time.Minute))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Consume(ctx, "U1", "123456")
			if err == nil && got != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Empty(t, svc.entries)
}

func TestOTPService_ConsumeExpired(t *testing.T) {
	svc, clock := newTestOTPService()
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "U1", "123456", confirmPayload("U1", "rt", "123456"), time.Minute))
	clock.Advance(time.Minute)

	got, err := svc.Consume(ctx, "U1", "123456")
	require.NoError(t, err)
	assert.Nil(t, got)

	other, err := svc.Consume(ctx, "U2", "123456")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestOTPService_CleanupAndActive(t *testing.T) {
	svc, clock := newTestOTPService()
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "U1", "111111", confirmPayload("U1", "a", "111111"), time.Minute))
	require.NoError(t, svc.Save(ctx, "U1", "222222", confirmPayload("U1", "b", "222222"), 10*time.Minute))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, active)

	clock.Advance(5 * time.Minute)

	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	removed, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, svc.entries, 1)
}

func TestOTPService_RunStopsOnCancel(t *testing.T) {
	svc, _ := newTestOTPService()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
