package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSweeper_UsesLimiterClock(t *testing.T) {
	// The fake clock sits far behind the wall clock, so a sweeper reading
	// time.Now would drop the window straight away.
	clock := &fakeClock{t: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	l, err := New(store, DefaultLimit, DefaultWindow, WithClock(clock.Now))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log, _ := test.NewNullLogger()
	c, err := StartSweeper(ctx, store, "@every 1s", l.Now, log)
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = l.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)

	assert.Never(t, func() bool { return store.Len() == 0 }, 1500*time.Millisecond, 100*time.Millisecond)

	clock.Advance(DefaultWindow + time.Minute)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, 3*time.Second, 100*time.Millisecond)
}

func TestStartSweeper_BadSpec(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := StartSweeper(context.Background(), NewMemoryStore(), "every now and then", nil, log)
	assert.Error(t, err)
}
