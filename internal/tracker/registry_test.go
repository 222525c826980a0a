package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/scenario"
	"github.com/wonny/symptrack/internal/window"
)

func newRegistry(store contracts.WindowStore, now time.Time) *Registry {
	return NewRegistry(Deps{
		Store:     store,
		Generator: scenario.NewGenerator(1),
		Clock:     func() time.Time { return now },
		Logger:    zerolog.Nop(),
	})
}

func TestRegistry_GetCreatesWindow(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	reg := newRegistry(store, now)
	ctx := context.Background()

	tr, err := reg.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", window.DateKey(tr.Progress().StartDate))
	assert.Equal(t, 1, store.saves)

	again, err := reg.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, tr, again, "one tracker per user")
}

func TestRegistry_GetLoadsAndClamps(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	w := window.New("bob", may1, may1)
	w.Entries["2024-04-28"] = contracts.Entry{Date: may1.AddDate(0, 0, -3)}
	w.Entries["2024-05-02"] = contracts.Entry{Date: may1.AddDate(0, 0, 1)}
	store.windows["bob"] = w

	tr, err := newRegistry(store, may1).Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Progress().CompletedDays)
	assert.Equal(t, w.ID, tr.Progress().WindowID)
}

func TestRegistry_Errors(t *testing.T) {
	store := newFakeStore()
	reg := newRegistry(store, may1)

	_, err := reg.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, contracts.ErrInvalidParameter)

	store.failErr = errors.New("disk full")
	_, err = reg.Get(context.Background(), "carol")
	assert.Error(t, err)
	assert.Empty(t, reg.Trackers())
}

func TestRegistry_SnapshotAndEvict(t *testing.T) {
	reg := newRegistry(newFakeStore(), may1)
	ctx := context.Background()

	for _, id := range []string{"zed", "amy"} {
		_, err := reg.Get(ctx, id)
		require.NoError(t, err)
	}

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "amy", snap[0].UserID)
	assert.Equal(t, "zed", snap[1].UserID)

	reg.Evict("amy")
	assert.Len(t, reg.Trackers(), 1)
}
