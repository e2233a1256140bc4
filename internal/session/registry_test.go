package session

import (
	"context"
	"testing"
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	store := newFakeStore(model.Post{ID: "7", Title: "Seven", Content: "<p>7</p>"})
	r := NewRegistry(store, schema.Default(), Options{Delay: testDelay})

	fresh, err := r.Create("")
	require.NoError(t, err)
	existing, err := r.Create("7")
	require.NoError(t, err)
	assert.NotEqual(t, fresh.ID(), existing.ID())
	assert.Equal(t, 2, r.Len())

	got, err := r.Get(existing.ID())
	require.NoError(t, err)
	assert.Same(t, existing, got)
	assert.Equal(t, "Seven", got.Title())

	require.NoError(t, r.Delete(fresh.ID()))
	assert.True(t, fresh.isClosed())
	_, err = r.Get(fresh.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(fresh.ID()), ErrNotFound)

	_, err = r.Create("missing")
	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, 1, r.Len())
}

func TestSweep(t *testing.T) {
	r := NewRegistry(newFakeStore(), schema.Default(), Options{Delay: testDelay})
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	stale, err := r.Create("")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	active, err := r.Create("")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep(time.Hour))
	assert.True(t, stale.isClosed())
	assert.False(t, active.isClosed())

	_, err = r.Get(active.ID())
	require.NoError(t, err)
	clock = clock.Add(30 * time.Minute)
	assert.Zero(t, r.Sweep(time.Hour))
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	r := NewRegistry(newFakeStore(), schema.Default(), Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(newFakeStore(), schema.Default(), Options{})
	s, err := r.Create("")
	require.NoError(t, err)

	r.CloseAll()
	assert.Zero(t, r.Len())
	assert.True(t, s.isClosed())
}
