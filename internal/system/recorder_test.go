package system

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lanerunner/lanerunner/internal/core/event"
	"github.com/lanerunner/lanerunner/internal/game"
	"github.com/lanerunner/lanerunner/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]persist.RunRow
	err     error
}

func (s *fakeStore) InsertRuns(_ context.Context, rows []persist.RunRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, rows)
	return s.err
}

func (s *fakeStore) rows() []persist.RunRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persist.RunRow
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func TestRecorderSystem(t *testing.T) {
	ended := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("batches on interval and drains on close", func(t *testing.T) {
		bus := event.NewBus()
		store := &fakeStore{}
		s := NewRecorderSystem(bus, store, 3, 4, nil)
		s.now = func() time.Time { return ended }

		done := make(chan struct{})
		go func() {
			s.Run(context.Background())
			close(done)
		}()

		event.Emit(bus, game.RunEnded{Attempt: 1, FinalScore: 42, Distance: 420.5, Ticks: 100, Seed: 7})
		bus.Flush()
		s.Update(time.Millisecond)
		s.Update(time.Millisecond)
		assert.Len(t, s.pending, 1)
		s.Update(time.Millisecond)
		assert.Empty(t, s.pending)

		event.Emit(bus, game.RunEnded{Attempt: 2, FinalScore: 3, Seed: 7})
		bus.Flush()
		s.Close()
		s.Close()
		<-done

		assert.Equal(t, []persist.RunRow{
			{Attempt: 1, Score: 42, Distance: 420.5, Ticks: 100, Seed: 7, EndedAt: ended},
			{Attempt: 2, Score: 3, Seed: 7, EndedAt: ended},
		}, store.rows())
	})

	t.Run("full queue defers the batch", func(t *testing.T) {
		bus := event.NewBus()
		s := NewRecorderSystem(bus, &fakeStore{}, 1, 1, nil)

		event.Emit(bus, game.RunEnded{Attempt: 1})
		bus.Flush()
		s.Update(time.Millisecond)
		require.Len(t, s.batches, 1)

		event.Emit(bus, game.RunEnded{Attempt: 2})
		bus.Flush()
		s.Update(time.Millisecond)
		assert.Len(t, s.pending, 1)

		<-s.batches
		s.Update(time.Millisecond)
		assert.Empty(t, s.pending)
		assert.Len(t, s.batches, 1)
	})

	t.Run("store errors do not stop the writer", func(t *testing.T) {
		bus := event.NewBus()
		store := &fakeStore{err: errors.New("db down")}
		s := NewRecorderSystem(bus, store, 1, 4, nil)

		event.Emit(bus, game.RunEnded{Attempt: 1})
		bus.Flush()
		s.Update(time.Millisecond)
		event.Emit(bus, game.RunEnded{Attempt: 2})
		bus.Flush()
		s.Close()

		s.Run(context.Background())
		assert.Len(t, store.rows(), 2)
	})

	t.Run("cancelled context stops the writer", func(t *testing.T) {
		s := NewRecorderSystem(event.NewBus(), &fakeStore{}, 1, 1, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.Run(ctx)
	})
}
