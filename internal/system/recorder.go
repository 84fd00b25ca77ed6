package system

import (
	"context"
	"time"

	"github.com/lanerunner/lanerunner/internal/core/event"
	coresys "github.com/lanerunner/lanerunner/internal/core/system"
	"github.com/lanerunner/lanerunner/internal/game"
	"github.com/lanerunner/lanerunner/internal/persist"
	"go.uber.org/zap"
)

// RunStore persists finished runs.
type RunStore interface {
	InsertRuns(ctx context.Context, rows []persist.RunRow) error
}

// RecorderSystem collects RunEnded events and hands them to a background
// writer every interval ticks. The tick side never blocks: when the writer
// is behind, the batch stays pending and is retried at the next flush.
// Phase 5 (Persist), registered to tick in every state.
type RecorderSystem struct {
	store     RunStore
	batches   chan []persist.RunRow
	pending   []persist.RunRow
	interval  int // flush every N ticks
	tickCount int
	now       func() time.Time
	closed    bool
	log       *zap.Logger
}

func NewRecorderSystem(bus *event.Bus, store RunStore, intervalTicks, queueSize int, log *zap.Logger) *RecorderSystem {
	if log == nil {
		log = zap.NewNop()
	}
	s := &RecorderSystem{
		store:    store,
		batches:  make(chan []persist.RunRow, max(queueSize, 1)),
		interval: max(intervalTicks, 1),
		now:      time.Now,
		log:      log,
	}
	event.Subscribe(bus, s.onRunEnded)
	return s
}

func (s *RecorderSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *RecorderSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush()
}

func (s *RecorderSystem) onRunEnded(e game.RunEnded) {
	s.pending = append(s.pending, persist.RunRow{
		Attempt:  int32(e.Attempt),
		Score:    e.FinalScore,
		Distance: e.Distance,
		Ticks:    int64(e.Ticks),
		Seed:     e.Seed,
		EndedAt:  s.now(),
	})
}

func (s *RecorderSystem) flush() {
	if len(s.pending) == 0 || s.closed {
		return
	}
	select {
	case s.batches <- s.pending:
		s.pending = nil
	default:
		s.log.Warn("run history writer behind, batch deferred", zap.Int("runs", len(s.pending)))
	}
}

// Close hands over anything pending and stops the writer once it drains.
// Call from the game loop after the final tick.
func (s *RecorderSystem) Close() {
	if s.closed {
		return
	}
	if len(s.pending) > 0 {
		select {
		case s.batches <- s.pending:
		default:
			s.log.Warn("run history dropped on shutdown", zap.Int("runs", len(s.pending)))
		}
		s.pending = nil
	}
	s.closed = true
	close(s.batches)
}

// Run writes batches until Close has been called and the queue is drained,
// or ctx is cancelled. It runs on its own goroutine.
func (s *RecorderSystem) Run(ctx context.Context) {
	for {
		select {
		case batch, ok := <-s.batches:
			if !ok {
				return
			}
			s.write(ctx, batch)
		case <-ctx.Done():
			return
		}
	}
}

func (s *RecorderSystem) write(ctx context.Context, batch []persist.RunRow) {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.InsertRuns(wctx, batch); err != nil {
		s.log.Error("run history write failed", zap.Int("runs", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("run history written", zap.Int("runs", len(batch)))
}
