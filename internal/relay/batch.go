package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/tg"

	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
)

// BatchLimit caps how many messages one request may cover.
const BatchLimit = 100

// defaultPacing is the pause between consecutive transfers of a batch.
const defaultPacing = 500 * time.Millisecond

var (
	// ErrInvertedRange is returned when the range end precedes its start.
	ErrInvertedRange = errors.New("range end precedes start")

	// ErrRangeTooLarge is returned when a range covers more than
	// BatchLimit messages.
	ErrRangeTooLarge = fmt.Errorf("range covers more than %d messages", BatchLimit)

	// ErrBatchRunning is returned when the user already has a batch
	// in flight.
	ErrBatchRunning = errors.New("another batch is already running")
)

// Summary is the terminal accounting of a batch run.
type Summary struct {
	Requested int
	Succeeded int
	Failed    int
	Cancelled bool
	LastError error
}

// ProgressFunc receives per-message outcomes as the batch advances.
// done counts processed messages, err is nil on success.
type ProgressFunc func(done, total int, err error)

// EventPublisher receives a notification when a batch completes.
// Implementations must tolerate being called from the batch goroutine.
type EventPublisher interface {
	BatchDone(runID string, userID int64, s *Summary)
}

// Coordinator runs message ranges through the engine with pacing and
// per-user cancellation. One batch per user at a time.
type Coordinator struct {
	engine    *Engine
	state     *StateStore
	publisher EventPublisher
	pacing    time.Duration
	log       *logger.Logger
}

// NewCoordinator creates a coordinator. publisher may be nil.
func NewCoordinator(engine *Engine, state *StateStore, publisher EventPublisher) *Coordinator {
	return &Coordinator{
		engine:    engine,
		state:     state,
		publisher: publisher,
		pacing:    defaultPacing,
		log:       logger.Component("relay"),
	}
}

// ValidateRange checks the bounds a run would use without running it.
func ValidateRange(start, end int) error {
	if end < start {
		return ErrInvertedRange
	}
	if end-start+1 > BatchLimit {
		return ErrRangeTooLarge
	}
	return nil
}

// State exposes the store so command handlers can flag cancellations.
func (c *Coordinator) State() *StateStore {
	return c.state
}

// Run transfers messages start..end inclusive from src to dest. The
// range is validated up front; a single message skips pacing. The user's
// state slot is always released, whatever path the run takes.
func (c *Coordinator) Run(ctx context.Context, userID int64, src *telegram.Channel, dest tg.InputPeerClass, start, end int, progress ProgressFunc) (*Summary, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	total := end - start + 1
	if !c.state.TryRegister(userID) {
		return nil, ErrBatchRunning
	}
	defer c.state.Remove(userID)

	runID := uuid.NewString()

	c.log.Info().
		Str("run_id", runID).
		Int64("user_id", userID).
		Int64("channel_id", src.ID).
		Int("start", start).
		Int("end", end).
		Msg("relay: batch started")

	summary := &Summary{Requested: total}
	for id := start; id <= end; id++ {
		if c.state.Cancelled(userID) || ctx.Err() != nil {
			summary.Cancelled = true
			summary.Failed = total - summary.Succeeded
			break
		}

		_, err := c.engine.Transfer(ctx, src, dest, id)
		if err != nil {
			summary.Failed++
			summary.LastError = err
		} else {
			summary.Succeeded++
		}

		done := id - start + 1
		if progress != nil {
			progress(done, total, err)
		}

		if done < total {
			select {
			case <-time.After(c.pacing):
			case <-ctx.Done():
			}
		}
	}

	c.log.Info().
		Str("run_id", runID).
		Int64("user_id", userID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Bool("cancelled", summary.Cancelled).
		Msg("relay: batch finished")

	if c.publisher != nil {
		c.publisher.BatchDone(runID, userID, summary)
	}
	return summary, nil
}
