package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
	"github.com/tawhid120/Save-restricted-content-bot/internal/relay"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// BatchDoneEvent is published to relay.batch.done after every batch.
type BatchDoneEvent struct {
	RunID      string    `json:"run_id"`
	UserID     int64     `json:"user_id"`
	Requested  int       `json:"requested"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
	LastError  string    `json:"last_error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// NATSPublisher implements relay.EventPublisher
type NATSPublisher struct {
	nc  NATSClient
	log *logger.Logger
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: conn, log: logger.Component("publisher")}
}

// BatchDone publishes the batch summary. Publish failures are logged and
// swallowed: event delivery never affects the user-facing outcome.
func (p *NATSPublisher) BatchDone(runID string, userID int64, s *relay.Summary) {
	event := BatchDoneEvent{
		RunID:      runID,
		UserID:     userID,
		Requested:  s.Requested,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Cancelled:  s.Cancelled,
		FinishedAt: time.Now().UTC(),
	}
	if s.LastError != nil {
		event.LastError = s.LastError.Error()
	}

	if err := p.publish("relay.batch.done", event); err != nil {
		p.log.Error().Err(err).Str("run_id", runID).Msg("publisher: batch event dropped")
	}
}

func (p *NATSPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
