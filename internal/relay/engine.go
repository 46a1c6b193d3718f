// Package relay moves channel messages into private chats. The engine
// tries the cheapest faithful delivery first and degrades gracefully:
// manual reconstruction, then an unattributed copy, then a plain forward.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
)

var (
	// ErrEmptyMessage is returned when the source message exists but has
	// nothing worth delivering.
	ErrEmptyMessage = errors.New("message is empty")

	errCannotRebuild = errors.New("cannot rebuild message manually")
)

// Messenger is the slice of the client the engine needs. Declared here
// so tests can swap in a fake.
type Messenger interface {
	FetchMessage(ctx context.Context, ch *telegram.Channel, msgID int) (*telegram.Message, error)
	SendText(ctx context.Context, dest tg.InputPeerClass, text string, entities []tg.MessageEntityClass) (*telegram.Message, error)
	SendMedia(ctx context.Context, dest tg.InputPeerClass, media tg.InputMediaClass, caption string, entities []tg.MessageEntityClass) (*telegram.Message, error)
	SendPoll(ctx context.Context, dest tg.InputPeerClass, p *telegram.Poll) (*telegram.Message, error)
	Duplicate(ctx context.Context, dest tg.InputPeerClass, src *telegram.Channel, msgID int) (*telegram.Message, error)
	Forward(ctx context.Context, dest tg.InputPeerClass, src *telegram.Channel, msgID int) (*telegram.Message, error)
}

// Engine transfers single messages. Safe for concurrent use.
type Engine struct {
	messenger Messenger
	log       *logger.Logger
}

func NewEngine(m Messenger) *Engine {
	return &Engine{messenger: m, log: logger.Component("relay")}
}

type strategy struct {
	name string
	run  func(ctx context.Context, dest tg.InputPeerClass, src *telegram.Channel, msg *telegram.Message) (*telegram.Message, error)
}

// Transfer fetches a message and delivers it to dest. Missing and empty
// messages fail immediately; delivery errors fall through the strategy
// chain and only the last one is reported if every strategy fails.
func (e *Engine) Transfer(ctx context.Context, src *telegram.Channel, dest tg.InputPeerClass, msgID int) (*telegram.Message, error) {
	msg, err := e.messenger.FetchMessage(ctx, src, msgID)
	if err != nil {
		return nil, err
	}
	if msg.Empty() {
		return nil, ErrEmptyMessage
	}

	strategies := []strategy{
		{"manual", e.manual},
		{"duplicate", e.duplicate},
		{"forward", e.forward},
	}

	var lastErr error
	for _, s := range strategies {
		sent, err := s.run(ctx, dest, src, msg)
		if err == nil {
			e.log.Debug().
				Int("message_id", msgID).
				Str("strategy", s.name).
				Str("kind", string(msg.Kind)).
				Msg("relay: message transferred")
			return sent, nil
		}
		if !errors.Is(err, errCannotRebuild) {
			e.log.Warn().Err(err).
				Int("message_id", msgID).
				Str("strategy", s.name).
				Msg("relay: strategy failed, trying next")
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("transfer message %d: %w", msgID, lastErr)
}

// manual rebuilds the message from its parts. Only content the bot can
// reproduce faithfully qualifies; everything else defers to duplication.
func (e *Engine) manual(ctx context.Context, dest tg.InputPeerClass, _ *telegram.Channel, msg *telegram.Message) (*telegram.Message, error) {
	switch {
	case msg.Kind == telegram.KindText:
		return e.messenger.SendText(ctx, dest, msg.Text, msg.Entities)
	case msg.Kind == telegram.KindPoll:
		// a quiz's correct answer is not visible to bots, so a manual
		// rebuild would ship a broken quiz
		if msg.Poll == nil || msg.Poll.Quiz {
			return nil, errCannotRebuild
		}
		return e.messenger.SendPoll(ctx, dest, msg.Poll)
	case msg.Media != nil:
		return e.messenger.SendMedia(ctx, dest, msg.Media, msg.Text, msg.Entities)
	default:
		return nil, errCannotRebuild
	}
}

func (e *Engine) duplicate(ctx context.Context, dest tg.InputPeerClass, src *telegram.Channel, msg *telegram.Message) (*telegram.Message, error) {
	return e.messenger.Duplicate(ctx, dest, src, msg.ID)
}

func (e *Engine) forward(ctx context.Context, dest tg.InputPeerClass, src *telegram.Channel, msg *telegram.Message) (*telegram.Message, error) {
	return e.messenger.Forward(ctx, dest, src, msg.ID)
}
