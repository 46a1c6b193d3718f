// Package telegram wraps the MTProto client with the high-level message
// operations the relay needs.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"

	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
)

var (
	// ErrNotFound is returned when a message id does not exist in the
	// source channel (or has been deleted).
	ErrNotFound = errors.New("message not found")

	// ErrChannelNotFound is returned when a username or chat id does not
	// resolve to an accessible channel.
	ErrChannelNotFound = errors.New("channel not found")
)

// Client wraps a gotgproto bot client. Every API call goes through the
// rate limiter; FLOOD_WAIT responses feed back into it.
type Client struct {
	proto       *gotgproto.Client
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a client wrapper around an authorized bot client.
func NewClient(proto *gotgproto.Client) *Client {
	return &Client{
		proto:       proto,
		rateLimiter: DefaultRateLimiter(),
		log:         logger.Component("telegram"),
	}
}

// Proto exposes the underlying client for dispatcher registration.
func (c *Client) Proto() *gotgproto.Client {
	return c.proto
}

// Self returns the bot's own user.
func (c *Client) Self() *tg.User {
	return c.proto.Self
}

func (c *Client) api() *tg.Client {
	return c.proto.API()
}

// wait blocks on the rate limiter before an API call.
func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.log.Error().Err(err).Msg("telegram: rate limiter wait failed")
		return err
	}
	return nil
}

// noteFloodWait feeds any FLOOD_WAIT pause in an API error into the
// rate limiter.
func (c *Client) noteFloodWait(err error) {
	if wait := c.rateLimiter.NoteError(err); wait > 0 {
		c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected, pausing requests")
	}
}

// ResolveChannel resolves a public channel username, with or without the
// @ prefix.
func (c *Client) ResolveChannel(ctx context.Context, username string) (*Channel, error) {
	username = strings.TrimPrefix(username, "@")

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Str("username", username).Msg("telegram: resolving channel username")
	resolved, err := c.api().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}

	if len(resolved.Chats) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, username)
	}

	ch, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return nil, fmt.Errorf("not a channel: %s", username)
	}

	return &Channel{
		ID:         ch.ID,
		AccessHash: ch.AccessHash,
		Username:   username,
		Title:      ch.Title,
	}, nil
}

// ResolvePrivate resolves a -100-prefixed chat id as captured from a
// t.me/c/ link. The bot must already know the channel (be a member) for
// this to succeed.
func (c *Client) ResolvePrivate(ctx context.Context, chatID int64) (*Channel, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	channelID := internalChannelID(chatID)
	if channelID == 0 {
		return nil, fmt.Errorf("%w: %d", ErrChannelNotFound, chatID)
	}

	chats, err := c.api().ChannelsGetChannels(ctx, []tg.InputChannelClass{
		&tg.InputChannel{ChannelID: channelID},
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("get channel %d: %w", chatID, err)
	}

	for _, chat := range chats.GetChats() {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == channelID {
			return &Channel{
				ID:         ch.ID,
				AccessHash: ch.AccessHash,
				Title:      ch.Title,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %d", ErrChannelNotFound, chatID)
}

// FetchMessage fetches a single message from a channel by id.
// Returns ErrNotFound when the id names no message.
func (c *Client) FetchMessage(ctx context.Context, ch *Channel, msgID int) (*Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Int64("channel_id", ch.ID).Int("message_id", msgID).Msg("telegram: fetching message")
	res, err := c.api().ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: msgID}},
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("get message %d: %w", msgID, err)
	}

	var raw []tg.MessageClass
	switch msgs := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = msgs.Messages
	case *tg.MessagesMessages:
		raw = msgs.Messages
	}

	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	switch m := raw[0].(type) {
	case *tg.Message:
		return classify(m), nil
	case *tg.MessageService:
		// service messages carry nothing worth copying; surface them as
		// present-but-empty so the caller reports "empty", not "not found"
		return &Message{ID: m.ID, Kind: KindUnknown}, nil
	default:
		return nil, ErrNotFound
	}
}

// SendText sends a text message, carrying over formatting entities.
func (c *Client) SendText(ctx context.Context, dest tg.InputPeerClass, text string, entities []tg.MessageEntityClass) (*Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	updates, err := c.api().MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     dest,
		Message:  text,
		Entities: entities,
		RandomID: rand.Int63(),
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("send text: %w", err)
	}

	return sentMessage(updates), nil
}

// SendMedia re-sends a media payload by file reference, with an optional
// caption and its formatting entities.
func (c *Client) SendMedia(ctx context.Context, dest tg.InputPeerClass, media tg.InputMediaClass, caption string, entities []tg.MessageEntityClass) (*Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	updates, err := c.api().MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     dest,
		Media:    media,
		Message:  caption,
		Entities: entities,
		RandomID: rand.Int63(),
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("send media: %w", err)
	}

	return sentMessage(updates), nil
}

// SendPoll rebuilds a poll in the destination chat from its payload.
func (c *Client) SendPoll(ctx context.Context, dest tg.InputPeerClass, p *Poll) (*Message, error) {
	poll := tg.Poll{
		Question:       tg.TextWithEntities{Text: p.Question},
		PublicVoters:   !p.Anonymous,
		MultipleChoice: p.MultipleChoice,
		Quiz:           p.Quiz,
		ClosePeriod:    p.ClosePeriodSecs,
		CloseDate:      p.CloseDate,
	}
	for i, opt := range p.Options {
		poll.Answers = append(poll.Answers, tg.PollAnswer{
			Text:   tg.TextWithEntities{Text: opt},
			Option: []byte{byte(i)},
		})
	}

	media := &tg.InputMediaPoll{Poll: poll}
	if p.Quiz && p.CorrectOption >= 0 {
		media.SetCorrectAnswers([][]byte{{byte(p.CorrectOption)}})
	}
	if p.Explanation != "" {
		media.SetSolution(p.Explanation)
		media.SetSolutionEntities([]tg.MessageEntityClass{})
	}

	return c.SendMedia(ctx, dest, media, "", nil)
}

// Duplicate copies a message by reference without attribution - forward
// with DropAuthor, the platform's copy primitive.
func (c *Client) Duplicate(ctx context.Context, dest tg.InputPeerClass, src *Channel, msgID int) (*Message, error) {
	return c.forward(ctx, dest, src, msgID, true)
}

// Forward forwards a message by reference, keeping attribution to the
// source channel.
func (c *Client) Forward(ctx context.Context, dest tg.InputPeerClass, src *Channel, msgID int) (*Message, error) {
	return c.forward(ctx, dest, src, msgID, false)
}

func (c *Client) forward(ctx context.Context, dest tg.InputPeerClass, src *Channel, msgID int, dropAuthor bool) (*Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	updates, err := c.api().MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer:   src.InputPeer(),
		ToPeer:     dest,
		ID:         []int{msgID},
		RandomID:   []int64{rand.Int63()},
		DropAuthor: dropAuthor,
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("forward message %d: %w", msgID, err)
	}

	return sentMessage(updates), nil
}

// EditText edits a message the bot previously sent. The raw
// MESSAGE_NOT_MODIFIED error passes through for the caller to classify.
func (c *Client) EditText(ctx context.Context, dest tg.InputPeerClass, msgID int, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	_, err := c.api().MessagesEditMessage(ctx, &tg.MessagesEditMessageRequest{
		Peer:    dest,
		ID:      msgID,
		Message: text,
	})
	if err != nil {
		c.noteFloodWait(err)
		return fmt.Errorf("edit message %d: %w", msgID, err)
	}
	return nil
}

// internalChannelID strips the -100 prefix off a chat id as captured
// from a t.me/c/ link. The prefix is textual, so the inversion has to be
// textual too: arithmetic only works for 10-digit channel ids. Returns 0
// for ids that never carried the prefix.
func internalChannelID(chatID int64) int64 {
	s := strconv.FormatInt(-chatID, 10)
	rest := strings.TrimPrefix(s, "100")
	if rest == s || rest == "" {
		return 0
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// sentMessage extracts the produced message from a send/forward response.
func sentMessage(updates tg.UpdatesClass) *Message {
	switch upd := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return &Message{ID: upd.ID, Kind: KindText}
	case *tg.Updates:
		var msgID int
		for _, u := range upd.Updates {
			switch v := u.(type) {
			case *tg.UpdateNewMessage:
				if m, ok := v.Message.(*tg.Message); ok {
					return classify(m)
				}
			case *tg.UpdateNewChannelMessage:
				if m, ok := v.Message.(*tg.Message); ok {
					return classify(m)
				}
			case *tg.UpdateMessageID:
				msgID = v.ID
			}
		}
		return &Message{ID: msgID, Kind: KindUnknown}
	}
	return &Message{Kind: KindUnknown}
}

