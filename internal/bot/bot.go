// package bot wires the Telegram update handlers: link messages, batch
// commands and the small operator surface.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/ext"
	"github.com/gotd/td/tg"

	"github.com/tawhid120/Save-restricted-content-bot/internal/config"
	"github.com/tawhid120/Save-restricted-content-bot/internal/link"
	"github.com/tawhid120/Save-restricted-content-bot/internal/logger"
	"github.com/tawhid120/Save-restricted-content-bot/internal/relay"
	"github.com/tawhid120/Save-restricted-content-bot/internal/telegram"
	"github.com/tawhid120/Save-restricted-content-bot/internal/users"
)

// Bot holds everything the update handlers need.
type Bot struct {
	client      *telegram.Client
	parser      *link.Parser
	ownerParser *link.Parser
	coordinator *relay.Coordinator
	users       *users.Store
	replies     *config.Replies
	ownerID     int64
	startedAt   time.Time
	log         *logger.Logger
}

// New creates the bot. store may be nil when no database is configured.
func New(client *telegram.Client, coordinator *relay.Coordinator, store *users.Store, replies *config.Replies, ownerID int64) *Bot {
	return &Bot{
		client:      client,
		parser:      link.NewParser(link.PolicyPublicOnly),
		ownerParser: link.NewParser(link.PolicyAll),
		coordinator: coordinator,
		users:       store,
		replies:     replies,
		ownerID:     ownerID,
		startedAt:   time.Now(),
		log:         logger.Component("bot"),
	}
}

// Run registers the handlers and blocks until the client stops.
func (b *Bot) Run() error {
	b.registerHandlers()
	b.log.Info().Str("username", b.client.Self().Username).Msg("bot: handlers registered, idling")
	return b.client.Proto().Idle()
}

func (b *Bot) registerHandlers() {
	d := b.client.Proto().Dispatcher
	d.AddHandler(handlers.NewCommand("start", b.handleStart))
	d.AddHandler(handlers.NewCommand("help", b.handleHelp))
	d.AddHandler(handlers.NewCommand("batch_download", b.handleBatch))
	d.AddHandler(handlers.NewCommand("cancel", b.handleCancel))
	d.AddHandler(handlers.NewCommand("status", b.handleStatus))
	d.AddHandler(handlers.NewCommand("test", b.handleTest))
	d.AddHandler(handlers.NewCommand("debug", b.handleDebug))
	d.AddHandler(handlers.NewMessage(filters.Message.Text, b.handleText))
}

// Uptime reports how long the bot has been running.
func (b *Bot) Uptime() time.Duration {
	return time.Since(b.startedAt)
}

// gate runs the shared per-update checks. It returns false when the
// update must be ignored, replying to the user where appropriate.
func (b *Bot) gate(ctx *ext.Context, u *ext.Update) (*tg.User, bool) {
	user := u.EffectiveUser()
	if user == nil || user.Bot || user.ID == b.client.Self().ID {
		return nil, false
	}

	if b.users.IsBanned(ctx, user.ID) {
		b.reply(ctx, u, b.replies.Banned)
		return nil, false
	}

	if err := b.users.Record(ctx, user.ID, user.Username, user.FirstName); err != nil {
		b.log.Warn().Err(err).Int64("user_id", user.ID).Msg("bot: recording user failed")
	}

	return user, true
}

// parserFor gives the owner access to private channel links.
func (b *Bot) parserFor(userID int64) *link.Parser {
	if b.ownerID != 0 && userID == b.ownerID {
		return b.ownerParser
	}
	return b.parser
}

func (b *Bot) reply(ctx *ext.Context, u *ext.Update, msg string) {
	if _, err := ctx.Reply(u, ext.ReplyTextString(msg), &ext.ReplyOpts{}); err != nil {
		b.log.Error().Err(err).Int64("user_id", u.EffectiveUser().ID).Msg("bot: reply failed")
	}
}

// destPeer is the requester's private chat.
func destPeer(user *tg.User) tg.InputPeerClass {
	return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}
}

// resolve turns a locator into a channel the client can read from.
func (b *Bot) resolve(ctx context.Context, loc *link.Locator) (*telegram.Channel, error) {
	if loc.Private() {
		return b.client.ResolvePrivate(ctx, loc.ChatID)
	}
	return b.client.ResolveChannel(ctx, loc.Handle)
}

// progressText renders the in-flight status message line.
func progressText(done, total, failed int) string {
	if failed > 0 {
		return fmt.Sprintf("Saving... %d/%d (%d failed)", done, total, failed)
	}
	return fmt.Sprintf("Saving... %d/%d", done, total)
}

// summaryText renders the terminal status message line.
func summaryText(s *relay.Summary) string {
	switch {
	case s.Cancelled:
		return fmt.Sprintf("Cancelled. Saved %d of %d.", s.Succeeded, s.Requested)
	case s.Failed == 0:
		return fmt.Sprintf("Done. Saved %d message(s).", s.Succeeded)
	default:
		text := fmt.Sprintf("Done. Saved %d of %d, %d failed.", s.Succeeded, s.Requested, s.Failed)
		if s.LastError != nil {
			if v := relay.Classify(s.LastError); !v.Suppress {
				text += "\nLast error: " + v.Reply
			}
		}
		return text
	}
}
