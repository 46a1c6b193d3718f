package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/celestix/gotgproto/ext"

	"github.com/tawhid120/Save-restricted-content-bot/internal/link"
	"github.com/tawhid120/Save-restricted-content-bot/internal/relay"
)

func (b *Bot) handleStart(ctx *ext.Context, u *ext.Update) error {
	if _, ok := b.gate(ctx, u); !ok {
		return nil
	}
	b.reply(ctx, u, b.replies.Start)
	return nil
}

func (b *Bot) handleHelp(ctx *ext.Context, u *ext.Update) error {
	if _, ok := b.gate(ctx, u); !ok {
		return nil
	}
	b.reply(ctx, u, b.replies.Help)
	return nil
}

// handleText is the main entry point: a plain message carrying a t.me
// link. Non-link chatter is ignored.
func (b *Bot) handleText(ctx *ext.Context, u *ext.Update) error {
	text := u.EffectiveMessage.Text
	if strings.HasPrefix(text, "/") || !link.HasHost(text) {
		return nil
	}

	user, ok := b.gate(ctx, u)
	if !ok {
		return nil
	}

	loc := b.parserFor(user.ID).Parse(text)
	if loc == nil {
		// distinguish a denied private link from plain garbage
		if b.ownerParser.Parse(text) != nil {
			b.reply(ctx, u, b.replies.PrivateLink)
		} else {
			b.reply(ctx, u, b.replies.BadLink)
		}
		return nil
	}

	return b.transfer(ctx, u, loc)
}

// handleBatch implements /batch_download <from-link> <to-link>.
func (b *Bot) handleBatch(ctx *ext.Context, u *ext.Update) error {
	user, ok := b.gate(ctx, u)
	if !ok {
		return nil
	}

	loc, err := parseBatchArgs(b.parserFor(user.ID), u.EffectiveMessage.Text)
	if err != nil {
		b.reply(ctx, u, b.replies.BatchUsage)
		return nil
	}

	return b.transfer(ctx, u, loc)
}

func (b *Bot) handleCancel(ctx *ext.Context, u *ext.Update) error {
	user, ok := b.gate(ctx, u)
	if !ok {
		return nil
	}

	switch b.coordinator.State().RequestCancel(user.ID) {
	case relay.CancelRequested:
		b.reply(ctx, u, b.replies.CancelAck)
	case relay.CancelAlreadyPending:
		b.reply(ctx, u, b.replies.CancelDup)
	default:
		b.reply(ctx, u, b.replies.NoBatch)
	}
	return nil
}

func (b *Bot) handleStatus(ctx *ext.Context, u *ext.Update) error {
	user, ok := b.gate(ctx, u)
	if !ok {
		return nil
	}

	if b.coordinator.State().Active(user.ID) {
		b.reply(ctx, u, "A batch is running. Use /cancel to stop it.")
	} else {
		b.reply(ctx, u, b.replies.NoBatch)
	}
	return nil
}

// handleTest is owner-only: runs the parser over a fixed set of sample
// links and reports what each one produced.
func (b *Bot) handleTest(ctx *ext.Context, u *ext.Update) error {
	user, ok := b.gate(ctx, u)
	if !ok || user.ID != b.ownerID {
		return nil
	}

	samples := []string{
		"https://t.me/somechannel/123",
		"https://t.me/somechannel/100-110",
		"https://t.me/c/1234567890/123",
		"https://t.me/somechannel/2/203",
		"https://telegram.me/somechannel/5",
		"https://t.me/somechannel",
	}

	var sb strings.Builder
	for _, s := range samples {
		loc := b.ownerParser.Parse(s)
		if loc == nil {
			fmt.Fprintf(&sb, "%s -> no match\n", s)
			continue
		}
		fmt.Fprintf(&sb, "%s -> kind=%s range=%d-%d\n", s, loc.Kind, loc.Start, loc.End)
	}
	b.reply(ctx, u, sb.String())
	return nil
}

// handleDebug is owner-only. Without arguments it dumps runtime
// counters; given a link it parses, resolves and fetches the first
// message and describes what the engine would see.
func (b *Bot) handleDebug(ctx *ext.Context, u *ext.Update) error {
	user, ok := b.gate(ctx, u)
	if !ok || user.ID != b.ownerID {
		return nil
	}

	fields := strings.Fields(u.EffectiveMessage.Text)
	if len(fields) < 2 {
		seen, err := b.users.Count(ctx)
		if err != nil {
			b.log.Warn().Err(err).Msg("bot: counting users failed")
		}
		b.reply(ctx, u, fmt.Sprintf("uptime: %s\nusers seen: %d\nactive batches: %d",
			b.Uptime().Round(time.Second), seen, b.coordinator.State().Count()))
		return nil
	}

	loc := b.ownerParser.Parse(fields[1])
	if loc == nil {
		b.reply(ctx, u, "no link shape matched")
		return nil
	}

	channel, err := b.resolve(ctx, loc)
	if err != nil {
		b.reply(ctx, u, "resolve failed: "+err.Error())
		return nil
	}

	msg, err := b.client.FetchMessage(ctx, channel, loc.Start)
	if err != nil {
		b.reply(ctx, u, fmt.Sprintf("channel %q ok, fetch %d failed: %v", channel.Title, loc.Start, err))
		return nil
	}

	b.reply(ctx, u, fmt.Sprintf("channel %q\nmessage %d: kind=%s text=%d chars media=%t poll=%t empty=%t",
		channel.Title, msg.ID, msg.Kind, len(msg.Text), msg.Media != nil, msg.Poll != nil, msg.Empty()))
	return nil
}

// transfer resolves the channel and runs the locator through the
// coordinator, keeping the user informed via one editable status message.
func (b *Bot) transfer(ctx *ext.Context, u *ext.Update, loc *link.Locator) error {
	user := u.EffectiveUser()
	dest := destPeer(user)

	if b.coordinator.State().Active(user.ID) {
		b.reply(ctx, u, b.replies.BatchRunning)
		return nil
	}

	if err := relay.ValidateRange(loc.Start, loc.End); err != nil {
		b.reply(ctx, u, "Bad range: "+err.Error()+".")
		return nil
	}

	channel, err := b.resolve(ctx, loc)
	if err != nil {
		if v := relay.Classify(err); !v.Suppress {
			b.reply(ctx, u, v.Reply)
		}
		return nil
	}

	working := b.replies.Working
	if !loc.Single() {
		working = fmt.Sprintf("Saving %d messages... Use /cancel to stop.", loc.Size())
	}
	status, err := b.client.SendText(ctx, dest, working, nil)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("bot: status message failed")
		return nil
	}

	edit := func(text string) {
		err := b.client.EditText(ctx, dest, status.ID, text)
		if err != nil {
			if v := relay.Classify(err); !v.Suppress {
				b.log.Warn().Err(err).Msg("bot: status edit failed")
			}
		}
	}

	failed := 0
	summary, err := b.coordinator.Run(ctx, user.ID, channel, dest, loc.Start, loc.End,
		func(done, total int, err error) {
			if err != nil {
				failed++
			}
			if !loc.Single() && done < total {
				edit(progressText(done, total, failed))
			}
		})
	if err != nil {
		if err == relay.ErrBatchRunning {
			edit(b.replies.BatchRunning)
		} else {
			edit("Something went wrong. Try again later.")
		}
		return nil
	}

	edit(summaryText(summary))
	return nil
}

// parseBatchArgs validates "/batch_download <from> <to>": two single
// message links into the same channel, spanning at most the batch limit.
func parseBatchArgs(p *link.Parser, text string) (*link.Locator, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 2 links, got %d", len(fields)-1)
	}

	from := p.Parse(fields[1])
	to := p.Parse(fields[2])
	if from == nil || to == nil {
		return nil, fmt.Errorf("unparseable link")
	}
	if !from.Single() || !to.Single() {
		return nil, fmt.Errorf("range links are not allowed here")
	}
	if from.Handle != to.Handle || from.ChatID != to.ChatID {
		return nil, fmt.Errorf("links point to different channels")
	}
	if to.Start < from.Start {
		return nil, relay.ErrInvertedRange
	}

	loc := *from
	loc.End = to.Start
	return &loc, nil
}
