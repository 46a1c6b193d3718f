package telegram

import (
	"github.com/gotd/td/tg"
)

// Kind discriminates message content for type-directed resending.
type Kind string

const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindDocument  Kind = "document"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindSticker   Kind = "sticker"
	KindAnimation Kind = "animation"
	KindPoll      Kind = "poll"
	KindUnknown   Kind = "unknown"
)

// Channel identifies a resolved source channel.
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // username without @, empty for private channels
	Title      string // channel title
}

// InputPeer returns the peer reference for api calls.
func (c *Channel) InputPeer() tg.InputPeerClass {
	return &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
}

// Poll is the payload needed to rebuild a poll message.
type Poll struct {
	Question        string
	Options         []string
	Anonymous       bool
	MultipleChoice  bool
	Quiz            bool
	CorrectOption   int // index into Options; -1 when not retrievable
	Explanation     string
	ClosePeriodSecs int
	CloseDate       int
}

// Message is the slice of a fetched telegram message the relay needs:
// a content kind, text or caption with its formatting entities, a
// re-sendable media reference, and a poll payload when applicable.
type Message struct {
	ID       int
	Kind     Kind
	Text     string // message text, or caption for media kinds
	Entities []tg.MessageEntityClass
	Media    tg.InputMediaClass // file reference for media kinds, nil otherwise
	Poll     *Poll
}

// Empty reports whether the message carries nothing worth copying:
// no text, no caption, no media, no poll.
func (m *Message) Empty() bool {
	return m.Text == "" && m.Media == nil && m.Poll == nil
}

// classify converts a raw api message into our Message, deciding its
// content kind from the media payload and document attributes.
func classify(raw *tg.Message) *Message {
	msg := &Message{
		ID:       raw.ID,
		Kind:     KindText,
		Text:     raw.Message,
		Entities: raw.Entities,
	}

	switch media := raw.Media.(type) {
	case nil:
		if raw.Message == "" {
			msg.Kind = KindUnknown
		}
	case *tg.MessageMediaPhoto:
		photo, ok := media.Photo.(*tg.Photo)
		if !ok {
			msg.Kind = KindUnknown
			return msg
		}
		msg.Kind = KindPhoto
		msg.Media = &tg.InputMediaPhoto{ID: &tg.InputPhoto{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
		}}
	case *tg.MessageMediaDocument:
		doc, ok := media.Document.(*tg.Document)
		if !ok {
			msg.Kind = KindUnknown
			return msg
		}
		msg.Kind = documentKind(doc)
		msg.Media = &tg.InputMediaDocument{ID: &tg.InputDocument{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}}
	case *tg.MessageMediaPoll:
		msg.Kind = KindPoll
		msg.Poll = parsePoll(&media.Poll, &media.Results)
	default:
		msg.Kind = KindUnknown
	}

	return msg
}

// documentKind narrows a generic document to video/audio/voice/sticker/
// animation based on its attributes. A gif carries both a video and an
// animated attribute, so all attributes are inspected before deciding.
func documentKind(doc *tg.Document) Kind {
	kind := KindDocument
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeSticker:
			return KindSticker
		case *tg.DocumentAttributeAnimated:
			return KindAnimation
		case *tg.DocumentAttributeVideo:
			kind = KindVideo
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				return KindVoice
			}
			kind = KindAudio
		}
	}
	return kind
}

// parsePoll extracts a rebuildable poll payload. The correct-option index
// of a quiz is only present when the results carry a Correct flag; for
// channel polls fetched by a bot it usually is not, and CorrectOption
// stays -1.
func parsePoll(poll *tg.Poll, results *tg.PollResults) *Poll {
	p := &Poll{
		Question:        poll.Question.Text,
		Anonymous:       !poll.PublicVoters,
		MultipleChoice:  poll.MultipleChoice,
		Quiz:            poll.Quiz,
		CorrectOption:   -1,
		ClosePeriodSecs: poll.ClosePeriod,
		CloseDate:       poll.CloseDate,
	}
	for _, a := range poll.Answers {
		p.Options = append(p.Options, a.Text.Text)
	}
	if results != nil {
		p.Explanation = results.Solution
		for i, r := range results.Results {
			if r.Correct && i < len(p.Options) {
				p.CorrectOption = i
			}
		}
	}
	return p
}
