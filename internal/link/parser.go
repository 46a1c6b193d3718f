// Package link parses Telegram message links into structured locators.
package link

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind of the channel reference a locator points at.
type Kind string

const (
	KindPublic       Kind = "public"
	KindPublicTopic  Kind = "public_topic"
	KindPrivate      Kind = "private"
	KindPrivateTopic Kind = "private_topic"
)

// Locator is the parsed form of a message link.
// Start and End are inclusive message id bounds; they are equal for a
// single-message link. Start <= End is NOT guaranteed here - bound
// validation belongs to the batch coordinator.
type Locator struct {
	Kind    Kind
	Handle  string // public channel username, empty for private links
	ChatID  int64  // -100-prefixed chat id for private links, 0 otherwise
	TopicID int    // forum topic id, 0 when the link has none
	Start   int
	End     int
}

// Policy restricts which link shapes a Parser accepts.
type Policy int

const (
	// PolicyAll accepts every known shape, private and topic links included.
	PolicyAll Policy = iota
	// PolicyPublicOnly rejects private and topic links outright.
	// This is the shipped policy: the bot serves public channels only.
	PolicyPublicOnly
)

// linkRe matches a telegram message link embedded in free text.
var linkRe = regexp.MustCompile(`https?://(?:t\.me|telegram\.me)/\S+`)

// Extract returns the first telegram link found in text, or "".
func Extract(text string) string {
	return linkRe.FindString(text)
}

// HasHost reports whether text mentions a telegram link host at all.
// Used as a cheap gate before Extract.
func HasHost(text string) bool {
	return strings.Contains(text, "t.me/") || strings.Contains(text, "telegram.me/")
}

// shape couples a pattern with the locator it produces.
type shape struct {
	re    *regexp.Regexp
	build func(m []string) *Locator
}

const host = `https?://(?:t\.me|telegram\.me)`

// Shapes are ordered: every range pattern precedes every single-message
// pattern (a single-message pattern would otherwise consume the left half
// of a range expression), and within each group more path segments come
// first so a 3-segment link is never read as a 2-segment one.
var shapes = []shape{
	// private topic range: t.me/c/1234567890/2/100-110
	{regexp.MustCompile(`^` + host + `/c/(\d+)/(\d+)/(\d+)-(\d+)$`), func(m []string) *Locator {
		return &Locator{Kind: KindPrivateTopic, ChatID: privateChatID(m[1]), TopicID: atoi(m[2]), Start: atoi(m[3]), End: atoi(m[4])}
	}},
	// private range: t.me/c/1234567890/100-110
	{regexp.MustCompile(`^` + host + `/c/(\d+)/(\d+)-(\d+)$`), func(m []string) *Locator {
		return &Locator{Kind: KindPrivate, ChatID: privateChatID(m[1]), Start: atoi(m[2]), End: atoi(m[3])}
	}},
	// public topic range: t.me/channel/2/100-110
	{regexp.MustCompile(`^` + host + `/([^/]+)/(\d+)/(\d+)-(\d+)$`), func(m []string) *Locator {
		return &Locator{Kind: KindPublicTopic, Handle: m[1], TopicID: atoi(m[2]), Start: atoi(m[3]), End: atoi(m[4])}
	}},
	// public range: t.me/channel/100-110
	{regexp.MustCompile(`^` + host + `/([^/]+)/(\d+)-(\d+)$`), func(m []string) *Locator {
		return &Locator{Kind: KindPublic, Handle: m[1], Start: atoi(m[2]), End: atoi(m[3])}
	}},
	// private topic: t.me/c/1234567890/2/100
	{regexp.MustCompile(`^` + host + `/c/(\d+)/(\d+)/(\d+)$`), func(m []string) *Locator {
		id := atoi(m[3])
		return &Locator{Kind: KindPrivateTopic, ChatID: privateChatID(m[1]), TopicID: atoi(m[2]), Start: id, End: id}
	}},
	// private: t.me/c/1234567890/100
	{regexp.MustCompile(`^` + host + `/c/(\d+)/(\d+)$`), func(m []string) *Locator {
		id := atoi(m[2])
		return &Locator{Kind: KindPrivate, ChatID: privateChatID(m[1]), Start: id, End: id}
	}},
	// public topic: t.me/channel/2/100
	{regexp.MustCompile(`^` + host + `/([^/]+)/(\d+)/(\d+)$`), func(m []string) *Locator {
		id := atoi(m[3])
		return &Locator{Kind: KindPublicTopic, Handle: m[1], TopicID: atoi(m[2]), Start: id, End: id}
	}},
	// public: t.me/channel/100
	{regexp.MustCompile(`^` + host + `/([^/]+)/(\d+)$`), func(m []string) *Locator {
		id := atoi(m[2])
		return &Locator{Kind: KindPublic, Handle: m[1], Start: id, End: id}
	}},
}

// Parser classifies raw link strings against the known shapes.
type Parser struct {
	policy Policy
}

// NewParser creates a parser with the given policy.
func NewParser(policy Policy) *Parser {
	return &Parser{policy: policy}
}

// Parse takes a message text, finds the first embedded link and returns
// its locator, or nil when no accepted shape matches. Whitespace is
// stripped before extraction so range inputs like "t.me/ch/101 - 120"
// still parse. No case normalization is done; handles and hosts pass
// through as written.
func (p *Parser) Parse(text string) *Locator {
	text = Extract(strings.ReplaceAll(strings.TrimSpace(text), " ", ""))
	if text == "" {
		return nil
	}

	for _, s := range shapes {
		m := s.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		loc := s.build(m)
		if !loc.wellFormed() {
			return nil
		}
		if !p.allowed(loc.Kind) {
			// Restricted shapes are rejected by policy even though they
			// matched syntactically. No later shape may claim the string.
			return nil
		}
		return loc
	}
	return nil
}

func (p *Parser) allowed(k Kind) bool {
	if p.policy == PolicyAll {
		return true
	}
	return k == KindPublic
}

// privateChatID turns the numeric path segment of a t.me/c/ link into the
// real chat id: the digits prefixed with "-100", parsed as a signed
// integer. The captured digits alone name a different chat entirely.
func privateChatID(digits string) int64 {
	id, err := strconv.ParseInt("-100"+digits, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// atoi maps unparseable digit runs (ids beyond int range) to 0, which
// wellFormed then rejects.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// wellFormed rejects locators whose numeric segments did not survive
// parsing: message ids and topic ids are at least 1 on the platform, and
// a private chat id always carries the -100 prefix.
func (l *Locator) wellFormed() bool {
	if l.Start < 1 || l.End < 1 {
		return false
	}
	if l.TopicID < 0 || (l.Kind == KindPublicTopic || l.Kind == KindPrivateTopic) && l.TopicID < 1 {
		return false
	}
	if l.Private() && l.ChatID >= 0 {
		return false
	}
	return true
}

// Size returns the number of messages the locator spans, assuming
// Start <= End.
func (l *Locator) Size() int {
	return l.End - l.Start + 1
}

// Single reports whether the locator names exactly one message.
func (l *Locator) Single() bool {
	return l.Start == l.End
}

// Private reports whether the locator uses a numeric chat id.
func (l *Locator) Private() bool {
	return l.Kind == KindPrivate || l.Kind == KindPrivateTopic
}

// String renders the canonical link for the locator. Parsing the result
// yields an equal locator.
func (l *Locator) String() string {
	var b strings.Builder
	b.WriteString("https://t.me/")
	if l.Private() {
		// strip the -100 prefix back off; it was prepended as a string,
		// so arithmetic would be wrong for ids shorter than 10 digits
		b.WriteString("c/")
		b.WriteString(strings.TrimPrefix(strconv.FormatInt(-l.ChatID, 10), "100"))
	} else {
		b.WriteString(l.Handle)
	}
	if l.TopicID != 0 {
		fmt.Fprintf(&b, "/%d", l.TopicID)
	}
	if l.Single() {
		fmt.Fprintf(&b, "/%d", l.Start)
	} else {
		fmt.Fprintf(&b, "/%d-%d", l.Start, l.End)
	}
	return b.String()
}
