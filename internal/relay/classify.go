package relay

import "strings"

// Verdict is the user-facing interpretation of a transfer error.
type Verdict struct {
	// Reply is the text to show the requesting user.
	Reply string
	// Suppress marks errors that need no user-visible reaction at all.
	Suppress bool
}

// rule maps an API error substring to a reply. Rules are checked in
// order and the first match wins, so more specific codes come first.
type rule struct {
	code  string
	reply string
}

var rules = []rule{
	{"MESSAGE_NOT_MODIFIED", ""},
	{"CHAT_ADMIN_REQUIRED", "The bot needs admin rights in the source channel to do that."},
	{"USER_NOT_PARTICIPANT", "The bot is not a member of that channel. Add it first."},
	{"MESSAGE_ID_INVALID", "That message does not exist. Check the link and try again."},
	{"CHANNEL_PRIVATE", "That channel is private or the bot was banned from it."},
	{"PEER_ID_INVALID", "Cannot reach that chat. The link may point to a private channel."},
	{"CHAT_WRITE_FORBIDDEN", "The bot is not allowed to write to the destination chat."},
	{"FLOOD_WAIT", "Telegram is rate limiting the bot. Wait a bit and try again."},
	{"message not found", "That message does not exist. Check the link and try again."},
	{"message is empty", "That message has no transferable content (it may be a service message)."},
	{"channel not found", "Could not find that channel. Check the link and try again."},
}

// Classify turns a transfer error into the reply shown to the user.
// Unknown errors pass through verbatim so the raw code stays diagnosable
// from the chat itself.
func Classify(err error) Verdict {
	if err == nil {
		return Verdict{Suppress: true}
	}

	text := err.Error()
	for _, r := range rules {
		if strings.Contains(text, r.code) {
			if r.reply == "" {
				return Verdict{Suppress: true}
			}
			return Verdict{Reply: r.reply}
		}
	}

	return Verdict{Reply: "Transfer failed: " + text}
}
