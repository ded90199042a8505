package update

import (
	"strings"
	"unicode/utf16"

	"github.com/weaveworks/pubbot"
)

// Kind names an update variant.
type Kind string

// The closed set of update kinds.
const (
	KindMessage            Kind = "message"
	KindBotCommand         Kind = "bot_command"
	KindEditedMessage      Kind = "edited_message"
	KindInlineQuery        Kind = "inline_query"
	KindChosenInlineResult Kind = "chosen_inline_result"
	KindCallbackQuery      Kind = "callback_query"
)

// Kinds lists every Kind.
var Kinds = []Kind{
	KindMessage,
	KindBotCommand,
	KindEditedMessage,
	KindInlineQuery,
	KindChosenInlineResult,
	KindCallbackQuery,
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Update is one inbound event. Values are shared between all handlers of a
// dispatch and must not be mutated.
type Update interface {
	// ID is the platform's update_id.
	ID() int64
	Kind() Kind
}

// Message is a new incoming message of any kind.
type Message struct {
	UpdateID int64
	pubbot.Message
}

// ID implements Update.
func (m *Message) ID() int64 { return m.UpdateID }

// Kind implements Update.
func (m *Message) Kind() Kind { return KindMessage }

// BotCommand is a Message starting with a bot command entity.
type BotCommand struct {
	Message
	// Command is the leading "/command" token, possibly suffixed with "@botname".
	Command string
	// Args is the rest of the text, trimmed.
	Args string
}

// Kind implements Update.
func (c *BotCommand) Kind() Kind { return KindBotCommand }

// EditedMessage is a new version of a message that is known to the bot and was edited.
type EditedMessage struct {
	UpdateID int64
	pubbot.Message
}

// ID implements Update.
func (m *EditedMessage) ID() int64 { return m.UpdateID }

// Kind implements Update.
func (m *EditedMessage) Kind() Kind { return KindEditedMessage }

// InlineQuery is a new incoming inline query. The query id is InlineQuery.ID.
type InlineQuery struct {
	UpdateID int64
	pubbot.InlineQuery
}

// ID implements Update.
func (q *InlineQuery) ID() int64 { return q.UpdateID }

// Kind implements Update.
func (q *InlineQuery) Kind() Kind { return KindInlineQuery }

// ChosenInlineResult is the result of an inline query that was chosen by a user.
type ChosenInlineResult struct {
	UpdateID int64
	pubbot.ChosenInlineResult
}

// ID implements Update.
func (r *ChosenInlineResult) ID() int64 { return r.UpdateID }

// Kind implements Update.
func (r *ChosenInlineResult) Kind() Kind { return KindChosenInlineResult }

// CallbackQuery is a new incoming callback query. The query id is CallbackQuery.ID.
type CallbackQuery struct {
	UpdateID int64
	pubbot.CallbackQuery
}

// ID implements Update.
func (q *CallbackQuery) ID() int64 { return q.UpdateID }

// Kind implements Update.
func (q *CallbackQuery) Kind() Kind { return KindCallbackQuery }

// FromMessage builds the variant for a new message: a *BotCommand when any
// bot_command entity starts at offset 0, a *Message otherwise.
func FromMessage(updateID int64, msg *pubbot.Message) Update {
	m := Message{UpdateID: updateID, Message: *msg}
	if msg.Text == "" {
		return &m
	}
	for _, e := range msg.Entities {
		if e.Type != pubbot.EntityBotCommand || e.Offset != 0 {
			continue
		}
		command, rest := splitUTF16(msg.Text, e.Length)
		return &BotCommand{
			Message: m,
			Command: command,
			Args:    strings.TrimSpace(rest),
		}
	}
	return &m
}

// splitUTF16 splits s after n UTF-16 code units, the unit entity offsets are measured in.
func splitUTF16(s string, n int) (string, string) {
	units := utf16.Encode([]rune(s))
	if n > len(units) {
		n = len(units)
	}
	if n < 0 {
		n = 0
	}
	return string(utf16.Decode(units[:n])), string(utf16.Decode(units[n:]))
}
