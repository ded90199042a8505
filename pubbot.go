package pubbot

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// EntityBotCommand is the MessageEntity type of a "/command" token.
const EntityBotCommand = "bot_command"

// Time is a point in time transmitted as unix epoch seconds.
type Time struct {
	time.Time
}

// UnmarshalJSON decodes epoch seconds.
func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

// MarshalJSON encodes epoch seconds.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// User is a Telegram user or bot.
// See https://core.telegram.org/bots/api#user
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// BotInfo is what getMe tells us about ourselves.
type BotInfo = User

// DisplayName returns @username when set, the full name otherwise.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Chat is a private chat, group, supergroup or channel.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// MessageEntity is a special entity in a text message: hashtag, url, bot command...
// Offset and Length are counted in UTF-16 code units.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	User   *User  `json:"user,omitempty"`
}

// Location is a point on the map.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Message is a Telegram message. Nested objects we never look into
// (media, contacts, venues) are kept as raw references.
// See https://core.telegram.org/bots/api#message
type Message struct {
	MessageID int64 `json:"message_id"`
	From      *User `json:"from,omitempty"`
	Date      Time  `json:"date"`
	Chat      Chat  `json:"chat"`

	ForwardFrom     *User    `json:"forward_from,omitempty"`
	ForwardFromChat *Chat    `json:"forward_from_chat,omitempty"`
	ForwardDate     *Time    `json:"forward_date,omitempty"`
	ReplyToMessage  *Message `json:"reply_to_message,omitempty"`
	EditDate        *Time    `json:"edit_date,omitempty"`

	Text     string          `json:"text,omitempty"`
	Entities []MessageEntity `json:"entities,omitempty"`

	Audio    json.RawMessage `json:"audio,omitempty"`
	Document json.RawMessage `json:"document,omitempty"`
	Photo    json.RawMessage `json:"photo,omitempty"`
	Sticker  json.RawMessage `json:"sticker,omitempty"`
	Video    json.RawMessage `json:"video,omitempty"`
	Voice    json.RawMessage `json:"voice,omitempty"`
	Caption  string          `json:"caption,omitempty"`
	Contact  json.RawMessage `json:"contact,omitempty"`
	Location *Location       `json:"location,omitempty"`
	Venue    json.RawMessage `json:"venue,omitempty"`

	NewChatMember         *User           `json:"new_chat_member,omitempty"`
	LeftChatMember        *User           `json:"left_chat_member,omitempty"`
	NewChatTitle          string          `json:"new_chat_title,omitempty"`
	NewChatPhoto          json.RawMessage `json:"new_chat_photo,omitempty"`
	DeleteChatPhoto       bool            `json:"delete_chat_photo,omitempty"`
	GroupChatCreated      bool            `json:"group_chat_created,omitempty"`
	SupergroupChatCreated bool            `json:"supergroup_chat_created,omitempty"`
	ChannelChatCreated    bool            `json:"channel_chat_created,omitempty"`
	MigrateToChatID       int64           `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID     int64           `json:"migrate_from_chat_id,omitempty"`
	PinnedMessage         *Message        `json:"pinned_message,omitempty"`
}

// InlineQuery is an incoming inline query.
type InlineQuery struct {
	ID       string    `json:"id"`
	From     User      `json:"from"`
	Location *Location `json:"location,omitempty"`
	Query    string    `json:"query"`
	Offset   string    `json:"offset"`
}

// ChosenInlineResult is an inline query result chosen by a user and sent to their chat partner.
type ChosenInlineResult struct {
	ResultID        string    `json:"result_id"`
	From            User      `json:"from"`
	Location        *Location `json:"location,omitempty"`
	InlineMessageID string    `json:"inline_message_id,omitempty"`
	Query           string    `json:"query"`
}

// CallbackQuery is an incoming callback query from an inline keyboard button.
// At most one of Message and InlineMessageID is set.
type CallbackQuery struct {
	ID              string   `json:"id"`
	From            User     `json:"from"`
	Message         *Message `json:"message,omitempty"`
	InlineMessageID string   `json:"inline_message_id,omitempty"`
	ChatInstance    string   `json:"chat_instance,omitempty"`
	Data            string   `json:"data,omitempty"`
}
