package botapi

import (
	"context"
	"io"

	"github.com/weaveworks/pubbot"
)

//go:generate mockgen -destination=mock_botapi/mock_botapi.go github.com/weaveworks/pubbot/botapi API

// API defines methods to interact with the Telegram Bot API.
type API interface {
	GetMe(ctx context.Context) (*pubbot.User, error)
	SetWebhook(ctx context.Context, url string, certificate *InputFile) (bool, error)
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendMessageOptions) (*pubbot.Message, error)
	EditMessageText(ctx context.Context, text string, target EditTarget, opts *EditMessageTextOptions) (*pubbot.Message, error)
	AnswerInlineQuery(ctx context.Context, inlineQueryID string, results []interface{}, opts *AnswerInlineQueryOptions) (bool, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string, opts *AnswerCallbackQueryOptions) (bool, error)
}

// InputFile is a file uploaded as a multipart form part.
type InputFile struct {
	Name   string
	Reader io.Reader
}

// SendMessageOptions are the optional parameters of sendMessage.
// Zero values are not transmitted.
type SendMessageOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	DisableNotification   bool
	ReplyToMessageID      int64
	ReplyMarkup           interface{}
}

// EditTarget addresses the message to edit. InlineMessageID takes precedence
// over Message, which takes precedence over the ChatID and MessageID pair.
type EditTarget struct {
	InlineMessageID string
	Message         *pubbot.Message
	ChatID          int64
	MessageID       int64
}

// EditMessageTextOptions are the optional parameters of editMessageText.
type EditMessageTextOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	ReplyMarkup           interface{}
}

// AnswerInlineQueryOptions are the optional parameters of answerInlineQuery.
// CacheTime is a pointer since zero is a meaningful value.
type AnswerInlineQueryOptions struct {
	CacheTime         *int
	IsPersonal        bool
	NextOffset        string
	SwitchPMText      string
	SwitchPMParameter string
}

// AnswerCallbackQueryOptions are the optional parameters of answerCallbackQuery.
type AnswerCallbackQueryOptions struct {
	Text      string
	ShowAlert bool
}
