package pubbot

// InlineKeyboardMarkup is an inline keyboard that appears right next to the message it belongs to.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is one button of an inline keyboard. Exactly one of
// the optional fields must be used.
type InlineKeyboardButton struct {
	Text              string  `json:"text"`
	URL               string  `json:"url,omitempty"`
	CallbackData      string  `json:"callback_data,omitempty"`
	SwitchInlineQuery *string `json:"switch_inline_query,omitempty"`
}

// InputTextMessageContent is the content of a text message to be sent as the result of an inline query.
type InputTextMessageContent struct {
	MessageText           string `json:"message_text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// InlineQueryResultArticle is a link to an article or web page.
type InlineQueryResultArticle struct {
	Type                string                  `json:"type"` // always "article"
	ID                  string                  `json:"id"`
	Title               string                  `json:"title"`
	Description         string                  `json:"description,omitempty"`
	InputMessageContent InputTextMessageContent `json:"input_message_content"`
	ReplyMarkup         *InlineKeyboardMarkup   `json:"reply_markup,omitempty"`
}

// NewArticle makes an article result sending text when chosen.
func NewArticle(id, title, text string) InlineQueryResultArticle {
	return InlineQueryResultArticle{
		Type:                "article",
		ID:                  id,
		Title:               title,
		InputMessageContent: InputTextMessageContent{MessageText: text},
	}
}
