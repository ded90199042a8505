package update

import (
	"encoding/json"

	"github.com/weaveworks/pubbot"
)

// DecodeError is returned for payloads that are not a JSON update object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decoding update: " + e.Err.Error()
}

// Cause returns the underlying error.
func (e *DecodeError) Cause() error {
	return e.Err
}

type rawUpdate struct {
	UpdateID           int64                      `json:"update_id"`
	Message            *pubbot.Message            `json:"message"`
	EditedMessage      *pubbot.Message            `json:"edited_message"`
	InlineQuery        *pubbot.InlineQuery        `json:"inline_query"`
	ChosenInlineResult *pubbot.ChosenInlineResult `json:"chosen_inline_result"`
	CallbackQuery      *pubbot.CallbackQuery      `json:"callback_query"`
}

// Decode turns a raw update into its variant. When several variant keys are
// present the first of message, edited_message, inline_query,
// chosen_inline_result and callback_query wins. A payload with none of them
// yields a nil Update and no error.
func Decode(data []byte) (Update, error) {
	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}
	switch {
	case raw.Message != nil:
		return FromMessage(raw.UpdateID, raw.Message), nil
	case raw.EditedMessage != nil:
		return &EditedMessage{UpdateID: raw.UpdateID, Message: *raw.EditedMessage}, nil
	case raw.InlineQuery != nil:
		return &InlineQuery{UpdateID: raw.UpdateID, InlineQuery: *raw.InlineQuery}, nil
	case raw.ChosenInlineResult != nil:
		return &ChosenInlineResult{UpdateID: raw.UpdateID, ChosenInlineResult: *raw.ChosenInlineResult}, nil
	case raw.CallbackQuery != nil:
		return &CallbackQuery{UpdateID: raw.UpdateID, CallbackQuery: *raw.CallbackQuery}, nil
	}
	return nil, nil
}
