// Package handlers is the bot's behaviour: greeting people and organising
// trips to the pub.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/weaveworks/pubbot"
	"github.com/weaveworks/pubbot/botapi"
	"github.com/weaveworks/pubbot/dispatcher"
	"github.com/weaveworks/pubbot/update"
)

const (
	defaultTitle = "Let's go to the pub!"
	helpText     = `I organise trips to the pub.

/go [title] - announce a trip; people join with the buttons below it
/help - this message

Type my name in any chat to share one of your trips there.`
)

// Register adds every handler of the bot to r.
func Register(r *dispatcher.Registry) {
	r.Add(update.KindMessage, "greeting", Greeting)
	r.Add(update.KindBotCommand, "help", Help, "/start", "/help")
	r.Add(update.KindBotCommand, "new_event", NewEvent, "/go")
	r.Add(update.KindCallbackQuery, "event_buttons", EventButtons)
	r.Add(update.KindInlineQuery, "event_search", SearchEvents)
	r.Add(update.KindChosenInlineResult, "event_shared", EventShared)
}

// Greeting says hello to whoever writes to the bot in a private chat.
func Greeting(deps dispatcher.Deps) dispatcher.Handler {
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		msg := u.(*update.Message)
		if msg.Chat.Type != "private" || msg.Text == "" {
			return nil
		}
		text := "Hello!"
		if msg.From != nil && msg.From.Username != "" {
			text = fmt.Sprintf("Hello, @%s!", msg.From.Username)
		}
		_, err := deps.API.SendMessage(ctx, msg.Chat.ID, text, nil)
		return err
	})
}

// Help answers /start and /help.
func Help(deps dispatcher.Deps) dispatcher.Handler {
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		cmd := u.(*update.BotCommand)
		_, err := deps.API.SendMessage(ctx, cmd.Chat.ID, helpText, &botapi.SendMessageOptions{
			DisableWebPagePreview: true,
		})
		return err
	})
}

// NewEvent handles /go: it creates an event owned by the sender and posts it
// with join and leave buttons.
func NewEvent(deps dispatcher.Deps) dispatcher.Handler {
	events := eventStore{deps.Store}
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		cmd := u.(*update.BotCommand)
		if cmd.From == nil {
			return errors.New("/go without a sender")
		}
		title := cmd.Args
		if title == "" {
			title = defaultTitle
		}

		ev, err := events.create(ctx, title, *cmd.From, cmd.Chat.ID)
		if err != nil {
			return errors.Wrap(err, "creating event")
		}
		text, err := events.render(ctx, ev)
		if err != nil {
			return err
		}
		msg, err := deps.API.SendMessage(ctx, cmd.Chat.ID, text, &botapi.SendMessageOptions{
			ReplyMarkup: keyboard(ev.ID),
		})
		if err != nil {
			return errors.Wrapf(err, "announcing event %s", ev.ID)
		}
		log.Infof("Event %s created by %d in chat %d", ev.ID, ev.Owner, ev.Chat)
		return events.setMessage(ctx, ev.ID, msg.MessageID)
	})
}

// EventButtons handles the event_join, event_leave and event_del buttons.
func EventButtons(deps dispatcher.Deps) dispatcher.Handler {
	events := eventStore{deps.Store}
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		cb := u.(*update.CallbackQuery)
		answer := func(text string, alert bool) error {
			_, err := deps.API.AnswerCallbackQuery(ctx, cb.CallbackQuery.ID, &botapi.AnswerCallbackQueryOptions{
				Text:      text,
				ShowAlert: alert,
			})
			return err
		}

		action, id := parseCallbackData(cb.Data)
		if id == "" {
			return answer("", false)
		}
		ev, err := events.load(ctx, id)
		if err != nil {
			return err
		}
		if ev == nil {
			return answer("This event is over.", false)
		}

		target := botapi.EditTarget{InlineMessageID: cb.InlineMessageID, Message: cb.Message}
		var reply string
		switch action {
		case "join":
			joined, err := events.join(ctx, id, cb.From)
			if err != nil {
				return err
			}
			reply = "See you there!"
			if !joined {
				reply = "You're already going."
			}
		case "leave":
			left, err := events.leave(ctx, id, cb.From)
			if err != nil {
				return err
			}
			reply = "Maybe next time."
			if !left {
				reply = "You weren't going."
			}
		case "del":
			if cb.From.ID != ev.Owner {
				return answer("Only the organiser can cancel this.", true)
			}
			if err := events.remove(ctx, ev); err != nil {
				return errors.Wrapf(err, "removing event %s", id)
			}
			log.Infof("Event %s cancelled by %d", id, cb.From.ID)
			if err := answer("Cancelled.", false); err != nil {
				return err
			}
			_, err := deps.API.EditMessageText(ctx, ev.Title+"\nCancelled.", target, nil)
			return errors.Wrapf(err, "editing event %s", id)
		default:
			return answer("", false)
		}

		if err := answer(reply, false); err != nil {
			return err
		}
		if ev, err = events.load(ctx, id); err != nil || ev == nil {
			return err
		}
		text, err := events.render(ctx, ev)
		if err != nil {
			return err
		}
		_, err = deps.API.EditMessageText(ctx, text, target, &botapi.EditMessageTextOptions{
			ReplyMarkup: keyboard(id),
		})
		return errors.Wrapf(err, "editing event %s", id)
	})
}

// parseCallbackData splits "event_<action>:<id>".
func parseCallbackData(data string) (action, id string) {
	if !strings.HasPrefix(data, "event_") {
		return "", ""
	}
	parts := strings.SplitN(strings.TrimPrefix(data, "event_"), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// SearchEvents answers inline queries with the events the user takes part
// in whose title contains the query.
func SearchEvents(deps dispatcher.Deps) dispatcher.Handler {
	events := eventStore{deps.Store}
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		q := u.(*update.InlineQuery)
		evs, err := events.forUser(ctx, q.From.ID)
		if err != nil {
			return err
		}

		query := strings.ToLower(strings.TrimSpace(q.Query))
		results := []interface{}{}
		for _, ev := range evs {
			if query != "" && !strings.Contains(strings.ToLower(ev.Title), query) {
				continue
			}
			text, err := events.render(ctx, ev)
			if err != nil {
				return err
			}
			article := pubbot.NewArticle(ev.ID, ev.Title, text)
			article.Description = fmt.Sprintf("%d going", len(ev.Participants))
			article.ReplyMarkup = keyboard(ev.ID)
			results = append(results, article)
		}

		cacheTime := 0
		opts := &botapi.AnswerInlineQueryOptions{CacheTime: &cacheTime, IsPersonal: true}
		if len(results) == 0 {
			opts.SwitchPMText = "Organise a trip"
			opts.SwitchPMParameter = "go"
		}
		_, err = deps.API.AnswerInlineQuery(ctx, q.InlineQuery.ID, results, opts)
		return err
	})
}

// EventShared remembers where an event was shared through an inline query.
func EventShared(deps dispatcher.Deps) dispatcher.Handler {
	events := eventStore{deps.Store}
	return dispatcher.HandlerFunc(func(ctx context.Context, u update.Update) error {
		r := u.(*update.ChosenInlineResult)
		if r.InlineMessageID == "" {
			return nil
		}
		return events.addInlineMessage(ctx, r.ResultID, r.InlineMessageID)
	})
}
