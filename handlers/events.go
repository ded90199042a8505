package handlers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/weaveworks/pubbot"
	"github.com/weaveworks/pubbot/store"
)

const nextEventID = "event:next_id"

func eventKey(id, field string) string { return fmt.Sprintf("event:%s:%s", id, field) }
func userKey(id int64, field string) string { return fmt.Sprintf("user:%d:%s", id, field) }
func chatKey(id int64, field string) string { return fmt.Sprintf("chat:%d:%s", id, field) }

// event is a trip to the pub somebody organised with /go.
type event struct {
	ID           string
	Title        string
	Owner        int64
	Chat         int64
	Participants []int64
}

// eventStore keeps events in the store:
//
//   event:<id>:title, :owner, :chat, :message   values
//   event:<id>:participants, :inline              sets
//   chat:<id>:events, user:<id>:events            indexes
//   user:<id>:name                                display name
type eventStore struct {
	store store.Store
}

func (e eventStore) create(ctx context.Context, title string, owner pubbot.User, chatID int64) (*event, error) {
	n, err := e.store.Incr(ctx, nextEventID)
	if err != nil {
		return nil, errors.Wrap(err, "allocating event id")
	}
	ev := &event{
		ID:           strconv.FormatInt(n, 10),
		Title:        title,
		Owner:        owner.ID,
		Chat:         chatID,
		Participants: []int64{owner.ID},
	}
	for _, kv := range [][2]string{
		{eventKey(ev.ID, "title"), title},
		{eventKey(ev.ID, "owner"), strconv.FormatInt(owner.ID, 10)},
		{eventKey(ev.ID, "chat"), strconv.FormatInt(chatID, 10)},
	} {
		if err := e.store.Set(ctx, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	if _, err := e.store.SAdd(ctx, chatKey(chatID, "events"), ev.ID); err != nil {
		return nil, err
	}
	if _, err := e.join(ctx, ev.ID, owner); err != nil {
		return nil, err
	}
	return ev, nil
}

// load returns nil if the event does not exist.
func (e eventStore) load(ctx context.Context, id string) (*event, error) {
	values, err := e.store.MGet(ctx, eventKey(id, "title"), eventKey(id, "owner"), eventKey(id, "chat"))
	if err != nil {
		return nil, err
	}
	if values[0] == nil {
		return nil, nil
	}
	ev := &event{ID: id, Title: *values[0]}
	if values[1] != nil {
		ev.Owner, _ = strconv.ParseInt(*values[1], 10, 64)
	}
	if values[2] != nil {
		ev.Chat, _ = strconv.ParseInt(*values[2], 10, 64)
	}
	members, err := e.store.SMembers(ctx, eventKey(id, "participants"))
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		uid, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ev.Participants = append(ev.Participants, uid)
	}
	sort.Slice(ev.Participants, func(i, j int) bool { return ev.Participants[i] < ev.Participants[j] })
	return ev, nil
}

func (e eventStore) join(ctx context.Context, id string, u pubbot.User) (bool, error) {
	if err := e.store.Set(ctx, userKey(u.ID, "name"), u.DisplayName()); err != nil {
		return false, err
	}
	added, err := e.store.SAdd(ctx, eventKey(id, "participants"), strconv.FormatInt(u.ID, 10))
	if err != nil {
		return false, err
	}
	_, err = e.store.SAdd(ctx, userKey(u.ID, "events"), id)
	return added, err
}

func (e eventStore) leave(ctx context.Context, id string, u pubbot.User) (bool, error) {
	removed, err := e.store.SRem(ctx, eventKey(id, "participants"), strconv.FormatInt(u.ID, 10))
	if err != nil {
		return false, err
	}
	_, err = e.store.SRem(ctx, userKey(u.ID, "events"), id)
	return removed, err
}

func (e eventStore) remove(ctx context.Context, ev *event) error {
	if _, err := e.store.SRem(ctx, chatKey(ev.Chat, "events"), ev.ID); err != nil {
		return err
	}
	for _, uid := range ev.Participants {
		if _, err := e.store.SRem(ctx, userKey(uid, "events"), ev.ID); err != nil {
			return err
		}
	}
	for _, field := range []string{"title", "owner", "chat", "message", "participants", "inline"} {
		if err := e.store.Delete(ctx, eventKey(ev.ID, field)); err != nil {
			return err
		}
	}
	return nil
}

func (e eventStore) setMessage(ctx context.Context, id string, messageID int64) error {
	return e.store.Set(ctx, eventKey(id, "message"), strconv.FormatInt(messageID, 10))
}

func (e eventStore) addInlineMessage(ctx context.Context, id, inlineMessageID string) error {
	_, err := e.store.SAdd(ctx, eventKey(id, "inline"), inlineMessageID)
	return err
}

// forUser returns the events u takes part in, newest first.
func (e eventStore) forUser(ctx context.Context, userID int64) ([]*event, error) {
	ids, err := e.store.SMembers(ctx, userKey(userID, "events"))
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.ParseInt(ids[i], 10, 64)
		b, _ := strconv.ParseInt(ids[j], 10, 64)
		return a > b
	})
	var result []*event
	for _, id := range ids {
		ev, err := e.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			result = append(result, ev)
		}
	}
	return result, nil
}

// render is the text of the message announcing ev.
func (e eventStore) render(ctx context.Context, ev *event) (string, error) {
	if len(ev.Participants) == 0 {
		return ev.Title + "\nNobody is going yet.", nil
	}
	keys := make([]string, len(ev.Participants))
	for i, uid := range ev.Participants {
		keys[i] = userKey(uid, "name")
	}
	names, err := e.store.MGet(ctx, keys...)
	if err != nil {
		return "", err
	}
	going := make([]string, len(names))
	for i, name := range names {
		if name != nil && *name != "" {
			going[i] = *name
		} else {
			going[i] = fmt.Sprintf("user %d", ev.Participants[i])
		}
	}
	return fmt.Sprintf("%s\nGoing (%d): %s", ev.Title, len(going), strings.Join(going, ", ")), nil
}

func keyboard(id string) *pubbot.InlineKeyboardMarkup {
	return &pubbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]pubbot.InlineKeyboardButton{
			{
				{Text: "I'm in", CallbackData: "event_join:" + id},
				{Text: "I'm out", CallbackData: "event_leave:" + id},
			},
			{
				{Text: "Cancel event", CallbackData: "event_del:" + id},
			},
		},
	}
}
