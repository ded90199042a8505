package dispatcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveworks/pubbot/dispatcher"
	"github.com/weaveworks/pubbot/store"
	"github.com/weaveworks/pubbot/update"
)

var ctx = context.Background()

const goCommand = `{"update_id":1,"message":{"message_id":5,"from":{"id":42,"username":"alice"},"chat":{"id":42,"type":"private"},"date":1000,"text":"/go","entities":[{"type":"bot_command","offset":0,"length":3}]}}`

// recorder collects the names of invoked handlers and the updates they saw.
type recorder struct {
	mtx     sync.Mutex
	calls   []string
	updates []update.Update
}

func (r *recorder) handler(name string, err error) dispatcher.Factory {
	return func(dispatcher.Deps) dispatcher.Handler {
		return dispatcher.HandlerFunc(func(_ context.Context, u update.Update) error {
			r.mtx.Lock()
			defer r.mtx.Unlock()
			r.calls = append(r.calls, name)
			r.updates = append(r.updates, u)
			return err
		})
	}
}

func (r *recorder) called() map[string]int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	counts := map[string]int{}
	for _, c := range r.calls {
		counts[c]++
	}
	return counts
}

func build(t *testing.T, r *dispatcher.Registry) *dispatcher.Dispatcher {
	d, err := r.Build(dispatcher.Deps{Store: store.NewMemory()})
	require.NoError(t, err)
	return d
}

func TestDispatch_BotCommandPatterns(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "any", rec.handler("any", nil))
	r.Add(update.KindBotCommand, "go", rec.handler("go", nil), "/go")
	r.Add(update.KindBotCommand, "help", rec.handler("help", nil), "/help", "/start")
	r.Add(update.KindMessage, "greeting", rec.handler("greeting", nil))
	d := build(t, r)

	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	assert.Equal(t, map[string]int{"any": 1, "go": 1}, rec.called())

	for _, u := range rec.updates {
		cmd, ok := u.(*update.BotCommand)
		require.True(t, ok, "%T", u)
		assert.Equal(t, int64(42), cmd.Chat.ID)
		assert.Equal(t, "alice", cmd.From.Username)
	}
}

func TestMatch_RegistrationOrder(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "second", rec.handler("second", nil), "/go")
	r.Add(update.KindMessage, "message", rec.handler("message", nil))
	r.Add(update.KindBotCommand, "first", rec.handler("first", nil))
	r.Add(update.KindBotCommand, "third", rec.handler("third", nil), "/go", "/stop")
	d := build(t, r)

	u, err := update.Decode([]byte(goCommand))
	require.NoError(t, err)
	var names []string
	for _, b := range d.Match(u) {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"second", "first", "third"}, names)
}

func TestMatch_BindingsAreFrozen(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "help", rec.handler("help", nil), "/start", "/help")
	d := build(t, r)

	help, err := update.Decode([]byte(`{"update_id":1,"message":{"message_id":1,"chat":{"id":1,"type":"private"},"date":1,"text":"/help","entities":[{"type":"bot_command","offset":0,"length":5}]}}`))
	require.NoError(t, err)
	matched := d.Match(help)
	require.Len(t, matched, 1)
	patterns := matched[0].Patterns()
	assert.Equal(t, []string{"/help", "/start"}, patterns)

	patterns[0] = "/go"
	assert.Equal(t, []string{"/help", "/start"}, d.Match(help)[0].Patterns())
	u, err := update.Decode([]byte(goCommand))
	require.NoError(t, err)
	assert.Empty(t, d.Match(u))

	assert.Panics(t, func() {
		r.Add(update.KindBotCommand, "go", rec.handler("go", nil), "/go")
	})
	assert.Empty(t, d.Match(u))
}

func TestDispatch_KindsDoNotLeak(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "command", rec.handler("command", nil))
	r.Add(update.KindMessage, "message", rec.handler("message", nil))
	r.Add(update.KindEditedMessage, "edited", rec.handler("edited", nil))
	d := build(t, r)

	require.NoError(t, d.Dispatch(ctx, []byte(`{"update_id":2,"message":{"message_id":1,"chat":{"id":1,"type":"private"},"date":1,"text":"hi"}}`)))
	assert.Equal(t, map[string]int{"message": 1}, rec.called())

	require.NoError(t, d.Dispatch(ctx, []byte(`{"update_id":3,"edited_message":{"message_id":1,"chat":{"id":1,"type":"private"},"date":1,"text":"/go","entities":[{"type":"bot_command","offset":0,"length":3}]}}`)))
	assert.Equal(t, map[string]int{"message": 1, "edited": 1}, rec.called())
}

func TestDispatch_InvokesAllEligibleHandlers(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "failing", rec.handler("failing", errors.New("boom")))
	r.Add(update.KindBotCommand, "panicking", func(dispatcher.Deps) dispatcher.Handler {
		return dispatcher.HandlerFunc(func(context.Context, update.Update) error {
			panic("handler bug")
		})
	})
	r.Add(update.KindBotCommand, "fine", rec.handler("fine", nil))
	r.Add(update.KindBotCommand, "also-fine", rec.handler("also-fine", nil), "/go")
	d := build(t, r)

	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	assert.Equal(t, map[string]int{"failing": 1, "fine": 1, "also-fine": 1}, rec.called())

	// A panic in one dispatch does not affect later ones.
	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	assert.Equal(t, map[string]int{"failing": 2, "fine": 2, "also-fine": 2}, rec.called())
}

func TestDispatch_HandlersRunConcurrently(t *testing.T) {
	const n = 3
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	var mtx sync.Mutex
	timedOut := 0
	r := dispatcher.NewRegistry()
	for i := 0; i < n; i++ {
		r.Add(update.KindBotCommand, "barrier", func(dispatcher.Deps) dispatcher.Handler {
			return dispatcher.HandlerFunc(func(context.Context, update.Update) error {
				started.Done()
				select {
				case <-allStarted:
				case <-time.After(5 * time.Second):
					mtx.Lock()
					timedOut++
					mtx.Unlock()
				}
				return nil
			})
		})
	}
	d := build(t, r)

	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	assert.Equal(t, 0, timedOut)
}

func TestDispatch_SamePayloadTwiceFansOutTwice(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindBotCommand, "go", rec.handler("go", nil), "/go")
	d := build(t, r)

	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	require.NoError(t, d.Dispatch(ctx, []byte(goCommand)))
	assert.Equal(t, map[string]int{"go": 2}, rec.called())
	require.Len(t, rec.updates, 2)
	assert.Equal(t, rec.updates[0].ID(), rec.updates[1].ID())
}

func TestDispatch_DecodeErrorsAndUnknownUpdates(t *testing.T) {
	rec := &recorder{}
	r := dispatcher.NewRegistry()
	r.Add(update.KindMessage, "message", rec.handler("message", nil))
	d := build(t, r)

	err := d.Dispatch(ctx, []byte(`{"update_id":`))
	_, ok := err.(*update.DecodeError)
	assert.True(t, ok, "%T", err)

	assert.NoError(t, d.Dispatch(ctx, []byte(`{"update_id":9,"channel_post":{}}`)))
	assert.Empty(t, rec.called())
}

func TestRegistry_BuildOnce(t *testing.T) {
	factoryCalls := 0
	deps := dispatcher.Deps{Store: store.NewMemory()}
	r := dispatcher.NewRegistry()
	r.Add(update.KindMessage, "message", func(got dispatcher.Deps) dispatcher.Handler {
		factoryCalls++
		assert.Equal(t, deps.Store, got.Store)
		return dispatcher.HandlerFunc(func(context.Context, update.Update) error { return nil })
	})

	d, err := r.Build(deps)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 1, factoryCalls)

	// Handlers are not rebuilt per dispatch.
	require.NoError(t, d.Dispatch(ctx, []byte(`{"update_id":1,"message":{"message_id":1,"chat":{"id":1,"type":"private"},"date":1}}`)))
	assert.Equal(t, 1, factoryCalls)

	_, err = r.Build(deps)
	assert.Equal(t, dispatcher.ErrAlreadyBuilt, err)
	assert.Equal(t, 1, factoryCalls)
}

func TestRegistry_Validation(t *testing.T) {
	noop := func(dispatcher.Deps) dispatcher.Handler { return nil }

	r := dispatcher.NewRegistry()
	r.Add(update.KindMessage, "greeting", noop, "/go")
	_, err := r.Build(dispatcher.Deps{})
	assert.Equal(t, dispatcher.ErrPatternsNotSupported, errors.Cause(err))

	r = dispatcher.NewRegistry()
	r.Add(update.Kind("channel_post"), "posts", noop)
	_, err = r.Build(dispatcher.Deps{})
	assert.Equal(t, dispatcher.ErrUnknownKind, errors.Cause(err))

	r = dispatcher.NewRegistry()
	r.Add(update.KindCallbackQuery, "callbacks", noop)
	_, err = r.Build(dispatcher.Deps{})
	assert.NoError(t, err)
}
