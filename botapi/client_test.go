package botapi_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/weaveworks/pubbot"
	"github.com/weaveworks/pubbot/botapi"
)

const (
	apiURL = "https://api.telegram.test"
	token  = "123456:SECRET-token"
)

var ctx = context.Background()

func newClient(t *testing.T, base string) *botapi.Client {
	cl, err := botapi.NewClient(botapi.Config{URL: base, Token: token, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return cl
}

type captured struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// captureServer answers every request with reply and records the last request.
func captureServer(reply string) (*httptest.Server, *captured) {
	c := &captured{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.path = r.URL.Path
		c.contentType = r.Header.Get("Content-Type")
		c.body, _ = ioutil.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	return ts, c
}

func TestClient_GetMe(t *testing.T) {
	defer gock.Off()
	gock.New(apiURL).
		Get("/bot" + token + "/getMe").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"id": 42, "is_bot": true, "first_name": "Pub", "username": "pub_bot"},
		})

	me, err := newClient(t, apiURL).GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), me.ID)
	assert.Equal(t, "pub_bot", me.Username)
	assert.True(t, gock.IsDone())
}

func TestClient_GetMeUsesGETWithoutBody(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":{"id":1,"first_name":"b"}}`)
	defer ts.Close()

	_, err := newClient(t, ts.URL).GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GET", c.method)
	assert.Equal(t, "/bot"+token+"/getMe", c.path)
	assert.Empty(t, c.body)
}

func TestClient_SendMessageIsURLEncoded(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":{"message_id":5,"date":1,"chat":{"id":-100,"type":"group"},"text":"hi"}}`)
	defer ts.Close()

	msg, err := newClient(t, ts.URL).SendMessage(ctx, -100, "hi", &botapi.SendMessageOptions{
		DisableNotification: true,
		ReplyMarkup: pubbot.InlineKeyboardMarkup{InlineKeyboard: [][]pubbot.InlineKeyboardButton{
			{{Text: "Join", CallbackData: "event_join:1"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), msg.MessageID)

	assert.Equal(t, "POST", c.method)
	assert.Equal(t, "application/x-www-form-urlencoded", c.contentType)
	form, err := url.ParseQuery(string(c.body))
	require.NoError(t, err)
	assert.Equal(t, "-100", form.Get("chat_id"))
	assert.Equal(t, "hi", form.Get("text"))
	assert.Equal(t, "true", form.Get("disable_notification"))
	assert.JSONEq(t, `{"inline_keyboard":[[{"text":"Join","callback_data":"event_join:1"}]]}`, form.Get("reply_markup"))
	_, sent := form["parse_mode"]
	assert.False(t, sent)
	_, sent = form["disable_web_page_preview"]
	assert.False(t, sent)
}

func TestClient_SetWebhookWithCertificateIsMultipart(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":true}`)
	defer ts.Close()

	ok, err := newClient(t, ts.URL).SetWebhook(ctx, "https://bot.example:443/webhook/abc", &botapi.InputFile{
		Name:   "cert.pem",
		Reader: bytes.NewBufferString("-----BEGIN CERTIFICATE-----"),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "POST", c.method)
	mediaType, params, err := mime.ParseMediaType(c.contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.True(t, strings.HasPrefix(params["boundary"], "pubbot"))

	form, err := multipart.NewReader(bytes.NewReader(c.body), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://bot.example:443/webhook/abc"}, form.Value["url"])
	require.Len(t, form.File["certificate"], 1)
	assert.Equal(t, "cert.pem", form.File["certificate"][0].Filename)
	f, err := form.File["certificate"][0].Open()
	require.NoError(t, err)
	cert, _ := ioutil.ReadAll(f)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----", string(cert))
}

func TestClient_SetWebhookEmptyURLUnregisters(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":true,"description":"Webhook is already deleted"}`)
	defer ts.Close()

	ok, err := newClient(t, ts.URL).SetWebhook(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "POST", c.method)
	assert.Equal(t, "url=", string(c.body))
}

func TestClient_GetMeAfterUnregistering(t *testing.T) {
	var methods []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Pub"}}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ok, err := cl.SetWebhook(ctx, "", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	me, err := cl.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), me.ID)
	assert.Equal(t, []string{"POST", "GET"}, methods)
}

func TestClient_APIError(t *testing.T) {
	defer gock.Off()
	gock.New(apiURL).
		Post("/bot" + token + "/sendMessage").
		Reply(400).
		JSON(map[string]interface{}{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"})

	_, err := newClient(t, apiURL).SendMessage(ctx, 1, "hi", nil)
	require.Error(t, err)
	apiErr, ok := err.(*botapi.APIError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
}

func TestClient_APIErrorWithSuccessStatus(t *testing.T) {
	defer gock.Off()
	gock.New(apiURL).
		Post("/bot" + token + "/answerInlineQuery").
		Reply(200).
		JSON(map[string]interface{}{"ok": false, "error_code": 400, "description": "QUERY_ID_INVALID"})

	_, err := newClient(t, apiURL).AnswerInlineQuery(ctx, "q", nil, nil)
	_, ok := err.(*botapi.APIError)
	assert.True(t, ok, "%T", err)
}

func TestClient_UndecodableBodyIsTransportError(t *testing.T) {
	defer gock.Off()
	gock.New(apiURL).
		Get("/bot" + token + "/getMe").
		Reply(502).
		BodyString("<html>Bad Gateway</html>")

	_, err := newClient(t, apiURL).GetMe(ctx)
	transportErr, ok := err.(*botapi.TransportError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, "getMe", transportErr.Method)
}

func TestClient_TransportErrorHidesToken(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	_, err := newClient(t, base).GetMe(ctx)
	require.Error(t, err)
	_, ok := err.(*botapi.TransportError)
	assert.True(t, ok, "%T", err)
	assert.NotContains(t, err.Error(), token)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestClient_EditMessageTextPrecedence(t *testing.T) {
	for _, tc := range []struct {
		name   string
		target botapi.EditTarget
		want   url.Values
	}{
		{
			name:   "inline message id wins",
			target: botapi.EditTarget{InlineMessageID: "AAA", Message: &pubbot.Message{MessageID: 3, Chat: pubbot.Chat{ID: 9}}, ChatID: 1, MessageID: 2},
			want:   url.Values{"text": {"t"}, "inline_message_id": {"AAA"}},
		},
		{
			name:   "message object over explicit ids",
			target: botapi.EditTarget{Message: &pubbot.Message{MessageID: 3, Chat: pubbot.Chat{ID: 9}}, ChatID: 1, MessageID: 2},
			want:   url.Values{"text": {"t"}, "chat_id": {"9"}, "message_id": {"3"}},
		},
		{
			name:   "chat id and message id",
			target: botapi.EditTarget{ChatID: 1, MessageID: 2},
			want:   url.Values{"text": {"t"}, "chat_id": {"1"}, "message_id": {"2"}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts, c := captureServer(`{"ok":true,"result":{"message_id":3,"date":1,"chat":{"id":9,"type":"group"}}}`)
			defer ts.Close()

			_, err := newClient(t, ts.URL).EditMessageText(ctx, "t", tc.target, nil)
			require.NoError(t, err)
			form, err := url.ParseQuery(string(c.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, form)
		})
	}
}

func TestClient_EditMessageTextMissingTargetDoesNoIO(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	for _, target := range []botapi.EditTarget{
		{},
		{ChatID: 1},
		{MessageID: 2},
	} {
		_, err := cl.EditMessageText(ctx, "t", target, nil)
		_, ok := err.(*botapi.AddressingError)
		assert.True(t, ok, "%T", err)
	}
	assert.Equal(t, 0, requests)
}

func TestClient_EditInlineMessageReturnsNilMessage(t *testing.T) {
	defer gock.Off()
	gock.New(apiURL).
		Post("/bot" + token + "/editMessageText").
		Reply(200).
		JSON(map[string]interface{}{"ok": true, "result": true})

	msg, err := newClient(t, apiURL).EditMessageText(ctx, "t", botapi.EditTarget{InlineMessageID: "AAA"}, nil)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestClient_AnswerInlineQuery(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":true}`)
	defer ts.Close()

	zero := 0
	ok, err := newClient(t, ts.URL).AnswerInlineQuery(ctx, "q1",
		[]interface{}{pubbot.NewArticle("1", "Friday", "Friday at the pub")},
		&botapi.AnswerInlineQueryOptions{CacheTime: &zero, IsPersonal: true})
	require.NoError(t, err)
	assert.True(t, ok)

	form, err := url.ParseQuery(string(c.body))
	require.NoError(t, err)
	assert.Equal(t, "q1", form.Get("inline_query_id"))
	assert.Equal(t, "0", form.Get("cache_time"))
	assert.Equal(t, "true", form.Get("is_personal"))
	assert.JSONEq(t, `[{"type":"article","id":"1","title":"Friday","input_message_content":{"message_text":"Friday at the pub"}}]`, form.Get("results"))
	_, sent := form["next_offset"]
	assert.False(t, sent)
}

func TestClient_AnswerCallbackQuery(t *testing.T) {
	ts, c := captureServer(`{"ok":true,"result":true}`)
	defer ts.Close()

	ok, err := newClient(t, ts.URL).AnswerCallbackQuery(ctx, "cb1", &botapi.AnswerCallbackQueryOptions{Text: "Joined"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/bot"+token+"/answerCallbackQuery", c.path)
	assert.Equal(t, "callback_query_id=cb1&text=Joined", string(c.body))
}

func TestNewClient_TokenFile(t *testing.T) {
	f, err := ioutil.TempFile("", "token")
	require.NoError(t, err)
	f.WriteString(token + "\n")
	f.Close()

	ts, c := captureServer(`{"ok":true,"result":{"id":1,"first_name":"b"}}`)
	defer ts.Close()

	cl, err := botapi.NewClient(botapi.Config{URL: ts.URL, TokenFile: f.Name(), Token: "ignored", Timeout: time.Second})
	require.NoError(t, err)
	_, err = cl.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/bot"+token+"/getMe", c.path)
}

func TestConfig_Validate(t *testing.T) {
	cfg := botapi.Config{URL: apiURL}
	assert.Error(t, cfg.Validate())
	cfg.Token = token
	assert.NoError(t, cfg.Validate())
}

func TestClient_RateLimit(t *testing.T) {
	ts, _ := captureServer(`{"ok":true,"result":{"id":1,"first_name":"b"}}`)
	defer ts.Close()

	cl, err := botapi.NewClient(botapi.Config{URL: ts.URL, Token: token, Timeout: time.Second, RateLimit: 0.01, RateBurst: 1})
	require.NoError(t, err)

	_, err = cl.GetMe(ctx)
	require.NoError(t, err)

	// the next token is 100s away, past the deadline
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = cl.GetMe(short)
	_, ok := err.(*botapi.TransportError)
	assert.True(t, ok, "%T", err)
}
