package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/http/client"
	"github.com/weaveworks/common/instrument"
	"golang.org/x/time/rate"

	"github.com/weaveworks/pubbot"
	"github.com/weaveworks/pubbot/common"
)

var clientRequestCollector = instrument.NewHistogramCollectorFromOpts(prometheus.HistogramOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "botapi",
	Name:      "request_duration_seconds",
	Help:      "Response time of Telegram Bot API requests.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	clientRequestCollector.Register()
}

// Client provides access to the Telegram Bot API
type Client struct {
	*common.JSONClient
	baseURL string
	token   string
	limiter *rate.Limiter
}

// envelope is the wrapper around every Bot API response.
type envelope struct {
	OK          *bool           `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// NewClient returns a Client for the configured Bot API endpoint.
func NewClient(cfg Config) (*Client, error) {
	token, err := cfg.token()
	if err != nil {
		return nil, err
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	cl := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		JSONClient: common.NewJSONClient(client.NewTimedClient(cl, clientRequestCollector)),
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      token,
		limiter:    limiter,
	}, nil
}

// GetMe returns basic information about the bot.
// See https://core.telegram.org/bots/api#getme
func (c *Client) GetMe(ctx context.Context) (*pubbot.User, error) {
	const method = "getMe"
	raw, err := c.fetch(ctx, method, nil, nil)
	if err != nil {
		return nil, err
	}
	var me pubbot.User
	if err := decodeResult(method, raw, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SetWebhook registers url as the target for updates. An empty url removes
// the webhook. The certificate, if any, is uploaded so self-signed
// certificates can be verified by the platform.
// See https://core.telegram.org/bots/api#setwebhook
func (c *Client) SetWebhook(ctx context.Context, webhookURL string, certificate *InputFile) (bool, error) {
	const method = "setWebhook"
	var files map[string]*InputFile
	if certificate != nil {
		files = map[string]*InputFile{"certificate": certificate}
	}
	raw, err := c.fetch(ctx, method, url.Values{"url": {webhookURL}}, files)
	if err != nil {
		return false, err
	}
	var ok bool
	err = decodeResult(method, raw, &ok)
	return ok, err
}

// SendMessage sends a text message.
// See https://core.telegram.org/bots/api#sendmessage
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendMessageOptions) (*pubbot.Message, error) {
	const method = "sendMessage"
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if opts != nil {
		setString(params, "parse_mode", opts.ParseMode)
		setBool(params, "disable_web_page_preview", opts.DisableWebPagePreview)
		setBool(params, "disable_notification", opts.DisableNotification)
		if opts.ReplyToMessageID != 0 {
			params.Set("reply_to_message_id", strconv.FormatInt(opts.ReplyToMessageID, 10))
		}
		if err := setJSON(params, "reply_markup", opts.ReplyMarkup); err != nil {
			return nil, err
		}
	}
	raw, err := c.fetch(ctx, method, params, nil)
	if err != nil {
		return nil, err
	}
	var msg pubbot.Message
	if err := decodeResult(method, raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText edits the text of a message sent by the bot or via the bot.
// For inline messages the platform answers true and the returned message is nil.
// See https://core.telegram.org/bots/api#editmessagetext
func (c *Client) EditMessageText(ctx context.Context, text string, target EditTarget, opts *EditMessageTextOptions) (*pubbot.Message, error) {
	const method = "editMessageText"
	params := url.Values{"text": {text}}
	switch {
	case target.InlineMessageID != "":
		params.Set("inline_message_id", target.InlineMessageID)
	case target.Message != nil:
		params.Set("chat_id", strconv.FormatInt(target.Message.Chat.ID, 10))
		params.Set("message_id", strconv.FormatInt(target.Message.MessageID, 10))
	case target.ChatID != 0 && target.MessageID != 0:
		params.Set("chat_id", strconv.FormatInt(target.ChatID, 10))
		params.Set("message_id", strconv.FormatInt(target.MessageID, 10))
	default:
		return nil, &AddressingError{}
	}
	if opts != nil {
		setString(params, "parse_mode", opts.ParseMode)
		setBool(params, "disable_web_page_preview", opts.DisableWebPagePreview)
		if err := setJSON(params, "reply_markup", opts.ReplyMarkup); err != nil {
			return nil, err
		}
	}
	raw, err := c.fetch(ctx, method, params, nil)
	if err != nil {
		return nil, err
	}
	if string(raw) == "true" {
		return nil, nil
	}
	var msg pubbot.Message
	if err := decodeResult(method, raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnswerInlineQuery sends results for an inline query.
// See https://core.telegram.org/bots/api#answerinlinequery
func (c *Client) AnswerInlineQuery(ctx context.Context, inlineQueryID string, results []interface{}, opts *AnswerInlineQueryOptions) (bool, error) {
	const method = "answerInlineQuery"
	if results == nil {
		results = []interface{}{}
	}
	params := url.Values{"inline_query_id": {inlineQueryID}}
	if err := setJSON(params, "results", results); err != nil {
		return false, err
	}
	if opts != nil {
		if opts.CacheTime != nil {
			params.Set("cache_time", strconv.Itoa(*opts.CacheTime))
		}
		setBool(params, "is_personal", opts.IsPersonal)
		setString(params, "next_offset", opts.NextOffset)
		setString(params, "switch_pm_text", opts.SwitchPMText)
		setString(params, "switch_pm_parameter", opts.SwitchPMParameter)
	}
	raw, err := c.fetch(ctx, method, params, nil)
	if err != nil {
		return false, err
	}
	var ok bool
	err = decodeResult(method, raw, &ok)
	return ok, err
}

// AnswerCallbackQuery acknowledges a callback query so the client stops its progress indicator.
// See https://core.telegram.org/bots/api#answercallbackquery
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, opts *AnswerCallbackQueryOptions) (bool, error) {
	const method = "answerCallbackQuery"
	params := url.Values{"callback_query_id": {callbackQueryID}}
	if opts != nil {
		setString(params, "text", opts.Text)
		setBool(params, "show_alert", opts.ShowAlert)
	}
	raw, err := c.fetch(ctx, method, params, nil)
	if err != nil {
		return false, err
	}
	var ok bool
	err = decodeResult(method, raw, &ok)
	return ok, err
}

// fetch performs a Bot API call and returns the raw result. It uses GET when
// there is nothing to send, a URL-encoded POST for plain parameters and a
// multipart POST when files are attached.
func (c *Client) fetch(ctx context.Context, method string, params url.Values, files map[string]*InputFile) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Method: method, Err: errors.Wrap(err, "rate limit")}
	}
	u := c.baseURL + "/bot" + c.token + "/" + method
	env := &envelope{}
	var err error
	switch {
	case len(files) > 0:
		var body *bytes.Buffer
		var contentType string
		body, contentType, err = encodeMultipart(params, files)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s request", method)
		}
		err = c.Upload(ctx, method, u, contentType, body, env)
	case len(params) > 0:
		err = c.PostForm(ctx, method, u, params, env)
	default:
		err = c.Get(ctx, method, u, env)
	}

	if env.OK != nil && !*env.OK {
		return nil, &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
	}
	if err != nil {
		return nil, transportError(method, err)
	}
	if env.OK == nil {
		return nil, &TransportError{Method: method, Err: errors.New("response is missing the ok field")}
	}
	return env.Result, nil
}

func decodeResult(method string, raw json.RawMessage, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return &TransportError{Method: method, Err: errors.Wrap(err, "decoding result")}
	}
	return nil
}

func encodeMultipart(params url.Values, files map[string]*InputFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.SetBoundary("pubbot" + strings.Replace(uuid.New().String(), "-", "", -1)); err != nil {
		return nil, "", err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range params[k] {
			if err := writer.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		file := files[field]
		part, err := writer.CreateFormFile(field, file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func setString(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setBool(params url.Values, key string, value bool) {
	if value {
		params.Set(key, "true")
	}
}

func setJSON(params url.Values, key string, value interface{}) error {
	if value == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	params.Set(key, string(b))
	return nil
}
