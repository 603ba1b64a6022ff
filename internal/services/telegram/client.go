package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voicebot/internal/services"
)

const (
	defaultBaseURL        = "https://api.telegram.org"
	defaultRequestTimeout = 60 * time.Second
	defaultPollTimeout    = 30 * time.Second
)

// HTTPDoer describes the HTTP client used by the Bot API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config captures the settings needed to reach the Bot API.
type Config struct {
	Token          string
	BaseURL        string
	RequestTimeout time.Duration
	PollTimeout    time.Duration
}

// Client calls Bot API methods.
type Client struct {
	cfg  Config
	http HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// NewClient constructs a Bot API client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.PollTimeout < 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	client := &Client{cfg: cfg, http: &http.Client{}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// PollTimeout returns the long-polling timeout sent with getUpdates.
func (c *Client) PollTimeout() time.Duration { return c.cfg.PollTimeout }

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var user User
	err := c.call(ctx, "getMe", nil, &user, c.cfg.RequestTimeout)
	return user, err
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(c.cfg.PollTimeout / time.Second),
		"allowed_updates": []string{"message", "inline_query"},
	}
	var updates []Update
	err := c.call(ctx, "getUpdates", payload, &updates, c.cfg.PollTimeout+c.cfg.RequestTimeout)
	return updates, err
}

// SendMessage posts a plain text message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (Message, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	var msg Message
	err := c.call(ctx, "sendMessage", payload, &msg, c.cfg.RequestTimeout)
	return msg, err
}

// SendVoice uploads the file at path as a voice message.
func (c *Client) SendVoice(ctx context.Context, chatID int64, path string) (Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return Message{}, services.Wrap(services.ErrValidation, "telegram", "sendVoice", "open clip", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return Message{}, fmt.Errorf("telegram sendVoice: write chat_id: %w", err)
	}
	part, err := writer.CreateFormFile("voice", filepath.Base(path))
	if err != nil {
		return Message{}, fmt.Errorf("telegram sendVoice: create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Message{}, fmt.Errorf("telegram sendVoice: copy clip: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Message{}, fmt.Errorf("telegram sendVoice: close form: %w", err)
	}

	var msg Message
	err = c.do(ctx, "sendVoice", writer.FormDataContentType(), &body, &msg, c.cfg.RequestTimeout)
	return msg, err
}

// DeleteMessage removes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	var ok bool
	return c.call(ctx, "deleteMessage", payload, &ok, c.cfg.RequestTimeout)
}

// AnswerInlineQuery delivers inline results. Results are shown only to the
// asking user when personal is set.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []CachedVoiceResult, cacheTime time.Duration, personal bool) error {
	if results == nil {
		results = []CachedVoiceResult{}
	}
	payload := map[string]any{
		"inline_query_id": queryID,
		"results":         results,
		"cache_time":      int(cacheTime / time.Second),
		"is_personal":     personal,
	}
	var ok bool
	return c.call(ctx, "answerInlineQuery", payload, &ok, c.cfg.RequestTimeout)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any, timeout time.Duration) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("telegram %s: encode request: %w", method, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, contentType, body, out, timeout)
}

func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader, out any, timeout time.Duration) error {
	if c.cfg.Token == "" {
		return services.Wrap(services.ErrConfiguration, "telegram", method, "bot token required", nil)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// The token is part of the URL; never surface it.
		return services.Wrap(services.ErrTransient, "telegram", method, "request failed", redactToken(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "telegram", method, "read response", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Method: method, Code: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.cause }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), cause: err}
}
