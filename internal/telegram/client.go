// Package telegram is a minimal Bot API client covering exactly the surface
// the pipeline needs: send and edit messages with inline keyboards, upload
// documents, acknowledge callbacks, and long-poll for updates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// InlineButton is one callback button of an inline keyboard.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboard is rows of buttons attached to a message.
type InlineKeyboard [][]InlineButton

// Client talks to the Telegram Bot API over plain HTTP.
type Client struct {
	botToken string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewClient constructs a Bot API client.
func NewClient(botToken, baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &Client{
		botToken: botToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram").Logger(),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeResponse(method, resp)
}

func decodeResponse(method string, resp *http.Response) (json.RawMessage, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, string(raw))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("%s: api returned ok=false: %s", method, parsed.Description)
	}
	return parsed.Result, nil
}

// SendMessage posts text to a chat, optionally with an inline keyboard, and
// returns the new message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard InlineKeyboard) (int64, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if keyboard != nil {
		payload["reply_markup"] = map[string]interface{}{"inline_keyboard": keyboard}
	}

	result, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return 0, err
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("decode sent message: %w", err)
	}
	return sent.MessageID, nil
}

// EditMessageText replaces a message body and keyboard in place; the menu
// walk edits one message instead of flooding the chat.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard InlineKeyboard) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if keyboard != nil {
		payload["reply_markup"] = map[string]interface{}{"inline_keyboard": keyboard}
	}

	_, err := c.call(ctx, "editMessageText", payload)
	return err
}

// AnswerCallbackQuery acknowledges a callback so the client stops showing a
// spinner. Failures are logged and swallowed; the acknowledgment is cosmetic.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) {
	payload := map[string]interface{}{"callback_query_id": callbackID}
	if _, err := c.call(ctx, "answerCallbackQuery", payload); err != nil {
		c.logger.Warn().Err(err).Msg("answer callback query failed")
	}
}

// SendDocument uploads a file with a caption via multipart form data.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}

	part, err := form.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("create document part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write document content: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("create sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	defer resp.Body.Close()

	_, err = decodeResponse("sendDocument", resp)
	return err
}

// SendMessageWithRetry retries transient send failures with exponential
// backoff. Used for outbound text only; documents are never retried so a
// flaky transport cannot deliver the same report twice.
func (c *Client) SendMessageWithRetry(ctx context.Context, chatID int64, text string, keyboard InlineKeyboard, maxRetries int) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		id, err := c.SendMessage(ctx, chatID, text, keyboard)
		if err == nil {
			return id, nil
		}
		lastErr = err

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("send failed, retrying")
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return 0, fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
