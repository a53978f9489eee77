package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Update is one inbound event from getUpdates, flattened to the two shapes
// the pipeline consumes: a plain text message or a callback selection.
type Update struct {
	UpdateID int64     `json:"update_id"`
	Message  *Message  `json:"message"`
	Callback *Callback `json:"callback_query"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Callback is an inline-keyboard selection event.
type Callback struct {
	ID      string   `json:"id"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// UpdateHandler processes one inbound update. A returned error leaves the
// update unacknowledged so it is delivered again on the next poll.
type UpdateHandler func(ctx context.Context, update Update) error

// Poll long-polls getUpdates and feeds each update through handler,
// advancing the offset only for updates the handler accepted. Blocks until
// ctx is cancelled.
func (c *Client) Poll(ctx context.Context, pollTimeout time.Duration, handler UpdateHandler) error {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	// the poll request must outlive the server-side long-poll window
	client := &http.Client{Timeout: pollTimeout + 5*time.Second}

	var offset int64
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("polling stopped")
			return ctx.Err()
		default:
		}

		updates, err := c.getUpdates(ctx, client, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Msg("poll request failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if err := handler(ctx, update); err != nil {
				// stop advancing: this update will be re-delivered, better
				// to risk reprocessing than to silently lose an alert
				c.logger.Error().Err(err).Int64("update_id", update.UpdateID).Msg("update processing failed")
				break
			}
			offset = update.UpdateID + 1
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, client *http.Client, offset int64, pollTimeout time.Duration) ([]Update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d",
		c.baseURL, c.botToken, offset, int(pollTimeout.Seconds()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create getUpdates request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read getUpdates response: %w", err)
	}

	var parsed struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false")
	}
	return parsed.Result, nil
}
