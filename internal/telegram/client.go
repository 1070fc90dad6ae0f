package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avbochkov/vendobot/pkg/clients"
	"go.uber.org/zap"
)

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// Client is a narrow Bot API client covering only the calls the engine
// needs: text, images, message edits, callback acks and update polling.
type Client struct {
	client  clients.HTTPClientI
	baseURL string
}

func NewClient(apiURL, token string, client clients.HTTPClientI) *Client {
	return &Client{
		client:  client,
		baseURL: fmt.Sprintf("%s/bot%s", apiURL, token),
	}
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("can't marshal %s payload: %w", method, err)
	}

	status, respBody, err := c.client.PostJSON(ctx, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("can't decode %s response (status %d): %w", method, status, err)
	}
	if !resp.OK {
		return fmt.Errorf("%s rejected: %d %s", method, resp.ErrorCode, resp.Description)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("can't decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, markup Markup) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

func (c *Client) SendImage(ctx context.Context, chatID int64, fileID, caption string, markup Markup) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   fileID,
		"caption": caption,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "sendPhoto", payload, nil)
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, markup Markup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": timeoutSec,
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		zap.L().Error("getUpdates failed", zap.Error(err))
		return nil, err
	}
	return updates, nil
}
