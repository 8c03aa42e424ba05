// Package botpress talks to the conversational bot backend over HTTP.
package botpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/wolfman30/whatsapp-bridge/internal/normalize"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

const maxResponseBody = 64 * 1024

// Client posts normalized messages to the bot backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// Result reports the outcome of a single dispatch. An empty ReplyText on a
// delivered message means the reply will arrive through the reply webhook,
// unless Replied indicates the bot answered in a shape the extraction chain
// does not cover.
type Result struct {
	Delivered bool
	Replied   bool
	ReplyText string
}

// dispatchRequest is the wire shape the bot backend expects.
type dispatchRequest struct {
	ConversationID string `json:"conversationId"`
	Type           string `json:"type"`
	Text           string `json:"text"`
}

// NewClient builds a bot backend client. token may be empty for direct
// webhook POSTs that need no authentication.
func NewClient(baseURL, token string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Dispatch sends one message to the bot backend. A transport failure returns
// an error; a non-2xx response returns Delivered=false with no error. Neither
// case is retried.
func (c *Client) Dispatch(ctx context.Context, conversationID, text string) (Result, error) {
	body, err := json.Marshal(dispatchRequest{
		ConversationID: conversationID,
		Type:           "text",
		Text:           text,
	})
	if err != nil {
		return Result{}, fmt.Errorf("botpress: marshal dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("botpress: build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("botpress: dispatch: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("bot backend rejected message",
			"conversation_id", conversationID,
			"status", resp.StatusCode,
		)
		return Result{Delivered: false}, nil
	}

	replyText := normalize.BotResponseText(respBody)
	c.logger.Info("message dispatched to bot backend",
		"conversation_id", conversationID,
		"synchronous_reply", replyText != "",
	)
	return Result{
		Delivered: true,
		Replied:   replyText != "" || normalize.HasBotResponses(respBody),
		ReplyText: replyText,
	}, nil
}

// CreateConversation mints a conversation on the bot backend for the stateful
// correlation strategy.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	url := c.baseURL + "/conversations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return "", fmt.Errorf("botpress: build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("botpress: create conversation: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("botpress: create conversation failed: status %d", resp.StatusCode)
	}

	for _, path := range []string{"id", "conversationId", "data.id"} {
		if value := gjson.GetBytes(body, path); value.Exists() && value.String() != "" {
			return value.String(), nil
		}
	}
	return "", fmt.Errorf("botpress: create conversation response carried no id")
}
