// Package telegram resolves Telegram handles to chat identifiers through the
// Bot API. Verification is optional: without a bot token the client reports
// itself disabled and registration stores the handle as given.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	// Load env
	_ "github.com/joho/godotenv/autoload"
)

// resolveTimeout bounds the outbound getChat call so a slow Bot API cannot
// hold a registration request open indefinitely.
const resolveTimeout = 8 * time.Second

// ErrChatNotFound is returned when the Bot API reports no chat for the handle.
var ErrChatNotFound = errors.New("no Telegram user found with this username")

// Client calls the Telegram Bot API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the given bot token. baseURL and
// httpClient may be empty/nil to use the production API with a default
// timeout; tests point baseURL at a local fake.
func NewClient(token, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: resolveTimeout}
	}
	return &Client{
		token:      strings.TrimSpace(token),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// NewClientFromEnv builds a client from TELEGRAM_BOT_TOKEN.
func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"), "", nil)
}

// Enabled reports whether a bot token is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.token != ""
}

// NormalizeHandle strips surrounding whitespace and a leading "@".
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

type getChatResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		ID int64 `json:"id"`
	} `json:"result"`
}

// ResolveHandle resolves a handle to its chat identifier via getChat.
// It returns ErrChatNotFound when the API answers ok=false, and a wrapped
// transport error when the API is unreachable.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return "", fmt.Errorf("empty handle")
	}

	endpoint := fmt.Sprintf("%s/bot%s/getChat?chat_id=%s",
		c.baseURL, c.token, url.QueryEscape("@"+handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create getChat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not reach Telegram API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var parsed getChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode getChat response: %w", err)
	}

	if !parsed.Ok {
		return "", ErrChatNotFound
	}
	if parsed.Result.ID == 0 {
		return "", fmt.Errorf("getChat response carries no chat id")
	}

	return strconv.FormatInt(parsed.Result.ID, 10), nil
}
