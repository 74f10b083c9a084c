package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Message is the composed notification handed to the transport. Content is
// the caller's responsibility; the pipeline core only decides whether a
// message may go out at all.
type Message struct {
	ClientID string `json:"client_id"`
	Window   string `json:"window"`
	Text     string `json:"text"`
}

// Transport is the notification collaborator boundary. Implementations
// must not retry internally; the dispatcher treats any error as
// "not sent" and leaves the dedup slot open.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type chatClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

// NewChatClient builds the webhook transport from env:
//   - CHAT_API_BASE_URL (required)
//   - CHAT_API_KEY (required)
//   - CHAT_API_KEY_HEADER (default "X-API-Key")
//   - CHAT_RATE_LIMIT_PER_MIN (default 20)
func NewChatClient() (Transport, error) {
	baseURL := strings.TrimSpace(os.Getenv("CHAT_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("chat api base url is empty")
	}
	apiKey := strings.TrimSpace(os.Getenv("CHAT_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("chat api key is empty")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("CHAT_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	rateLimitPerMin := int64(20)
	if v := strings.TrimSpace(os.Getenv("CHAT_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &chatClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

func (c *chatClient) Send(ctx context.Context, msg Message) error {
	<-c.limiter
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
