package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"jobwatch-go/internal/model"
)

const (
	apiBaseURL   = "https://api.telegram.org"
	messageLimit = 4096
)

type Sender struct {
	token    string
	chat     string
	threadID *int
	target   string

	client      *http.Client
	baseURL     string
	minInterval time.Duration

	mu           sync.Mutex
	lastSentTime time.Time
}

func NewSender(token, chat string, threadID *int, target string) *Sender {
	return &Sender{
		token:       token,
		chat:        chat,
		threadID:    threadID,
		target:      target,
		client:      &http.Client{Timeout: 15 * time.Second},
		baseURL:     apiBaseURL,
		minInterval: 1200 * time.Millisecond,
	}
}

func (s *Sender) Name() string {
	return "telegram"
}

func (s *Sender) Notify(ctx context.Context, listings []model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, part := range splitMessage(formatMessage(listings, s.target), messageLimit) {
		if err := s.sendWithRateLimit(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendWithRateLimit(ctx context.Context, text string) error {
	if err := sleep(ctx, time.Until(s.lastSentTime.Add(s.minInterval))); err != nil {
		return err
	}

	retryAfter, err := s.postMessage(ctx, text)
	if err != nil {
		if retryAfter <= 0 {
			return err
		}
		log.Printf("Telegram rate limit hit. Retrying after %s", retryAfter)
		if err := sleep(ctx, retryAfter); err != nil {
			return err
		}
		if _, retryErr := s.postMessage(ctx, text); retryErr != nil {
			return fmt.Errorf("telegram retry failed: %w", retryErr)
		}
		s.lastSentTime = time.Now()
		log.Printf("Telegram alert sent successfully (after retry)")
		return nil
	}

	s.lastSentTime = time.Now()
	log.Printf("Telegram alert sent successfully")
	return nil
}

func (s *Sender) postMessage(ctx context.Context, text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func formatMessage(listings []model.Listing, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 <b>%d new job(s) posted</b>\n", len(listings))
	for _, l := range listings {
		b.WriteString("• " + html.EscapeString(string(l)) + "\n")
	}
	if target != "" {
		fmt.Fprintf(&b, "🔗 %s", html.EscapeString(target))
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	parts := []string{}
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
