package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"audioextract/internal/config"
)

const userAgent = "audioextract/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventProgress       Event = "progress"
	EventFileCompleted  Event = "file_completed"
	EventFileFailed     Event = "file_failed"
	EventBatchCompleted Event = "batch_completed"
	EventTest           Event = "test"
)

// Payload carries the values a notification message is built from.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotifyTimeout()},
	}
}

// Enabled reports whether svc actually delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

func format(event Event, payload Payload) (message, bool) {
	str := func(key string) string {
		if v, ok := payload[key]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	}
	num := func(key string) int {
		switch v := payload[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
		return 0
	}

	switch event {
	case EventProgress:
		return message{
			title:    "Audio extraction",
			body:     fmt.Sprintf("%s (%d%%)", str("message"), num("percent")),
			tags:     []string{"audioextract", "progress"},
			priority: "low",
		}, true
	case EventFileCompleted:
		body := fmt.Sprintf("Extracted %d/%d: %s", num("current"), num("total"), str("output"))
		if input := str("input"); input != "" {
			body = fmt.Sprintf("%s\nFrom: %s", body, input)
		}
		return message{
			title: "Audio extraction - File done",
			body:  body,
			tags:  []string{"audioextract", "file", "completed"},
		}, true
	case EventFileFailed:
		return message{
			title:    "Audio extraction - Error",
			body:     str("message"),
			tags:     []string{"audioextract", "error", "alert"},
			priority: "high",
		}, true
	case EventBatchCompleted:
		title := "Audio extraction - Complete"
		switch {
		case payload["cancelled"] == true:
			title = "Audio extraction - Cancelled"
		case num("failed") > 0:
			title = "Audio extraction - Complete (with errors)"
		}
		body := str("message")
		if log := str("sessionLog"); log != "" {
			body = fmt.Sprintf("%s\nLog: %s", body, log)
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"audioextract", "batch", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "Audio extraction - Test",
			body:     "Notification system test",
			tags:     []string{"audioextract", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
