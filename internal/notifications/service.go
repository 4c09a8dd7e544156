package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scrivener/internal/config"
)

const userAgent = "scrivener/0.1"

// Event identifies a notification type.
type Event string

const (
	EventJobCompleted   Event = "job_completed"
	EventJobInterrupted Event = "job_interrupted"
	EventJobFailed      Event = "job_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Known keys: media, segments, frames,
// position, checkpoint, error.
type Payload map[string]string

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, p Payload) (message, bool) {
	media := strings.TrimSpace(p["media"])
	switch event {
	case EventJobCompleted:
		return message{
			title: "Scrivener - Transcribed",
			body:  fmt.Sprintf("%s: %s segments, %s frames", media, orZero(p["segments"]), orZero(p["frames"])),
			tags:  []string{"scrivener", "completed"},
		}, true
	case EventJobInterrupted:
		return message{
			title: "Scrivener - Paused",
			body:  fmt.Sprintf("%s stopped at %s; run again to resume", media, p["position"]),
			tags:  []string{"scrivener", "interrupted"},
		}, true
	case EventJobFailed:
		body := fmt.Sprintf("%s failed at %s", media, p["position"])
		if reason := strings.TrimSpace(p["error"]); reason != "" {
			body += ": " + reason
		}
		return message{
			title:    "Scrivener - Failed",
			body:     body,
			tags:     []string{"scrivener", "error"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Scrivener - Test",
			body:     "Notification test",
			tags:     []string{"scrivener", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func orZero(value string) string {
	if strings.TrimSpace(value) == "" {
		return "0"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
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
