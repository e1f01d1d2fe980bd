package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"nudge/internal/config"
)

const userAgent = "Nudge-Go/0.1.0"

// Service defines the notification surface exposed to the coordinator.
type Service interface {
	NotifyFocusDrop(ctx context.Context, score float64, app string) error
	NotifyBreakSuggested(ctx context.Context, focused time.Duration) error
	NotifySessionSummary(ctx context.Context, duration time.Duration, averageScore float64, dataPoints int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		dedupWindow: time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		sendErrors:  cfg.Notifications.Errors,
		now:         time.Now,
		lastSent:    make(map[string]time.Time),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	dedupWindow time.Duration
	sendErrors  bool
	now         func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func (n *ntfyService) NotifyFocusDrop(ctx context.Context, score float64, app string) error {
	app = strings.TrimSpace(app)
	message := fmt.Sprintf("Attention dropped to %.0f%%", score*100)
	if app != "" {
		message = fmt.Sprintf("%s while using %s", message, app)
	}
	data := payload{
		title:   "Nudge - Focus Drop",
		message: message,
		tags:    []string{"nudge", "focus", "drop"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBreakSuggested(ctx context.Context, focused time.Duration) error {
	focused = focused.Round(time.Minute)
	data := payload{
		title:    "Nudge - Break Time",
		message:  fmt.Sprintf("You have been focused for %s. Consider a short break.", focused),
		tags:     []string{"nudge", "break"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionSummary(ctx context.Context, duration time.Duration, averageScore float64, dataPoints int) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title: "Nudge - Session Complete",
		message: fmt.Sprintf("Session complete: %s monitored, average attention %.0f%% over %d samples",
			duration, averageScore*100, dataPoints),
		tags: []string{"nudge", "session", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Nudge - Error",
		message:  builder.String(),
		tags:     []string{"nudge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Nudge - Test",
		message:  "Notification system test",
		tags:     []string{"nudge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// suppressed reports whether a notification with the same title fired within
// the dedup window, and records this send otherwise.
func (n *ntfyService) suppressed(title string) bool {
	if n.dedupWindow <= 0 {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if last, ok := n.lastSent[title]; ok && now.Sub(last) < n.dedupWindow {
		return true
	}
	n.lastSent[title] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.suppressed(data.title) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

func (noopService) NotifyFocusDrop(context.Context, float64, string) error { return nil }
func (noopService) NotifyBreakSuggested(context.Context, time.Duration) error {
	return nil
}
func (noopService) NotifySessionSummary(context.Context, time.Duration, float64, int) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
