package notifications

import (
	"context"
	"log/slog"
	"time"

	"nudge/internal/config"
	"nudge/internal/fusion"
	"nudge/internal/logging"
)

// Nudger decides when fused results warrant a nudge: a sustained focus drop
// or a long uninterrupted focus stretch. It runs on the coordinator
// goroutine and is reset per session.
type Nudger struct {
	cfg    config.Notifications
	svc    Service
	logger *slog.Logger
	now    func() time.Time

	sessionStart  time.Time
	belowSince    time.Time
	dropNotified  bool
	breakNotified bool
}

// NewNudger constructs a nudger over the given transport.
func NewNudger(cfg config.Notifications, svc Service, logger *slog.Logger) *Nudger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Nudger{
		cfg:    cfg,
		svc:    svc,
		logger: logging.WithComponent(logger, "nudger"),
		now:    time.Now,
	}
}

// WithClock overrides the nudger clock, used by tests.
func (n *Nudger) WithClock(now func() time.Time) *Nudger {
	n.now = now
	return n
}

// SessionStarted resets per-session state.
func (n *Nudger) SessionStarted() {
	n.sessionStart = n.now()
	n.belowSince = time.Time{}
	n.dropNotified = false
	n.breakNotified = false
}

// Observe inspects one fused result. Notification failures are logged and
// never propagate; a missed nudge must not disturb the pipeline.
func (n *Nudger) Observe(ctx context.Context, result fusion.FusionResult) {
	now := n.now()

	if result.Score < n.cfg.FocusDropThreshold {
		if n.belowSince.IsZero() {
			n.belowSince = now
		} else if !n.dropNotified && now.Sub(n.belowSince) >= n.dwell() {
			n.dropNotified = true
			if err := n.svc.NotifyFocusDrop(ctx, result.Score, result.Context.ActiveApp); err != nil {
				n.logger.Warn("focus-drop nudge failed", logging.Error(err))
			}
		}
	} else {
		n.belowSince = time.Time{}
		n.dropNotified = false
	}

	if !n.breakNotified && !n.sessionStart.IsZero() && now.Sub(n.sessionStart) >= n.breakAfter() {
		n.breakNotified = true
		if err := n.svc.NotifyBreakSuggested(ctx, now.Sub(n.sessionStart)); err != nil {
			n.logger.Warn("break nudge failed", logging.Error(err))
		}
	}
}

func (n *Nudger) dwell() time.Duration {
	if n.cfg.FocusDropDwellSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(n.cfg.FocusDropDwellSeconds) * time.Second
}

func (n *Nudger) breakAfter() time.Duration {
	if n.cfg.BreakAfterMinutes <= 0 {
		return 50 * time.Minute
	}
	return time.Duration(n.cfg.BreakAfterMinutes) * time.Minute
}
