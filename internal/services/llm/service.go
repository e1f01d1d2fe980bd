package llm

import (
	"context"
	"log/slog"

	"nudge/internal/config"
	"nudge/internal/logging"
	"nudge/internal/screen"
	"nudge/internal/vision"
)

// Service combines the gate and client into the single surface the fusion
// engine consumes: it may return nil (call not warranted), a failed result
// (call attempted, degraded), or a successful analysis.
type Service struct {
	gate   *Gate
	client *Client
	logger *slog.Logger
}

// NewService wires the gate and client from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		gate:   NewGate(cfg.Remote),
		client: NewClient(cfg.Remote),
		logger: logging.WithComponent(logger, "remote"),
	}
}

// NewServiceWith assembles a service from pre-built parts, used by tests.
func NewServiceWith(gate *Gate, client *Client, logger *slog.Logger) *Service {
	return &Service{gate: gate, client: client, logger: logging.WithComponent(logger, "remote")}
}

// Gate exposes the policy state for session/thermal updates and status reads.
func (s *Service) Gate() *Gate {
	return s.gate
}

// MaybeAnalyze runs the gate decision and, when granted, a single remote
// call. Transport and decode failures are logged and degrade to a failed
// result; they never propagate as errors.
func (s *Service) MaybeAnalyze(ctx context.Context, localConfidence float64, m vision.FaceMetrics, snap screen.Snapshot) *Result {
	analysisCtx := DeriveContext(m, snap)
	if !s.gate.ShouldUseAPI(localConfidence, analysisCtx) {
		return nil
	}

	result, err := s.client.Analyze(ctx, BuildUserPrompt(m, snap))
	if err != nil {
		s.logger.Warn("remote analysis failed, continuing local-only", logging.Error(err))
		return &Result{Success: false}
	}

	s.gate.RecordSuccess()
	s.logger.Debug("remote analysis complete",
		logging.Float64(logging.FieldConfidence, result.Confidence),
		logging.Int("daily_count", s.gate.DailyCount()),
	)
	return &result
}
