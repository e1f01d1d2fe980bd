package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nudge/internal/fusion"
	"nudge/internal/logging"
	"nudge/internal/screen"
)

const exportTimeLayout = "2006-01-02_15-04-05"

// exportDocument is the single pretty-printed JSON file written per session.
type exportDocument struct {
	SessionID       string                `json:"sessionId"`
	SessionStart    time.Time             `json:"sessionStart"`
	SessionEnd      time.Time             `json:"sessionEnd"`
	TotalDataPoints int                   `json:"totalDataPoints"`
	AttentionStates []fusion.FusionResult `json:"attentionStates"`
	ContextSamples  []screen.Snapshot     `json:"contextSamples"`
}

// Export writes the session's full record history to the export directory
// and returns the file path.
func (m *Manager) Export(ctx context.Context, s Session) (string, error) {
	if s.ID == "" {
		return "", ErrNoSession
	}
	if err := m.cfg.EnsureDirectories(); err != nil {
		return "", fmt.Errorf("ensure directories: %w", err)
	}

	states, err := m.store.AttentionStatesBySession(ctx, s.ID)
	if err != nil {
		return "", fmt.Errorf("fetch attention states: %w", err)
	}
	samples, err := m.store.ContextSamplesBySession(ctx, s.ID)
	if err != nil {
		return "", fmt.Errorf("fetch context samples: %w", err)
	}

	end := s.End
	if end.IsZero() {
		end = m.now()
	}
	doc := exportDocument{
		SessionID:       s.ID,
		SessionStart:    s.Start,
		SessionEnd:      end,
		TotalDataPoints: len(states) + len(samples),
		AttentionStates: states,
		ContextSamples:  samples,
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}

	name := fmt.Sprintf("nudge_session_%s.json", s.Start.Format(exportTimeLayout))
	path := filepath.Join(m.cfg.Paths.ExportDir, name)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	m.logger.Info("session exported",
		logging.String(logging.FieldSessionID, s.ID),
		logging.String("path", path),
		logging.Int("data_points", doc.TotalDataPoints))
	return path, nil
}
