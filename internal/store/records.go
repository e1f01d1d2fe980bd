package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nudge/internal/fusion"
	"nudge/internal/perf"
	"nudge/internal/screen"
)

// AppendAttentionState records one fused result. Rows are append-only and
// never mutated.
func (s *Store) AppendAttentionState(ctx context.Context, result fusion.FusionResult) error {
	factors, err := json.Marshal(result.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}
	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	contextJSON, err := json.Marshal(result.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO attention_states (
            session_id, recorded_at, score, confidence,
            factors_json, insights_json, context_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Context.SessionID,
		result.Timestamp.UTC().Format(time.RFC3339Nano),
		result.Score,
		result.Confidence,
		string(factors),
		string(insights),
		string(contextJSON),
	)
	if err != nil {
		return fmt.Errorf("insert attention state: %w", err)
	}
	return nil
}

// AttentionStatesBySession returns a session's fused results, oldest first.
func (s *Store) AttentionStatesBySession(ctx context.Context, sessionID string) ([]fusion.FusionResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT recorded_at, score, confidence, factors_json, insights_json, context_json
         FROM attention_states WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attention states: %w", err)
	}
	defer rows.Close()

	var results []fusion.FusionResult
	for rows.Next() {
		var recordedAt, factors, insights, contextJSON string
		var result fusion.FusionResult
		if err := rows.Scan(&recordedAt, &result.Score, &result.Confidence, &factors, &insights, &contextJSON); err != nil {
			return nil, fmt.Errorf("scan attention state: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse attention timestamp: %w", err)
		}
		result.Timestamp = ts
		if err := json.Unmarshal([]byte(factors), &result.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal factors: %w", err)
		}
		if err := json.Unmarshal([]byte(insights), &result.Insights); err != nil {
			return nil, fmt.Errorf("unmarshal insights: %w", err)
		}
		if err := json.Unmarshal([]byte(contextJSON), &result.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// AppendContextSample records one contextual snapshot.
func (s *Store) AppendContextSample(ctx context.Context, snap screen.Snapshot) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO context_samples (
            session_id, recorded_at, active_app, active_website,
            thermal_state, battery_level, fullscreen, window_count,
            keyboard_activity, mouse_activity, screen_brightness
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID,
		snap.Timestamp.UTC().Format(time.RFC3339Nano),
		snap.ActiveApp,
		snap.ActiveWebsite,
		string(snap.ThermalState),
		snap.BatteryLevel,
		boolToInt(snap.Fullscreen),
		snap.WindowCount,
		snap.KeyboardActivity,
		snap.MouseActivity,
		snap.ScreenBrightness,
	)
	if err != nil {
		return fmt.Errorf("insert context sample: %w", err)
	}
	return nil
}

// ContextSamplesBySession returns a session's contextual snapshots, oldest
// first.
func (s *Store) ContextSamplesBySession(ctx context.Context, sessionID string) ([]screen.Snapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT recorded_at, active_app, active_website, thermal_state,
            battery_level, fullscreen, window_count, keyboard_activity,
            mouse_activity, screen_brightness
         FROM context_samples WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query context samples: %w", err)
	}
	defer rows.Close()

	var samples []screen.Snapshot
	for rows.Next() {
		var recordedAt, thermal string
		var fullscreen int
		snap := screen.Snapshot{SessionID: sessionID}
		if err := rows.Scan(&recordedAt, &snap.ActiveApp, &snap.ActiveWebsite, &thermal,
			&snap.BatteryLevel, &fullscreen, &snap.WindowCount, &snap.KeyboardActivity,
			&snap.MouseActivity, &snap.ScreenBrightness); err != nil {
			return nil, fmt.Errorf("scan context sample: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse context timestamp: %w", err)
		}
		snap.Timestamp = ts
		snap.ThermalState = perf.ThermalState(thermal)
		snap.Fullscreen = fullscreen != 0
		samples = append(samples, snap)
	}
	return samples, rows.Err()
}

// SessionCounts returns how many attention states and context samples a
// session accumulated.
func (s *Store) SessionCounts(ctx context.Context, sessionID string) (states, samples int, err error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM attention_states WHERE session_id = ?", sessionID)
	if err := row.Scan(&states); err != nil {
		return 0, 0, fmt.Errorf("count attention states: %w", err)
	}
	row = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM context_samples WHERE session_id = ?", sessionID)
	if err := row.Scan(&samples); err != nil {
		return 0, 0, fmt.Errorf("count context samples: %w", err)
	}
	return states, samples, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
