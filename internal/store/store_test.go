package store_test

import (
	"context"
	"testing"
	"time"

	"nudge/internal/fusion"
	"nudge/internal/patterns"
	"nudge/internal/perf"
	"nudge/internal/screen"
	"nudge/internal/store"
	"nudge/internal/testsupport"
)

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
}

func TestAttentionStateRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		result := fusion.FusionResult{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Score:      0.8,
			Confidence: 0.9,
			Factors: []fusion.AttentionFactor{
				{Type: fusion.FactorFaceMetrics, Score: 0.95, Confidence: 0.9, Description: "steady gaze"},
			},
			Insights: []string{"Morning work hours: usually the highest-focus stretch of the day."},
			Context: screen.Snapshot{
				Timestamp: base.Add(time.Duration(i) * time.Minute),
				ActiveApp: "Xcode",
				SessionID: "session-1",
			},
		}
		if err := st.AppendAttentionState(ctx, result); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	results, err := st.AttentionStatesBySession(ctx, "session-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[1].Timestamp.After(results[0].Timestamp) {
		t.Fatal("results must be ordered oldest first")
	}
	got := results[0]
	if got.Score != 0.8 || got.Confidence != 0.9 {
		t.Fatalf("scores = %v/%v", got.Score, got.Confidence)
	}
	if len(got.Factors) != 1 || got.Factors[0].Type != fusion.FactorFaceMetrics {
		t.Fatalf("factors = %+v", got.Factors)
	}
	if got.Context.ActiveApp != "Xcode" {
		t.Fatalf("context app = %q", got.Context.ActiveApp)
	}

	if other, err := st.AttentionStatesBySession(ctx, "other"); err != nil || len(other) != 0 {
		t.Fatalf("unexpected rows for other session: %v, %v", other, err)
	}
}

func TestContextSampleRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	snap := screen.Snapshot{
		Timestamp:        time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		ActiveApp:        "Xcode",
		ActiveWebsite:    "",
		ThermalState:     perf.ThermalFair,
		BatteryLevel:     0.42,
		Fullscreen:       true,
		WindowCount:      3,
		KeyboardActivity: 25,
		MouseActivity:    7,
		ScreenBrightness: 0.6,
		SessionID:        "session-1",
	}
	if err := st.AppendContextSample(ctx, snap); err != nil {
		t.Fatalf("append: %v", err)
	}

	samples, err := st.ContextSamplesBySession(ctx, "session-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(samples))
	}
	got := samples[0]
	if got.ThermalState != perf.ThermalFair || !got.Fullscreen || got.KeyboardActivity != 25 {
		t.Fatalf("sample = %+v", got)
	}
	if !got.Timestamp.Equal(snap.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, snap.Timestamp)
	}
}

func TestPatternUpsertAndDelete(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	hour := 9
	p := patterns.BehavioralPattern{
		ID:              "pattern-1",
		Type:            patterns.PatternHighFocusHour,
		Frequency:       12,
		AverageInterval: 90 * time.Second,
		TimeOfDay:       &hour,
		Trend:           patterns.TrendImproving,
		Confidence:      0.8,
		LastObserved:    time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Active:          true,
	}
	if err := st.UpsertPattern(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	p.Frequency = 20
	p.Trend = patterns.TrendStable
	if err := st.UpsertPattern(ctx, p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	loaded, err := st.Patterns(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("patterns = %d, want 1 after upsert", len(loaded))
	}
	got := loaded[0]
	if got.Frequency != 20 || got.Trend != patterns.TrendStable {
		t.Fatalf("pattern = %+v", got)
	}
	if got.TimeOfDay == nil || *got.TimeOfDay != 9 {
		t.Fatalf("time of day = %v", got.TimeOfDay)
	}
	if got.DayOfWeek != nil {
		t.Fatalf("day of week should be null, got %v", got.DayOfWeek)
	}
	if got.AverageInterval != 90*time.Second {
		t.Fatalf("interval = %v", got.AverageInterval)
	}

	if err := st.DeletePattern(ctx, "pattern-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	loaded, err = st.Patterns(ctx)
	if err != nil || len(loaded) != 0 {
		t.Fatalf("patterns after delete = %v, %v", loaded, err)
	}
}

func TestSessionCounts(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	now := time.Now().UTC()
	result := fusion.FusionResult{Timestamp: now, Context: screen.Snapshot{SessionID: "session-1"}}
	if err := st.AppendAttentionState(ctx, result); err != nil {
		t.Fatalf("append state: %v", err)
	}
	snap := screen.Snapshot{Timestamp: now, SessionID: "session-1"}
	if err := st.AppendContextSample(ctx, snap); err != nil {
		t.Fatalf("append sample: %v", err)
	}
	if err := st.AppendContextSample(ctx, snap); err != nil {
		t.Fatalf("append sample: %v", err)
	}

	states, samples, err := st.SessionCounts(ctx, "session-1")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if states != 1 || samples != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", states, samples)
	}
}
