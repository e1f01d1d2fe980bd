package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nudge/internal/fusion"
	"nudge/internal/logging"
	"nudge/internal/screen"
	"nudge/internal/session"
	"nudge/internal/testsupport"
)

func TestSessionLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := session.NewManager(cfg, st, logging.NewNop())

	if mgr.Active() {
		t.Fatal("manager must start inactive")
	}
	if _, err := mgr.Finish(); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Finish without session = %v, want ErrNoSession", err)
	}

	first, err := mgr.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if first.ID == "" || first.Start.IsZero() {
		t.Fatalf("session = %+v", first)
	}
	if _, err := mgr.Begin(); !errors.Is(err, session.ErrSessionActive) {
		t.Fatalf("second Begin = %v, want ErrSessionActive", err)
	}

	finished, err := mgr.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if finished.ID != first.ID || finished.End.IsZero() {
		t.Fatalf("finished = %+v", finished)
	}
	if mgr.Active() {
		t.Fatal("manager must be inactive after Finish")
	}
	if last, ok := mgr.Last(); !ok || last.ID != first.ID {
		t.Fatalf("Last = %+v, %v", last, ok)
	}
}

func TestExportWritesDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := start
	mgr := session.NewManager(cfg, st, logging.NewNop()).WithClock(func() time.Time { return clock })

	s, err := mgr.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	ctx := context.Background()
	result := fusion.FusionResult{
		Timestamp:  start.Add(time.Minute),
		Score:      0.8,
		Confidence: 0.9,
		Context:    screen.Snapshot{Timestamp: start.Add(time.Minute), SessionID: s.ID, ActiveApp: "Xcode"},
	}
	if err := st.AppendAttentionState(ctx, result); err != nil {
		t.Fatalf("append state: %v", err)
	}
	if err := st.AppendContextSample(ctx, result.Context); err != nil {
		t.Fatalf("append sample: %v", err)
	}

	clock = start.Add(10 * time.Minute)
	finished, err := mgr.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	path, err := mgr.Export(ctx, finished)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	wantName := "nudge_session_2026-03-10_09-00-00.json"
	if filepath.Base(path) != wantName {
		t.Fatalf("export file = %s, want %s", filepath.Base(path), wantName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc struct {
		SessionID       string            `json:"sessionId"`
		SessionStart    time.Time         `json:"sessionStart"`
		SessionEnd      time.Time         `json:"sessionEnd"`
		TotalDataPoints int               `json:"totalDataPoints"`
		AttentionStates []json.RawMessage `json:"attentionStates"`
		ContextSamples  []json.RawMessage `json:"contextSamples"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if doc.SessionID != s.ID {
		t.Fatalf("sessionId = %s, want %s", doc.SessionID, s.ID)
	}
	if doc.TotalDataPoints != 2 || len(doc.AttentionStates) != 1 || len(doc.ContextSamples) != 1 {
		t.Fatalf("counts = %d states=%d samples=%d", doc.TotalDataPoints, len(doc.AttentionStates), len(doc.ContextSamples))
	}
	if !doc.SessionEnd.After(doc.SessionStart) {
		t.Fatal("sessionEnd must follow sessionStart")
	}
}

func TestExportRequiresSessionID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := session.NewManager(cfg, st, logging.NewNop())

	if _, err := mgr.Export(context.Background(), session.Session{}); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Export = %v, want ErrNoSession", err)
	}
}
