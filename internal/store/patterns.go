package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nudge/internal/patterns"
)

// UpsertPattern inserts or replaces a mined behavioral pattern, keyed by its
// stable identity.
func (s *Store) UpsertPattern(ctx context.Context, p patterns.BehavioralPattern) error {
	var timeOfDay, dayOfWeek sql.NullInt64
	if p.TimeOfDay != nil {
		timeOfDay = sql.NullInt64{Int64: int64(*p.TimeOfDay), Valid: true}
	}
	if p.DayOfWeek != nil {
		dayOfWeek = sql.NullInt64{Int64: int64(*p.DayOfWeek), Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO behavioral_patterns (
            id, pattern_type, frequency, average_interval_ms,
            time_of_day, day_of_week, application_context,
            trend, confidence, last_observed, active
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            pattern_type = excluded.pattern_type,
            frequency = excluded.frequency,
            average_interval_ms = excluded.average_interval_ms,
            time_of_day = excluded.time_of_day,
            day_of_week = excluded.day_of_week,
            application_context = excluded.application_context,
            trend = excluded.trend,
            confidence = excluded.confidence,
            last_observed = excluded.last_observed,
            active = excluded.active`,
		p.ID,
		string(p.Type),
		p.Frequency,
		p.AverageInterval.Milliseconds(),
		timeOfDay,
		dayOfWeek,
		p.ApplicationContext,
		string(p.Trend),
		p.Confidence,
		p.LastObserved.UTC().Format(time.RFC3339Nano),
		boolToInt(p.Active),
	)
	if err != nil {
		return fmt.Errorf("upsert pattern: %w", err)
	}
	return nil
}

// DeletePattern removes a pruned pattern.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM behavioral_patterns WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	return nil
}

// Patterns loads all persisted behavioral patterns, used to seed the
// analyzer on startup.
func (s *Store) Patterns(ctx context.Context) ([]patterns.BehavioralPattern, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, pattern_type, frequency, average_interval_ms,
            time_of_day, day_of_week, application_context,
            trend, confidence, last_observed, active
         FROM behavioral_patterns ORDER BY last_observed DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []patterns.BehavioralPattern
	for rows.Next() {
		var p patterns.BehavioralPattern
		var patternType, trend, lastObserved string
		var intervalMillis int64
		var timeOfDay, dayOfWeek sql.NullInt64
		var active int
		if err := rows.Scan(&p.ID, &patternType, &p.Frequency, &intervalMillis,
			&timeOfDay, &dayOfWeek, &p.ApplicationContext,
			&trend, &p.Confidence, &lastObserved, &active); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.Type = patterns.PatternType(patternType)
		p.Trend = patterns.Trend(trend)
		p.AverageInterval = time.Duration(intervalMillis) * time.Millisecond
		p.Active = active != 0
		if timeOfDay.Valid {
			hour := int(timeOfDay.Int64)
			p.TimeOfDay = &hour
		}
		if dayOfWeek.Valid {
			day := time.Weekday(dayOfWeek.Int64)
			p.DayOfWeek = &day
		}
		ts, err := time.Parse(time.RFC3339Nano, lastObserved)
		if err != nil {
			return nil, fmt.Errorf("parse pattern timestamp: %w", err)
		}
		p.LastObserved = ts
		out = append(out, p)
	}
	return out, rows.Err()
}
