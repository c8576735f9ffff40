package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/typewarrior/typewarrior/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "typewarrior.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sampleResult(endedAt time.Time, mode model.Mode, wpm int) model.TestResult {
	return model.TestResult{
		StartedAt:  endedAt.Add(-30 * time.Second),
		EndedAt:    endedAt,
		Mode:       mode,
		Class:      "plain",
		WPM:        wpm,
		RawWPM:     wpm + 5,
		Accuracy:   97,
		Errors:     3,
		MaxCombo:   42,
		DurationMs: 30000,
	}
}

func TestInsertAndListResults(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	samples := []model.MetricSample{
		{ElapsedSeconds: 1, NetWPM: 50, RawWPM: 55, Errors: 1},
		{ElapsedSeconds: 2, NetWPM: 62, RawWPM: 66, Errors: 1},
	}
	id, err := s.InsertResult(ctx, sampleResult(base, model.ModeTime, 62), samples)
	if err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero result id")
	}

	results, err := s.ListResults(ctx, model.StatsFilter{})
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.WPM != 62 || got.Mode != model.ModeTime || got.Class != "plain" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.EndedAt.Equal(base) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, base)
	}

	stored, err := s.ListSamples(ctx, id)
	if err != nil {
		t.Fatalf("ListSamples: %v", err)
	}
	if len(stored) != 2 || stored[1].NetWPM != 62 {
		t.Errorf("samples round-trip mismatch: %+v", stored)
	}
}

func TestListResultsFilters(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, mode := range []model.Mode{model.ModeTime, model.ModeWords, model.ModeTime} {
		if _, err := s.InsertResult(ctx, sampleResult(base.Add(time.Duration(i)*time.Hour), mode, 50+i*10), nil); err != nil {
			t.Fatalf("InsertResult: %v", err)
		}
	}

	byMode, err := s.ListResults(ctx, model.StatsFilter{Mode: string(model.ModeWords)})
	if err != nil {
		t.Fatalf("ListResults(mode): %v", err)
	}
	if len(byMode) != 1 || byMode[0].WPM != 60 {
		t.Errorf("mode filter mismatch: %+v", byMode)
	}

	since := base.Add(30 * time.Minute)
	bySince, err := s.ListResults(ctx, model.StatsFilter{Since: &since})
	if err != nil {
		t.Fatalf("ListResults(since): %v", err)
	}
	if len(bySince) != 2 {
		t.Errorf("since filter returned %d results, want 2", len(bySince))
	}

	last, err := s.ListResults(ctx, model.StatsFilter{Last: 2})
	if err != nil {
		t.Fatalf("ListResults(last): %v", err)
	}
	if len(last) != 2 || last[1].WPM != 70 {
		t.Errorf("last filter mismatch: %+v", last)
	}
}

func TestListSamplesUnknownResult(t *testing.T) {
	s := openTemp(t)
	samples, err := s.ListSamples(context.Background(), 999)
	if err != nil {
		t.Fatalf("ListSamples: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("got %d samples for unknown result, want 0", len(samples))
	}
}
