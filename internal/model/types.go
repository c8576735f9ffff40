// Package model defines shared data structures.
package model

import "time"

// Mode selects how a typing test ends.
type Mode string

// Test modes.
const (
	ModeTime  Mode = "time"
	ModeWords Mode = "words"
)

// MetricSample is one per-second point of the live metrics timeseries.
type MetricSample struct {
	ElapsedSeconds int
	NetWPM         int
	RawWPM         int
	Errors         int
}

// TestResult captures a completed typing test.
type TestResult struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Mode       Mode
	Class      string
	WPM        int
	RawWPM     int
	Accuracy   int
	Errors     int
	MaxCombo   int
	DurationMs int64
}

// StatsFilter defines filters for stats output.
type StatsFilter struct {
	Since *time.Time
	Last  int
	Mode  string
}
