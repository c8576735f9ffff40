// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/typewarrior/typewarrior/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	// Sparklines leave room for the row label.
	labelWidth = 12
)

// Summary aggregates a slice of completed tests.
type Summary struct {
	Tests       int
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	BestCombo   int
}

// Summarize computes aggregate metrics over the results.
func Summarize(results []model.TestResult) Summary {
	s := Summary{Tests: len(results)}
	if len(results) == 0 {
		return s
	}
	var wpmSum, accSum float64
	for _, r := range results {
		wpmSum += float64(r.WPM)
		accSum += float64(r.Accuracy)
		if r.WPM > s.BestWPM {
			s.BestWPM = r.WPM
		}
		if r.MaxCombo > s.BestCombo {
			s.BestCombo = r.MaxCombo
		}
	}
	s.AvgWPM = wpmSum / float64(len(results))
	s.AvgAccuracy = accSum / float64(len(results))
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FitWidth downsamples values to at most width points, averaging each
// bucket. Shorter series come back unchanged.
func FitWidth(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// RenderReport prints a summary plus WPM and accuracy trend sparklines.
// A totalWidth of zero sizes the sparklines to the terminal.
func RenderReport(w io.Writer, results []model.TestResult, window, totalWidth int) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No tests found.")
		return err
	}
	s := Summarize(results)
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Tests: %d\n", s.Tests); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg WPM: %.2f\n", s.AvgWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best WPM: %d\n", s.BestWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", s.AvgAccuracy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Combo: %d\n", s.BestCombo); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	sparkWidth := totalWidth - labelWidth
	if sparkWidth < 10 {
		sparkWidth = 10
	}

	wpms := make([]float64, len(results))
	accs := make([]float64, len(results))
	for i, r := range results {
		wpms[i] = float64(r.WPM)
		accs[i] = float64(r.Accuracy)
	}
	wpms = FitWidth(MovingAverage(wpms, window), sparkWidth)
	accs = FitWidth(MovingAverage(accs, window), sparkWidth)

	if _, err := fmt.Fprintf(w, "%-*s%s\n", labelWidth, "WPM", Sparkline(wpms)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%s\n", labelWidth, "Accuracy", Sparkline(accs)); err != nil {
		return err
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
