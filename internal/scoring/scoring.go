// Package scoring contains the pure typing-metric primitives.
package scoring

import (
	"math"
	"time"
)

// wordLength is the standard "5 characters = 1 word" normalization.
// Every WPM figure in the program uses it so numbers stay comparable.
const wordLength = 5.0

// IsCorrect reports whether a typed rune matches the reference rune.
// Strict equality, no case folding.
func IsCorrect(typed, reference rune) bool {
	return typed == reference
}

// NetWPM computes words per minute from correctly typed characters.
// Returns 0 for non-positive elapsed time.
func NetWPM(correctChars int, elapsed time.Duration) int {
	return wpm(correctChars, elapsed)
}

// RawWPM computes words per minute from all keystrokes regardless of
// correctness.
func RawWPM(totalChars int, elapsed time.Duration) int {
	return wpm(totalChars, elapsed)
}

func wpm(chars int, elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	v := int(math.Round(float64(chars) / wordLength / minutes))
	if v < 0 {
		return 0
	}
	return v
}

// AccuracyPercent returns the rounded percentage of correct keystrokes.
// An empty session scores 100: no penalty before typing starts.
func AccuracyPercent(correct, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// CountCorrect counts positions where typed matches reference.
func CountCorrect(typed, reference string) int {
	t := []rune(typed)
	r := []rune(reference)
	n := 0
	for i, c := range t {
		if i < len(r) && c == r[i] {
			n++
		}
	}
	return n
}

// Progress returns the percentage of the reference text correctly
// advanced through, clamped to [0,100].
func Progress(typed, reference string) float64 {
	refLen := len([]rune(reference))
	if refLen == 0 {
		return 0
	}
	p := 100 * float64(CountCorrect(typed, reference)) / float64(refLen)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
