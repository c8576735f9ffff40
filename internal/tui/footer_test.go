package tui

import (
	"strings"
	"testing"

	"github.com/typewarrior/typewarrior/internal/engine"
	"github.com/typewarrior/typewarrior/internal/model"
	"github.com/typewarrior/typewarrior/internal/words"
)

type fixedSource struct{ text string }

func (f fixedSource) Generate(count int, class words.Class) string { return f.text }

func TestRenderFooterTimeMode(t *testing.T) {
	eng := engine.New(engine.Config{Mode: model.ModeTime}, fixedSource{text: "hello world"})
	m := &PracticeModel{
		eng:     eng,
		hasLast: true,
		lastWPM: 72,
		lastAcc: 97,
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Time 30s", "0 WPM", "Acc 100%", "Combo 0", "Last 72 WPM · 97%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWordMode(t *testing.T) {
	eng := engine.New(engine.Config{Mode: model.ModeWords, WordBudget: 2}, fixedSource{text: "ab cd"})
	eng.InsertRune('a')
	m := &PracticeModel{eng: eng}
	out := m.renderFooter()
	if !strings.Contains(out, "Progress 20%") {
		t.Fatalf("footer missing progress segment: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
