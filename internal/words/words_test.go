package words

import (
	"strings"
	"testing"
)

func TestGenerateTokenCount(t *testing.T) {
	g := New()
	for _, class := range []Class{ClassPlain, ClassNumbers, ClassSymbols, ClassJavascript, ClassPython, ClassHTML, ClassHardcore} {
		text := g.Generate(40, class)
		tokens := strings.Fields(text)
		if len(tokens) != 40 {
			t.Fatalf("class %s: expected 40 tokens, got %d", class, len(tokens))
		}
	}
}

func TestGenerateZeroCount(t *testing.T) {
	g := New()
	if got := g.Generate(0, ClassPlain); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestGeneratePlainUsesDictionary(t *testing.T) {
	g := NewWithWords([]string{"alpha"})
	text := g.Generate(5, ClassPlain)
	if text != "alpha alpha alpha alpha alpha" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestParseClass(t *testing.T) {
	if _, err := ParseClass("plain"); err != nil {
		t.Fatalf("expected plain to parse: %v", err)
	}
	if _, err := ParseClass("klingon"); err == nil {
		t.Fatalf("expected unknown class to be rejected")
	}
}

func TestASCIIWordFilter(t *testing.T) {
	if !asciiWord("hello") {
		t.Fatalf("expected hello to pass the filter")
	}
	for _, word := range []string{"résumé", "naïve", "don’t", "two words"} {
		if asciiWord(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestRaceTextStable(t *testing.T) {
	if RaceTextCount() == 0 {
		t.Fatalf("expected a curated race text pool")
	}
	if RaceText(1) != RaceText(1+RaceTextCount()) {
		t.Fatalf("expected pool indexing to wrap deterministically")
	}
	if RaceText(-2) == "" {
		t.Fatalf("expected negative index to resolve")
	}
}
