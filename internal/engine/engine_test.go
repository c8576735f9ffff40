package engine

import (
	"testing"
	"time"

	"github.com/typewarrior/typewarrior/internal/model"
	"github.com/typewarrior/typewarrior/internal/words"
)

// fixedSource returns the same text regardless of the requested count,
// so tests control the reference exactly.
type fixedSource struct {
	text string
}

func (f fixedSource) Generate(count int, class words.Class) string {
	return f.text
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(cfg Config, text string) (*Engine, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	e := NewWithClock(cfg, fixedSource{text: text}, clock.Now)
	return e, clock
}

func typeString(e *Engine, s string) {
	for _, r := range s {
		e.InsertRune(r)
	}
}

func TestInsertCorrectSequence(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "the cat")
	typeString(e, "the ")
	if got := e.Typed(); got != "the " {
		t.Fatalf("expected typed %q, got %q", "the ", got)
	}
	if e.Errors() != 0 {
		t.Fatalf("expected 0 errors, got %d", e.Errors())
	}
	if e.Combo() != 4 {
		t.Fatalf("expected combo 4, got %d", e.Combo())
	}
}

func TestInsertMismatchRecordsError(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "the")
	typeString(e, "tg")
	if got := e.Typed(); got != "tg" {
		t.Fatalf("expected typed %q, got %q", "tg", got)
	}
	if e.Errors() != 1 {
		t.Fatalf("expected 1 error, got %d", e.Errors())
	}
	if e.Combo() != 0 {
		t.Fatalf("expected combo reset, got %d", e.Combo())
	}
	if e.MaxCombo() != 1 {
		t.Fatalf("expected max combo 1, got %d", e.MaxCombo())
	}
}

func TestWordModeFinishesInsideInsert(t *testing.T) {
	text := "abcde fghij klmno qrstu" // exactly 23 chars
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, text)
	typeString(e, text)
	if e.Status() != StatusFinished {
		t.Fatalf("expected Finished immediately after last keystroke")
	}
	res, ok := e.Result()
	if !ok {
		t.Fatalf("expected a result for a finished session")
	}
	if res.Errors != 0 || res.MaxCombo != len(text) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestKeystrokeAfterFinishedIgnored(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "ab")
	typeString(e, "ab")
	if e.Status() != StatusFinished {
		t.Fatalf("expected finished")
	}
	before := e.Typed()
	e.InsertRune('x')
	if e.Typed() != before {
		t.Fatalf("keystroke after Finished mutated the buffer")
	}
}

func TestFirstKeystrokeStartsClock(t *testing.T) {
	e, clock := newTestEngine(Config{Mode: model.ModeTime, TimeBudget: 10 * time.Second}, "aaaa bbbb cccc dddd eeee ffff")
	clock.Advance(5 * time.Second) // idle waiting must not count
	e.InsertRune('a')
	if e.Status() != StatusRunning {
		t.Fatalf("expected Running after first keystroke")
	}
	if got := e.Elapsed(); got != 0 {
		t.Fatalf("expected zero elapsed right after start, got %v", got)
	}
}

func TestWordBoundaryOverflowCapped(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "ab cd")
	typeString(e, "ab")
	// Overtype the word: non-space keystrokes at the space slot are
	// errors but never consume it.
	typeString(e, "xyz")
	if got := e.Typed(); got != "ab" {
		t.Fatalf("expected buffer to stay at the boundary, got %q", got)
	}
	if e.Errors() != 3 {
		t.Fatalf("expected 3 overflow errors, got %d", e.Errors())
	}
	// A space still resyncs onto the space slot.
	typeString(e, " cd")
	if e.Status() != StatusFinished {
		t.Fatalf("expected session to finish after resync")
	}
	if got := e.Typed(); got != "ab cd" {
		t.Fatalf("expected aligned buffer, got %q", got)
	}
}

func TestDeleteRune(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "one two three")
	typeString(e, "one twx")
	errsBefore := e.Errors()
	e.DeleteRune(false)
	if got := e.Typed(); got != "one tw" {
		t.Fatalf("expected %q, got %q", "one tw", got)
	}
	if e.Errors() != errsBefore {
		t.Fatalf("deletion must not rewind the error counter")
	}
	e.DeleteRune(true)
	if got := e.Typed(); got != "one " {
		t.Fatalf("expected word deleted, got %q", got)
	}
	e.DeleteRune(true)
	if got := e.Typed(); got != "" {
		t.Fatalf("expected empty buffer, got %q", got)
	}
	e.DeleteRune(false) // empty buffer is a no-op
	if got := e.Typed(); got != "" {
		t.Fatalf("expected no-op on empty buffer, got %q", got)
	}
}

func TestDeleteIgnoredWhenIdle(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "abc")
	e.DeleteRune(false)
	if e.Status() != StatusIdle {
		t.Fatalf("delete while Idle must not change state")
	}
}

func TestSamplerIdempotentPerSecond(t *testing.T) {
	e, clock := newTestEngine(Config{Mode: model.ModeTime, TimeBudget: time.Minute}, "aaaa bbbb cccc dddd eeee ffff gggg")
	e.InsertRune('a')
	clock.Advance(1500 * time.Millisecond)
	e.Tick()
	e.Tick()
	e.Tick()
	if got := len(e.History()); got != 1 {
		t.Fatalf("expected exactly one sample for the second, got %d", got)
	}
	clock.Advance(time.Second)
	e.Tick()
	hist := e.History()
	if len(hist) != 2 {
		t.Fatalf("expected two samples, got %d", len(hist))
	}
	if hist[0].ElapsedSeconds != 1 || hist[1].ElapsedSeconds != 2 {
		t.Fatalf("unexpected sample seconds: %+v", hist)
	}
}

func TestTimeModeFinishesOnDeadlineTick(t *testing.T) {
	e, clock := newTestEngine(Config{Mode: model.ModeTime, TimeBudget: 3 * time.Second}, "aaaa bbbb cccc dddd eeee ffff gggg")
	typeString(e, "aaaa")
	clock.Advance(3 * time.Second)
	e.Tick()
	if e.Status() != StatusFinished {
		t.Fatalf("expected Finished on the deadline tick")
	}
	if e.TimeLeft() != 0 {
		t.Fatalf("expected no time left, got %v", e.TimeLeft())
	}
}

func TestTimeModeExtendsReference(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeTime, TimeBudget: time.Minute}, "abcdefghij klmnopqrst")
	ref := e.Reference()
	typeString(e, ref[:len(ref)-5])
	if len(e.Reference()) <= len(ref) {
		t.Fatalf("expected lazy extension of reference text")
	}
}

func TestRestartRoundTrip(t *testing.T) {
	e, clock := newTestEngine(Config{Mode: model.ModeTime, TimeBudget: time.Minute}, "aaaa bbbb cccc dddd eeee")
	typeString(e, "aaxa")
	clock.Advance(2 * time.Second)
	e.Tick()
	e.Restart()
	if e.Status() != StatusIdle {
		t.Fatalf("expected Idle after restart")
	}
	if e.Typed() != "" || e.Errors() != 0 || e.Combo() != 0 || e.MaxCombo() != 0 {
		t.Fatalf("restart left residual state: typed=%q errors=%d combo=%d max=%d",
			e.Typed(), e.Errors(), e.Combo(), e.MaxCombo())
	}
	if len(e.History()) != 0 {
		t.Fatalf("restart must clear history")
	}
}

func TestCountersMonotonic(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "ab ab ab ab")
	prevErrors, prevMax := 0, 0
	for _, r := range "axb babx ab" {
		e.InsertRune(r)
		if e.Errors() < prevErrors {
			t.Fatalf("errorCount decreased")
		}
		if e.MaxCombo() < prevMax {
			t.Fatalf("maxCombo decreased")
		}
		prevErrors, prevMax = e.Errors(), e.MaxCombo()
	}
}

func TestConfigureOnlyWhileIdle(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "abc def")
	e.InsertRune('a')
	e.Configure(Config{Mode: model.ModeTime})
	if e.Config().Mode != model.ModeWords {
		t.Fatalf("configure while Running must be ignored")
	}
}

func TestSetTextPinsReference(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeTime}, "generated text here")
	e.SetText("race text")
	if e.Reference() != "race text" {
		t.Fatalf("expected pinned reference, got %q", e.Reference())
	}
	typeString(e, "race text")
	if e.Status() != StatusFinished {
		t.Fatalf("pinned text must finish by word-count rules")
	}
}

func TestAccuracyAndProgress(t *testing.T) {
	e, _ := newTestEngine(Config{Mode: model.ModeWords}, "abcd")
	if e.Accuracy() != 100 {
		t.Fatalf("expected 100%% accuracy before typing, got %d", e.Accuracy())
	}
	typeString(e, "ab")
	if e.ProgressPercent() != 50 {
		t.Fatalf("expected 50%% progress, got %f", e.ProgressPercent())
	}
	if e.Accuracy() != 100 {
		t.Fatalf("expected 100%% accuracy, got %d", e.Accuracy())
	}
}
