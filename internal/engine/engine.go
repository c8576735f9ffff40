// Package engine implements the per-keystroke typing test state machine.
package engine

import (
	"time"

	"github.com/typewarrior/typewarrior/internal/model"
	"github.com/typewarrior/typewarrior/internal/scoring"
	"github.com/typewarrior/typewarrior/internal/words"
)

// Status is the lifecycle state of a typing session.
type Status int

// Session states. Transitions only move forward; Restart recreates
// the session.
const (
	StatusIdle Status = iota
	StatusRunning
	StatusFinished
)

// Default budgets.
const (
	DefaultTimeBudget = 30 * time.Second
	DefaultWordBudget = 25
)

const (
	// Initial word count in time mode; the text is extended before it
	// can run out.
	timeModeWords = 50
	// Refill chunk appended when the untyped tail gets short.
	refillWords   = 20
	lowWaterChars = 20
)

// Config is the immutable per-test configuration.
type Config struct {
	Mode       model.Mode
	TimeBudget time.Duration
	WordBudget int
	Class      words.Class
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = model.ModeTime
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = DefaultTimeBudget
	}
	if c.WordBudget <= 0 {
		c.WordBudget = DefaultWordBudget
	}
	if c.Class == "" {
		c.Class = words.ClassPlain
	}
	return c
}

// TextSource supplies generated reference text.
type TextSource interface {
	Generate(count int, class words.Class) string
}

// Engine owns one typing session at a time.
type Engine struct {
	cfg   Config
	gen   TextSource
	clock func() time.Time

	status    Status
	reference []rune
	typed     []rune
	startedAt time.Time
	endedAt   time.Time
	combo     int
	maxCombo  int
	errors    int
	history   []model.MetricSample
}

// New returns an Engine with a freshly generated reference text.
func New(cfg Config, gen TextSource) *Engine {
	return NewWithClock(cfg, gen, time.Now)
}

// NewWithClock is New with an injected time source.
func NewWithClock(cfg Config, gen TextSource, clock func() time.Time) *Engine {
	e := &Engine{cfg: cfg.withDefaults(), gen: gen, clock: clock}
	e.reset()
	return e
}

// Configure replaces the test configuration and regenerates the
// reference text. No-op unless the session is Idle.
func (e *Engine) Configure(cfg Config) {
	if e.status != StatusIdle {
		return
	}
	e.cfg = cfg.withDefaults()
	e.reset()
}

// SetText pins the reference text directly, as multiplayer races do
// with the room's shared text. Completion follows word-count rules.
// No-op unless the session is Idle.
func (e *Engine) SetText(text string) {
	if e.status != StatusIdle {
		return
	}
	e.cfg.Mode = model.ModeWords
	e.reference = []rune(text)
}

// InsertRune feeds one keystroke into the session. The first
// keystroke starts the clock. Keystrokes after Finished are ignored.
func (e *Engine) InsertRune(r rune) {
	if e.status == StatusFinished {
		return
	}
	if e.status == StatusIdle {
		e.status = StatusRunning
		e.startedAt = e.clock()
	}

	pos := len(e.typed)
	if pos >= len(e.reference) {
		return
	}
	expected := e.reference[pos]
	if scoring.IsCorrect(r, expected) {
		e.typed = append(e.typed, r)
		e.combo++
		if e.combo > e.maxCombo {
			e.maxCombo = e.combo
		}
	} else {
		e.errors++
		e.combo = 0
		// A non-space keystroke never consumes a space slot: overtyping
		// one word is recorded as errors but stops at the word boundary,
		// so the rest of the test stays aligned.
		if expected != ' ' || r == ' ' {
			e.typed = append(e.typed, r)
		}
	}

	if e.cfg.Mode == model.ModeWords && len(e.typed) >= len(e.reference) {
		e.finish()
		return
	}
	if e.cfg.Mode == model.ModeTime && len(e.reference)-len(e.typed) < lowWaterChars {
		more := " " + e.gen.Generate(refillWords, e.cfg.Class)
		e.reference = append(e.reference, []rune(more)...)
	}
}

// DeleteRune removes the last typed character, or with wholeWord the
// trailing whitespace run and the word before it. Error and combo
// counters describe history and are never rewound.
func (e *Engine) DeleteRune(wholeWord bool) {
	if e.status != StatusRunning || len(e.typed) == 0 {
		return
	}
	if !wholeWord {
		e.typed = e.typed[:len(e.typed)-1]
		return
	}
	i := len(e.typed) - 1
	for i >= 0 && e.typed[i] == ' ' {
		i--
	}
	for i >= 0 && e.typed[i] != ' ' {
		i--
	}
	e.typed = e.typed[:i+1]
}

// Tick drives the per-second sampler and the time-mode deadline. It
// is idempotent within a whole second, so racing timer callbacks are
// harmless.
func (e *Engine) Tick() {
	if e.status != StatusRunning {
		return
	}
	now := e.clock()
	elapsed := now.Sub(e.startedAt)
	sec := int(elapsed / time.Second)
	if sec > 0 && (len(e.history) == 0 || e.history[len(e.history)-1].ElapsedSeconds != sec) {
		e.history = append(e.history, model.MetricSample{
			ElapsedSeconds: sec,
			NetWPM:         scoring.NetWPM(e.correctCount(), elapsed),
			RawWPM:         scoring.RawWPM(len(e.typed), elapsed),
			Errors:         e.errors,
		})
	}
	if e.cfg.Mode == model.ModeTime && elapsed >= e.cfg.TimeBudget {
		e.finish()
	}
}

// Restart discards the session and returns to Idle with fresh text.
func (e *Engine) Restart() {
	e.reset()
}

func (e *Engine) reset() {
	e.status = StatusIdle
	e.typed = nil
	e.startedAt = time.Time{}
	e.endedAt = time.Time{}
	e.combo = 0
	e.maxCombo = 0
	e.errors = 0
	e.history = nil

	count := e.cfg.WordBudget
	if e.cfg.Mode == model.ModeTime {
		count = timeModeWords
	}
	e.reference = []rune(e.gen.Generate(count, e.cfg.Class))
}

func (e *Engine) finish() {
	e.status = StatusFinished
	e.endedAt = e.clock()
}

// Status returns the session state.
func (e *Engine) Status() Status { return e.status }

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reference returns the reference text.
func (e *Engine) Reference() string { return string(e.reference) }

// Typed returns the typed buffer.
func (e *Engine) Typed() string { return string(e.typed) }

// Combo returns the current streak of correct keystrokes.
func (e *Engine) Combo() int { return e.combo }

// MaxCombo returns the longest streak of the session.
func (e *Engine) MaxCombo() int { return e.maxCombo }

// Errors returns the cumulative mistype count.
func (e *Engine) Errors() int { return e.errors }

// History returns a copy of the per-second metric samples.
func (e *Engine) History() []model.MetricSample {
	out := make([]model.MetricSample, len(e.history))
	copy(out, e.history)
	return out
}

// Elapsed returns wall time since the first keystroke.
func (e *Engine) Elapsed() time.Duration {
	if e.status == StatusIdle {
		return 0
	}
	if e.status == StatusFinished {
		return e.endedAt.Sub(e.startedAt)
	}
	return e.clock().Sub(e.startedAt)
}

// TimeLeft returns the remaining budget in time mode, zero otherwise.
func (e *Engine) TimeLeft() time.Duration {
	if e.cfg.Mode != model.ModeTime {
		return 0
	}
	left := e.cfg.TimeBudget - e.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// WPM returns the live net words per minute.
func (e *Engine) WPM() int {
	return scoring.NetWPM(e.correctCount(), e.Elapsed())
}

// RawWPM returns the live raw words per minute.
func (e *Engine) RawWPM() int {
	return scoring.RawWPM(len(e.typed), e.Elapsed())
}

// Accuracy returns the live accuracy percentage.
func (e *Engine) Accuracy() int {
	return scoring.AccuracyPercent(e.correctCount(), e.correctCount()+e.errors)
}

// ProgressPercent returns how far through the reference text the
// session has correctly advanced.
func (e *Engine) ProgressPercent() float64 {
	return scoring.Progress(string(e.typed), string(e.reference))
}

// Result summarizes a Finished session. The second return is false
// while the session is still in progress.
func (e *Engine) Result() (model.TestResult, bool) {
	if e.status != StatusFinished {
		return model.TestResult{}, false
	}
	elapsed := e.endedAt.Sub(e.startedAt)
	return model.TestResult{
		StartedAt:  e.startedAt,
		EndedAt:    e.endedAt,
		Mode:       e.cfg.Mode,
		Class:      string(e.cfg.Class),
		WPM:        scoring.NetWPM(e.correctCount(), elapsed),
		RawWPM:     scoring.RawWPM(len(e.typed), elapsed),
		Accuracy:   e.Accuracy(),
		Errors:     e.errors,
		MaxCombo:   e.maxCombo,
		DurationMs: elapsed.Milliseconds(),
	}, true
}

func (e *Engine) correctCount() int {
	n := 0
	for i, r := range e.typed {
		if i < len(e.reference) && r == e.reference[i] {
			n++
		}
	}
	return n
}
