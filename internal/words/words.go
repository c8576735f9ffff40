// Package words builds typing text sequences.
package words

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Class selects the character mix of generated text.
type Class string

// Text classes.
const (
	ClassPlain      Class = "plain"
	ClassNumbers    Class = "numbers"
	ClassSymbols    Class = "symbols"
	ClassJavascript Class = "javascript"
	ClassPython     Class = "python"
	ClassHTML       Class = "html"
	ClassHardcore   Class = "hardcore"
)

// ParseClass maps a user-supplied class name to a Class.
func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case ClassPlain, ClassNumbers, ClassSymbols, ClassJavascript, ClassPython, ClassHTML, ClassHardcore:
		return Class(s), nil
	}
	return "", fmt.Errorf("unknown text class %q", s)
}

// Generator produces randomized typing text.
type Generator struct {
	rnd   *rand.Rand
	words []string
}

// New returns a Generator over the built-in dictionary, seeded with
// the current time.
func New() *Generator {
	return NewWithWords(commonWords)
}

// NewWithWords returns a Generator over a custom dictionary.
func NewWithWords(words []string) *Generator {
	if len(words) == 0 {
		words = commonWords
	}
	return &Generator{
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		words: words,
	}
}

// Generate returns count space-joined tokens of the given class. It
// never returns fewer tokens than requested.
func (g *Generator) Generate(count int, class Class) string {
	if count <= 0 {
		return ""
	}
	tokens := make([]string, 0, count)
	for i := 0; i < count; i++ {
		tokens = append(tokens, g.token(class))
	}
	return strings.Join(tokens, " ")
}

func (g *Generator) token(class Class) string {
	switch class {
	case ClassNumbers:
		return g.numberToken()
	case ClassSymbols:
		return g.symbolToken()
	case ClassJavascript:
		return g.pick(javascriptKeywords)
	case ClassPython:
		return g.pick(pythonKeywords)
	case ClassHTML:
		return g.pick(htmlTags)
	case ClassHardcore:
		return g.hardcoreToken()
	default:
		return g.pick(g.words)
	}
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

func (g *Generator) numberToken() string {
	num := fmt.Sprintf("%d", g.rnd.Intn(10000))
	if g.rnd.Float64() > 0.8 {
		num += g.pick(numberPunct)
	}
	return num
}

func (g *Generator) symbolToken() string {
	if g.rnd.Float64() > 0.5 {
		return g.pick(symbolPairs)
	}
	return g.pick(g.words) + string(g.pick(symbolPairs)[0])
}

func (g *Generator) hardcoreToken() string {
	word := g.pick(g.words)
	if g.rnd.Float64() > 0.5 {
		word = strings.ToUpper(word[:1]) + word[1:]
	}
	if g.rnd.Float64() > 0.7 {
		word = strings.ToUpper(word)
	}
	if g.rnd.Float64() > 0.6 {
		word += fmt.Sprintf("%d", g.rnd.Intn(100))
	}
	if g.rnd.Float64() > 0.6 {
		sym := g.pick(symbolPairs)
		if g.rnd.Float64() > 0.5 {
			word = string(sym[0]) + word
		} else {
			word += sym
		}
	}
	return word
}

// LoadFile reads a custom dictionary, one word per line, dropping
// words the ASCII filter rejects.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || !asciiWord(word) {
			continue
		}
		out = append(out, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable words in %s", path)
	}
	return out, nil
}

// asciiWord accepts printable ASCII only; smart quotes and accented
// characters would desynchronize keystroke comparison.
func asciiWord(word string) bool {
	for _, r := range word {
		if r < '!' || r > '~' {
			return false
		}
	}
	return true
}

// RaceText returns a curated shared text for multiplayer races. The
// pool is fixed so every racer sees identical text.
func RaceText(i int) string {
	if i < 0 {
		i = -i
	}
	return raceTexts[i%len(raceTexts)]
}

// RaceTextCount reports the size of the curated pool.
func RaceTextCount() int {
	return len(raceTexts)
}
