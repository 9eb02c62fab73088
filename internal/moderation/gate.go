// Package moderation implements the content gate applied to posts and
// comments at write time.
//
// Matching is a case-insensitive substring check against a wordlist that
// is loaded once at startup and immutable afterwards, so Classify is safe
// to call from any goroutine without locking.
package moderation

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Verdict is the result of classifying a piece of text.
type Verdict int

const (
	// Permitted means no disallowed term matched.
	Permitted Verdict = iota
	// Blocked means at least one disallowed term matched.
	Blocked
)

func (v Verdict) String() string {
	if v == Blocked {
		return "blocked"
	}
	return "permitted"
}

// IsBlocked is a convenience for storing the verdict as a flag.
func (v Verdict) IsBlocked() bool {
	return v == Blocked
}

// Gate classifies text against its wordlist.
type Gate struct {
	terms []string
}

// Options configures gate construction.
type Options struct {
	// WordlistPath optionally points at a file with one term per line.
	// Blank lines and lines starting with '#' are skipped. When set, the
	// file replaces the built-in list.
	WordlistPath string

	// Terms, when non-empty, is used verbatim instead of the built-in
	// list or a file. Mainly for tests.
	Terms []string
}

// NewGate builds a gate with the built-in wordlist.
func NewGate() *Gate {
	g, _ := NewGateWithOptions(Options{})
	return g
}

// NewGateWithOptions builds a gate from the given options. The wordlist
// is normalized to lower case once here; Classify only folds the input.
func NewGateWithOptions(opts Options) (*Gate, error) {
	terms := opts.Terms
	if len(terms) == 0 && opts.WordlistPath != "" {
		loaded, err := loadWordlist(opts.WordlistPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load wordlist: %w", err)
		}
		terms = loaded
		log.Info().Str("path", opts.WordlistPath).Int("terms", len(terms)).Msg("moderation: wordlist loaded")
	}
	if len(terms) == 0 {
		terms = defaultTerms
	}

	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}
	return &Gate{terms: normalized}, nil
}

func loadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	return terms, scanner.Err()
}

// Classify returns Blocked if any disallowed term occurs in text as a
// case-insensitive substring, Permitted otherwise. The empty string is
// always permitted. Classify never fails.
func (g *Gate) Classify(text string) Verdict {
	if text == "" {
		return Permitted
	}
	folded := strings.ToLower(text)
	for _, term := range g.terms {
		if strings.Contains(folded, term) {
			return Blocked
		}
	}
	return Permitted
}
