// Package search provides a deterministic, concurrency-safe in-memory fuzzy
// matcher over short candidate strings (repository names, labels, logins,
// issue numbers). It backs autocomplete:
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware folding (case and diacritics) before matching
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Lower scores are better. Matches are tiered: exact (0), prefix (1), word
// prefix (2), substring (3), subsequence (4) and, within the configured edit
// budget, near misses (5 + distance). Inside a tier, candidates closer in
// length to the query rank first.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked candidate with its score (0 = exact match).
type Result struct {
	Value string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	maxDistance int
	defaultK    int
}

func defaultConfig() config {
	return config{
		maxDistance: 2,
		defaultK:    25,
	}
}

// WithMaxDistance sets the edit budget for near-miss matches; 0 disables
// them.
func WithMaxDistance(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxDistance = n
		}
	}
}

// WithDefaultK sets the result cap used when TopK is called with k <= 0.
func WithDefaultK(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.defaultK = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	value  string
	folded string
	words  []string
	runes  int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over candidates. Blank and duplicate candidates
// are dropped; input order is kept for empty queries and ties.
func NewIndex(candidates []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	seen := make(map[string]struct{}, len(candidates))
	docs := make([]doc, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		f := Fold(c)
		docs = append(docs, doc{value: c, folded: f, words: Words(f), runes: utf8.RuneCountInString(f)})
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best matches for q. An empty query returns the first
// k candidates in input order.
func (i *index) TopK(q string, k int) []Result {
	if k <= 0 {
		k = i.cfg.defaultK
	}
	if len(i.docs) == 0 {
		return nil
	}
	fq := Fold(q)
	if fq == "" {
		n := min(k, len(i.docs))
		out := make([]Result, n)
		for j := 0; j < n; j++ {
			out[j] = Result{Value: i.docs[j].value}
		}
		return out
	}
	qRunes := utf8.RuneCountInString(fq)

	type scored struct {
		value string
		score float64
		runes int
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		s, ok := i.score(fq, qRunes, d)
		if !ok {
			continue
		}
		buf = append(buf, scored{value: d.value, score: s, runes: d.runes})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score < buf[b].score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].value < buf[b].value
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{Value: buf[j].value, Score: buf[j].score}
	}
	return out
}

func (i *index) score(q string, qRunes int, d doc) (float64, bool) {
	// Length penalty in [0, 1) keeps tighter candidates first within a tier.
	pen := 0.0
	if d.runes > 0 {
		pen = float64(abs(d.runes-qRunes)) / float64(d.runes+1)
	}
	switch {
	case d.folded == q:
		return 0, true
	case strings.HasPrefix(d.folded, q):
		return 1 + pen, true
	case wordPrefix(d.words, q):
		return 2 + pen, true
	case strings.Contains(d.folded, q):
		return 3 + pen, true
	case subsequence(q, d.folded):
		return 4 + pen, true
	}
	if i.cfg.maxDistance == 0 {
		return 0, false
	}
	dist := levenshtein(q, d.folded)
	// Compare against the candidate's leading part as well, so that a typo
	// in a partial query still matches a longer name.
	if qRunes < d.runes {
		dist = min(dist, levenshtein(q, string([]rune(d.folded)[:qRunes])))
	}
	// Short queries tolerate proportionally fewer edits.
	if dist > i.cfg.maxDistance || dist*3 > qRunes {
		return 0, false
	}
	return 5 + float64(dist) + pen, true
}

// ----------------------------------------------------------------------------
// Helpers

func wordPrefix(words []string, q string) bool {
	for _, w := range words[min(1, len(words)):] {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}

// subsequence reports whether every rune of q appears in s in order.
func subsequence(q, s string) bool {
	qr := []rune(q)
	j := 0
	for _, r := range s {
		if j < len(qr) && r == qr[j] {
			j++
		}
	}
	return j == len(qr)
}

func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
