// Package fuzzyset implements the n-gram cosine-similarity index used to
// find added-line texts that fuzzily match a removed line's trimmed text.
// It is a direct port of the gram-size-indexed FuzzySet from
// original_source/server/fuzzyset.py, restructured as a Go value type.
package fuzzyset

import (
	"math"
	"sort"
	"strings"
)

// DefaultGramLow and DefaultGramHigh bound the inclusive range of gram
// sizes the index maintains, per spec.
const (
	DefaultGramLow  = 2
	DefaultGramHigh = 3
)

type gramEntry struct {
	norm float64
	text string // lowercased
}

// Match is one query result: the cosine similarity score and the original
// (not lowercased) text it matched.
type Match struct {
	Score float64
	Text  string
}

// FuzzySet is an n-gram inverted index over a set of distinct (by
// lowercased form) strings, supporting cosine-similarity retrieval.
type FuzzySet struct {
	gramLow, gramHigh int

	// exactByLower maps a lowercased value to the first original-case
	// value added for it.
	exactByLower map[string]string

	// entries[g] and invertedIndex[g] are the per-gram-size tables.
	entries       map[int][]gramEntry
	invertedIndex map[int]map[string][]gramOccurrence
}

type gramOccurrence struct {
	entryIndex int
	count      int
}

// New builds an empty FuzzySet spanning gram sizes [gramLow, gramHigh].
func New(gramLow, gramHigh int) *FuzzySet {
	fs := &FuzzySet{
		gramLow:       gramLow,
		gramHigh:      gramHigh,
		exactByLower:  make(map[string]string),
		entries:       make(map[int][]gramEntry),
		invertedIndex: make(map[int]map[string][]gramOccurrence),
	}
	for g := gramLow; g <= gramHigh; g++ {
		fs.entries[g] = nil
		fs.invertedIndex[g] = make(map[string][]gramOccurrence)
	}
	return fs
}

// Add inserts value into every gram-size table. If the lowercased value was
// already present, Add is a no-op and reports false.
func (fs *FuzzySet) Add(value string) bool {
	lvalue := strings.ToLower(value)
	if _, ok := fs.exactByLower[lvalue]; ok {
		return false
	}
	for g := fs.gramLow; g <= fs.gramHigh; g++ {
		fs.addForGramSize(value, g)
	}
	fs.exactByLower[lvalue] = value
	return true
}

func (fs *FuzzySet) addForGramSize(value string, gramSize int) {
	lvalue := strings.ToLower(value)
	idx := len(fs.entries[gramSize])
	grams := gramCounts(lvalue, gramSize)
	norm := l2Norm(grams)
	fs.entries[gramSize] = append(fs.entries[gramSize], gramEntry{norm: norm, text: lvalue})
	inv := fs.invertedIndex[gramSize]
	for gram, occ := range grams {
		inv[gram] = append(inv[gram], gramOccurrence{entryIndex: idx, count: occ})
	}
}

// Query returns the added texts whose trimmed form is cosine-similar to
// value at score >= minScore, trying gram sizes from gramHigh down to
// gramLow and returning the first size that produces any result. If
// exactOnly is true and value exists exactly, that single exact match is
// returned immediately at score 1.0. Returns nil if no gram size produces
// any match at or above minScore (the caller treats this as "no
// candidates", not an error).
func (fs *FuzzySet) Query(value string, minScore float64, exactOnly bool) []Match {
	lvalue := strings.ToLower(value)
	if exactOnly {
		if exact, ok := fs.exactByLower[lvalue]; ok {
			return []Match{{Score: 1.0, Text: exact}}
		}
	}
	for g := fs.gramHigh; g >= fs.gramLow; g-- {
		results := fs.queryGramSize(value, g, minScore)
		if len(results) > 0 {
			return results
		}
	}
	return nil
}

func (fs *FuzzySet) queryGramSize(value string, gramSize int, minScore float64) []Match {
	lvalue := strings.ToLower(value)
	grams := gramCounts(lvalue, gramSize)
	qNorm := l2Norm(grams)
	entries := fs.entries[gramSize]
	inv := fs.invertedIndex[gramSize]

	dot := make(map[int]float64)
	order := make([]int, 0)
	for gram, occ := range grams {
		for _, o := range inv[gram] {
			if _, seen := dot[o.entryIndex]; !seen {
				order = append(order, o.entryIndex)
			}
			dot[o.entryIndex] += float64(occ * o.count)
		}
	}
	if len(dot) == 0 {
		return nil
	}

	type scored struct {
		score float64
		text  string
		seq   int
	}
	results := make([]scored, 0, len(dot))
	for seq, idx := range order {
		entry := entries[idx]
		denom := qNorm * entry.norm
		var score float64
		if denom != 0 {
			score = dot[idx] / denom
		}
		if score >= minScore {
			results = append(results, scored{score: score, text: entry.text, seq: seq})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{Score: r.score, Text: fs.exactByLower[r.text]}
	}
	return out
}

func gramCounts(value string, gramSize int) map[string]int {
	counts := make(map[string]int)
	for _, g := range iterateGrams(value, gramSize) {
		counts[g]++
	}
	return counts
}

// iterateGrams pads value with a sentinel '-' on both ends; if that's still
// shorter than gramSize, it right-pads value itself with '-' (re-deriving
// the sentinel-padded string) until it is, then returns every sliding
// window of length gramSize over the result.
func iterateGrams(value string, gramSize int) []string {
	padded := "-" + value + "-"
	for len(padded) < gramSize {
		value += "-"
		padded = "-" + value + "-"
	}
	n := len(padded) - gramSize + 1
	grams := make([]string, 0, n)
	for i := 0; i < n; i++ {
		grams = append(grams, padded[i:i+gramSize])
	}
	return grams
}

func l2Norm(counts map[string]int) float64 {
	var sumSquares float64
	for _, c := range counts {
		sumSquares += float64(c * c)
	}
	return math.Sqrt(sumSquares)
}

// MinMatchScore implements the extension engine's threshold policy: short
// trimmed texts have too few grams to reliably clear 0.5, so they use a
// lower bar.
func MinMatchScore(trimLen int) float64 {
	if trimLen > 2 {
		return 0.5
	}
	return 0.35
}
