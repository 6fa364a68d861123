// Package render formats matched line pairs for human-facing output: a
// Levenshtein-normalized similarity score plus, for imperfect matches, a
// character-level diff. Adapted from the teacher's similarity.go
// (TextSimilarityNormalized) and diffengine.go's diffmatchpatch-based
// line rendering, repurposed here to annotate MatchingBlock pairs rather
// than drive the block-matching algorithm itself.
package render

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sergi/go-diff/diffmatchpatch"

	"movedblocks/internal/block"
)

// TextSimilarity returns the Levenshtein-normalized similarity of a and b
// in [0,1]; two empty strings are identical (1.0), one empty and one not
// are maximally dissimilar (0.0).
func TextSimilarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// CharDiff renders a's and b's trim texts as a single line of
// diffmatchpatch character-level insert/delete/equal markup, e.g.
// "foo[-bar-]{+baz+}".
func CharDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&sb, "[-%s-]", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&sb, "{+%s+}", d.Text)
		}
	}
	return sb.String()
}

// AnnotateImperfectMatches returns, for every matched line pair in b whose
// match_probability is below 1.0, a one-line human-readable annotation
// combining the Levenshtein similarity and a character-level diff.
func AnnotateImperfectMatches(b *block.MatchingBlock) []string {
	var out []string
	for _, ml := range b.Lines {
		if ml.RemovedLine == nil || ml.AddedLine == nil {
			continue
		}
		if ml.MatchProbability >= 1.0 {
			continue
		}
		sim := TextSimilarity(ml.RemovedLine.TrimText, ml.AddedLine.TrimText)
		out = append(out, fmt.Sprintf("  ~ %s:%d -> %s:%d (match=%.2f, levenshtein=%.2f): %s",
			ml.RemovedLine.File, ml.RemovedLine.LineNo,
			ml.AddedLine.File, ml.AddedLine.LineNo,
			ml.MatchProbability, sim,
			CharDiff(ml.RemovedLine.TrimText, ml.AddedLine.TrimText)))
	}
	return out
}
