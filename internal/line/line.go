// Package line holds the smallest data types the detector works with: a
// single line of removed or added text, and the indentation change between
// two lines.
package line

import "strings"

// Line is one line from a diff side (removed or added), already split into
// its leading whitespace and the rest of the text. leading_whitespace ++
// trim_text always reconstructs the original content; trailing whitespace
// on trim_text is preserved.
type Line struct {
	File              string
	LineNo            int
	LeadingWhitespace string
	TrimText          string
}

// New builds a Line from a file, a positive line number and raw text,
// re-deriving the whitespace/trim_text split so the invariant holds
// regardless of what the caller passed in.
func New(file string, lineNo int, text string) Line {
	ws, trim := SplitLeadingWhitespace(text)
	return Line{
		File:              file,
		LineNo:            lineNo,
		LeadingWhitespace: ws,
		TrimText:          trim,
	}
}

// FromParts builds a Line directly from an already-split whitespace/trim
// pair, without re-deriving them from a combined string. Used when the
// caller (e.g. a JSON-decoded input record) already carries the two fields
// separately; the normalization in New is only needed when starting from
// a single raw text string.
func FromParts(file string, lineNo int, leadingWhitespace, trimText string) Line {
	return Line{File: file, LineNo: lineNo, LeadingWhitespace: leadingWhitespace, TrimText: trimText}
}

// SplitLeadingWhitespace splits text into the run of space/tab characters
// at its start and everything after. Trailing whitespace on the remainder
// is preserved.
func SplitLeadingWhitespace(text string) (leadingWhitespace, trimText string) {
	trimText = strings.TrimLeft(text, " \t")
	leadingWhitespace = text[:len(text)-len(trimText)]
	return leadingWhitespace, trimText
}

// Text reconstructs the original line content.
func (l Line) Text() string {
	return l.LeadingWhitespace + l.TrimText
}

// IsEmpty reports whether the line has no non-whitespace content.
func (l Line) IsEmpty() bool {
	return l.TrimText == ""
}

// IsLineBefore reports whether l is immediately before other in the same
// file: same file, line numbers differing by exactly 1.
func (l Line) IsLineBefore(other Line) bool {
	return l.File == other.File && l.LineNo+1 == other.LineNo
}

// IndentKind distinguishes whether whitespace was removed or added going
// from a removed line to its matching added line.
type IndentKind int

const (
	// IndentRemoved means the removed line had more leading whitespace
	// than the added line.
	IndentRemoved IndentKind = iota
	// IndentAdded means the added line had at least as much leading
	// whitespace as the removed line (the zero-change case included).
	IndentAdded
)

// IndentationChange describes the whitespace delta between a removed line
// and an added line that are considered the "same" line moved elsewhere.
type IndentationChange struct {
	Kind       IndentKind
	Whitespace string
}

// CalculateIndentationChange derives the indentation change between removed
// line r and added line a, per spec: whichever side has more leading
// whitespace contributes the extra prefix, tagged with its kind.
func CalculateIndentationChange(r, a Line) IndentationChange {
	rw, aw := r.LeadingWhitespace, a.LeadingWhitespace
	if len(rw) > len(aw) {
		return IndentationChange{Kind: IndentRemoved, Whitespace: rw[:len(rw)-len(aw)]}
	}
	return IndentationChange{Kind: IndentAdded, Whitespace: aw[:len(aw)-len(rw)]}
}

// Matches reports whether removed line r and added line a are consistent
// with indentation change ic. Empty lines always match, regardless of ic.
func (ic IndentationChange) Matches(r, a Line) bool {
	if r.IsEmpty() && a.IsEmpty() {
		return true
	}
	switch ic.Kind {
	case IndentRemoved:
		return r.LeadingWhitespace == ic.Whitespace+a.LeadingWhitespace
	default:
		return ic.Whitespace+r.LeadingWhitespace == a.LeadingWhitespace
	}
}

// Record is the wire shape of a Line, matching the external JSON contract:
// file, line_no, leading_whitespaces, trim_text.
type Record struct {
	File              string `json:"file"`
	LineNo            int    `json:"line_no"`
	LeadingWhitespace string `json:"leading_whitespaces"`
	TrimText          string `json:"trim_text"`
}

// ToRecord converts a Line to its wire representation.
func (l Line) ToRecord() Record {
	return Record{
		File:              l.File,
		LineNo:            l.LineNo,
		LeadingWhitespace: l.LeadingWhitespace,
		TrimText:          l.TrimText,
	}
}

// FromRecord builds a Line from its wire representation, re-normalizing
// leading_whitespaces/trim_text against the reconstructed text so a
// malformed input record (fields inconsistent with a "whitespace prefix"
// split) cannot smuggle leading whitespace into TrimText.
func FromRecord(r Record) Line {
	return New(r.File, r.LineNo, r.LeadingWhitespace+r.TrimText)
}
