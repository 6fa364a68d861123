// Package block implements the MatchingLine/MatchingBlock aggregate the
// extension engine grows, with all of its incrementally maintained
// derived fields.
package block

import "movedblocks/internal/line"

// MatchingLine pairs a removed line with an added line (either may be
// absent for a padding entry inserted while bridging blank-line gaps) and
// the probability the fuzzy index assigned to the match.
type MatchingLine struct {
	RemovedLine      *line.Line
	AddedLine        *line.Line
	MatchProbability float64
}

// MatchingLineRecord is the wire shape of a MatchingLine.
type MatchingLineRecord struct {
	RemovedLine      *line.Record `json:"removed_line"`
	AddedLine        *line.Record `json:"added_line"`
	MatchProbability float64      `json:"match_probability"`
}

// ToRecord converts a MatchingLine to its wire representation.
func (m MatchingLine) ToRecord() MatchingLineRecord {
	rec := MatchingLineRecord{MatchProbability: m.MatchProbability}
	if m.RemovedLine != nil {
		r := m.RemovedLine.ToRecord()
		rec.RemovedLine = &r
	}
	if m.AddedLine != nil {
		a := m.AddedLine.ToRecord()
		rec.AddedLine = &a
	}
	return rec
}

// MatchingBlock is a maximal contiguous run of MatchingLine entries,
// together with the counters the post-processor and dominance filter need.
// The extension engine grows a MatchingBlock; post-processing trims it
// (ClearEmptyLinesAtEnd), flags it (RemoveInsideLarger) or replaces it with
// a new block built by Merge.
type MatchingBlock struct {
	Lines []MatchingLine

	FirstRemoved *line.Line
	FirstAdded   *line.Line
	LastRemoved  *line.Line
	LastAdded    *line.Line

	IndentationChange line.IndentationChange

	NotEmptyLines      int
	WeightedLinesCount float64
	CharCount          int
	WeightedCharsCount float64
	MatchDensity       float64

	RemovedLineNumbers map[int]struct{}
	AddedLineNumbers   map[int]struct{}

	// RemoveInsideLarger is set by the removed-axis dominance sweep and
	// read back by the added-axis sweep; see
	// detector.filterOutBlockInsideOtherBlocks.
	RemoveInsideLarger bool
}

// FromLine creates a new one-line block seeding it with (removed, added,
// probability).
func FromLine(removed, added line.Line, probability float64) *MatchingBlock {
	b := &MatchingBlock{
		FirstRemoved:       &removed,
		FirstAdded:         &added,
		LastRemoved:        &removed,
		LastAdded:          &added,
		IndentationChange:  line.CalculateIndentationChange(removed, added),
		RemovedLineNumbers: map[int]struct{}{removed.LineNo: {}},
		AddedLineNumbers:   map[int]struct{}{added.LineNo: {}},
	}
	b.Lines = []MatchingLine{{RemovedLine: &removed, AddedLine: &added, MatchProbability: probability}}
	if !removed.IsEmpty() {
		b.NotEmptyLines = 1
		b.WeightedLinesCount = probability
	}
	b.CharCount = len(removed.TrimText) + len(added.TrimText)
	b.WeightedCharsCount = float64(b.CharCount) * probability
	b.MatchDensity = density(b.WeightedCharsCount, b.CharCount)
	return b
}

func density(weightedChars float64, chars int) float64 {
	if chars == 0 {
		return 0
	}
	return weightedChars / float64(chars)
}

// TryExtend attempts to append (removed, added, probability) to the block.
// It succeeds only if removed/added are each immediately after the block's
// current last line on their respective side, and the pair is consistent
// with the block's fixed indentation change.
func (b *MatchingBlock) TryExtend(removed, added line.Line, probability float64) bool {
	if b.LastRemoved == nil || b.LastAdded == nil {
		return false
	}
	if !b.LastRemoved.IsLineBefore(removed) || !b.LastAdded.IsLineBefore(added) {
		return false
	}
	if !b.IndentationChange.Matches(removed, added) {
		return false
	}

	b.Lines = append(b.Lines, MatchingLine{RemovedLine: &removed, AddedLine: &added, MatchProbability: probability})
	b.LastRemoved = &removed
	b.LastAdded = &added
	if !removed.IsEmpty() {
		b.NotEmptyLines++
		b.WeightedLinesCount += probability
	}
	b.CharCount += len(removed.TrimText) + len(added.TrimText)
	b.WeightedCharsCount += float64(len(removed.TrimText)+len(added.TrimText)) * probability
	b.MatchDensity = density(b.WeightedCharsCount, b.CharCount)
	b.RemovedLineNumbers[removed.LineNo] = struct{}{}
	b.AddedLineNumbers[added.LineNo] = struct{}{}
	return true
}

// ExtendWithEmptyAdded appends a padding entry carrying only the added
// side, advancing LastAdded without touching any counter. Used to bridge
// blank-line insertions on the added side.
func (b *MatchingBlock) ExtendWithEmptyAdded(added line.Line) {
	b.Lines = append(b.Lines, MatchingLine{AddedLine: &added, MatchProbability: 0})
	b.LastAdded = &added
}

// ExtendWithEmptyRemoved appends a padding entry carrying only the removed
// side, advancing LastRemoved without touching any counter. Used to bridge
// blank-line deletions on the removed side.
func (b *MatchingBlock) ExtendWithEmptyRemoved(removed line.Line) {
	b.Lines = append(b.Lines, MatchingLine{RemovedLine: &removed, MatchProbability: 0})
	b.LastRemoved = &removed
}

// ClearEmptyLinesAtEnd drops trailing entries that miss a side or have an
// empty side, mirroring the original's backward scan: it never inspects
// index 0, so the first entry is never dropped. Returns false, leaving
// Lines untouched, when no entry after index 0 has both sides present and
// non-empty; a one-line block is therefore always reported empty.
func (b *MatchingBlock) ClearEmptyLinesAtEnd() bool {
	lastIndex := -1
	for i := len(b.Lines) - 1; i > 0; i-- {
		ml := b.Lines[i]
		if ml.RemovedLine == nil || ml.AddedLine == nil || ml.RemovedLine.IsEmpty() || ml.AddedLine.IsEmpty() {
			continue
		}
		lastIndex = i
		break
	}
	if lastIndex == -1 {
		return false
	}
	b.Lines = b.Lines[:lastIndex+1]

	b.LastRemoved = nil
	b.LastAdded = nil
	for i := len(b.Lines) - 1; i >= 0; i-- {
		if b.LastRemoved != nil && b.LastAdded != nil {
			break
		}
		ml := b.Lines[i]
		if ml.RemovedLine != nil && b.LastRemoved == nil {
			b.LastRemoved = ml.RemovedLine
		}
		if ml.AddedLine != nil && b.LastAdded == nil {
			b.LastAdded = ml.AddedLine
		}
	}
	return b.LastRemoved != nil && b.LastAdded != nil
}

// LineCount is the number of non-empty matched removed lines.
func (b *MatchingBlock) LineCount() int {
	return b.NotEmptyLines
}

// FileRemoved is the file of the block's last removed line.
func (b *MatchingBlock) FileRemoved() string {
	return b.LastRemoved.File
}

// FileAdded is the file of the block's last added line.
func (b *MatchingBlock) FileAdded() string {
	return b.LastAdded.File
}

// Merge concatenates two blocks' line sequences and sums their counters.
// It does not synthesize the lines that lay between the two originals.
func Merge(a, b *MatchingBlock) *MatchingBlock {
	merged := &MatchingBlock{
		Lines:              append(append([]MatchingLine{}, a.Lines...), b.Lines...),
		FirstRemoved:       firstNonNil(a.FirstRemoved, b.FirstRemoved),
		FirstAdded:         firstNonNil(a.FirstAdded, b.FirstAdded),
		LastRemoved:        firstNonNil(b.LastRemoved, a.LastRemoved),
		LastAdded:          firstNonNil(b.LastAdded, a.LastAdded),
		IndentationChange:  a.IndentationChange,
		NotEmptyLines:      a.NotEmptyLines + b.NotEmptyLines,
		WeightedLinesCount: a.WeightedLinesCount + b.WeightedLinesCount,
		CharCount:          a.CharCount + b.CharCount,
		WeightedCharsCount: a.WeightedCharsCount + b.WeightedCharsCount,
		RemovedLineNumbers: unionSets(a.RemovedLineNumbers, b.RemovedLineNumbers),
		AddedLineNumbers:   unionSets(a.AddedLineNumbers, b.AddedLineNumbers),
	}
	merged.MatchDensity = density(merged.WeightedCharsCount, merged.CharCount)
	return merged
}

func firstNonNil(preferred, fallback *line.Line) *line.Line {
	if preferred != nil {
		return preferred
	}
	return fallback
}

func unionSets(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func isSubset(sub, super map[int]struct{}) bool {
	for k := range sub {
		if _, ok := super[k]; !ok {
			return false
		}
	}
	return true
}

// RemovedLineNumbersSubsetOf reports whether b's removed line numbers are
// a subset of other's.
func (b *MatchingBlock) RemovedLineNumbersSubsetOf(other *MatchingBlock) bool {
	return isSubset(b.RemovedLineNumbers, other.RemovedLineNumbers)
}

// AddedLineNumbersSubsetOf reports whether b's added line numbers are a
// subset of other's.
func (b *MatchingBlock) AddedLineNumbersSubsetOf(other *MatchingBlock) bool {
	return isSubset(b.AddedLineNumbers, other.AddedLineNumbers)
}

// Record is the wire shape of a MatchingBlock: just its ordered lines, per
// the external output contract.
type Record struct {
	Lines []MatchingLineRecord `json:"lines"`
}

// ToRecord converts a MatchingBlock to its wire representation.
func (b *MatchingBlock) ToRecord() Record {
	rec := Record{Lines: make([]MatchingLineRecord, len(b.Lines))}
	for i, l := range b.Lines {
		rec.Lines[i] = l.ToRecord()
	}
	return rec
}
