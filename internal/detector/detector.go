// Package detector implements the streaming block-extension engine and the
// block post-processor: the two subsystems that turn a fuzzy index plus a
// stream of removed lines into a ranked list of moved blocks. Grounded in
// original_source/server/detector.py's MovedBlocksDetector, restructured in
// the teacher's staged-control-flow idiom (diffengine.go's PerformDiff).
package detector

import (
	"context"
	"fmt"
	"sort"

	"movedblocks/internal/block"
	"movedblocks/internal/fuzzyset"
	"movedblocks/internal/line"
	"movedblocks/internal/timing"
)

// Config carries the detector's construction-time parameters (spec §6).
type Config struct {
	MinLinesCount int
	MaxGap        int
	GramLow       int
	GramHigh      int
}

// DefaultConfig returns the documented defaults: min_lines_count=2,
// max_gap=2, GRAM_LOW=2, GRAM_HIGH=3.
func DefaultConfig() Config {
	return Config{
		MinLinesCount: 2,
		MaxGap:        2,
		GramLow:       fuzzyset.DefaultGramLow,
		GramHigh:      fuzzyset.DefaultGramHigh,
	}
}

// MalformedLineRecordError is returned when an input line record is
// missing a required field or carries a non-positive line number.
type MalformedLineRecordError struct {
	Reason string
}

func (e *MalformedLineRecordError) Error() string {
	return fmt.Sprintf("malformed line record: %s", e.Reason)
}

// validate checks the invariants spec §7 requires of every input record.
func validate(lines []line.Line) error {
	for _, l := range lines {
		if l.File == "" {
			return &MalformedLineRecordError{Reason: "file is required"}
		}
		if l.LineNo < 1 {
			return &MalformedLineRecordError{Reason: fmt.Sprintf("line_no must be >= 1, got %d", l.LineNo)}
		}
	}
	return nil
}

// Detector owns the fuzzy index and lookup tables built from one request's
// removed/added line sets. It is not safe for concurrent use and is meant
// to be instantiated fresh per request (spec §5).
type Detector struct {
	cfg Config

	removedLines []line.Line

	trimTextToAddedLines map[string][]line.Line
	addedByFileAndLine    map[string]map[int]line.Line
	removedByFileAndLine  map[string]map[int]line.Line

	addedFuzzySet *fuzzyset.FuzzySet
}

// New builds a Detector from the two input record sets, per spec §6/§7.
// An empty removed or added set is not an error: Detect simply returns no
// blocks.
func New(removedLines, addedLines []line.Line, cfg Config) (*Detector, error) {
	if err := validate(removedLines); err != nil {
		return nil, err
	}
	if err := validate(addedLines); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:                  cfg,
		removedLines:         append([]line.Line{}, removedLines...),
		trimTextToAddedLines: make(map[string][]line.Line),
		addedByFileAndLine:   make(map[string]map[int]line.Line),
		removedByFileAndLine: make(map[string]map[int]line.Line),
		addedFuzzySet:        fuzzyset.New(cfg.GramLow, cfg.GramHigh),
	}

	for _, a := range addedLines {
		d.trimTextToAddedLines[a.TrimText] = append(d.trimTextToAddedLines[a.TrimText], a)
		d.addedFuzzySet.Add(a.TrimText)
		if d.addedByFileAndLine[a.File] == nil {
			d.addedByFileAndLine[a.File] = make(map[int]line.Line)
		}
		d.addedByFileAndLine[a.File][a.LineNo] = a
	}
	for _, r := range removedLines {
		if d.removedByFileAndLine[r.File] == nil {
			d.removedByFileAndLine[r.File] = make(map[int]line.Line)
		}
		d.removedByFileAndLine[r.File][r.LineNo] = r
	}

	return d, nil
}

// Detect runs the full pipeline: stream-extend, collect closed blocks,
// merge nearby blocks, filter small blocks, trim trailing empties, and
// suppress dominated blocks. The returned slice's order is the dominance
// filter's Pass B order (spec §4.4).
func (d *Detector) Detect() []*block.MatchingBlock {
	ctx := context.Background()

	var detected []*block.MatchingBlock
	timing.Measure(ctx, "extend", func() {
		detected = d.extend()
	})
	timing.Measure(ctx, "join_nearby_blocks", func() {
		detected = d.joinNearbyBlocks(detected)
	})
	timing.Measure(ctx, "filter_out_small_blocks", func() {
		detected = d.filterOutSmallBlocks(detected)
		detected = d.clearTrailingEmptyAndFilterEmpty(detected)
	})
	timing.Measure(ctx, "filter_out_block_inside_other_blocks", func() {
		detected = d.filterOutBlockInsideOtherBlocks(detected)
	})
	return detected
}

// candidate is a (probability, added-line-text) pair produced by the fuzzy
// index for one removed line.
type candidate struct {
	probability float64
	text        string
}

// extend is the §4.3 streaming extension engine: one pass over removed
// lines, growing or closing candidate blocks against the fuzzy index.
func (d *Detector) extend() []*block.MatchingBlock {
	var detected []*block.MatchingBlock
	var current []*block.MatchingBlock

	for _, removed := range d.removedLines {
		var candidates []candidate
		if !removed.IsEmpty() {
			minScore := fuzzyset.MinMatchScore(len(removed.TrimText))
			matches := d.addedFuzzySet.Query(removed.TrimText, minScore, false)
			candidates = make([]candidate, len(matches))
			for i, m := range matches {
				candidates[i] = candidate{probability: m.Score, text: m.Text}
			}
			d.extendOpenBlocksWithBlankAddedRuns(current)
		} else {
			candidates = []candidate{{probability: 1.0, text: ""}}
		}

		if len(candidates) == 0 {
			// No candidates for this removed line: every open block fails
			// to advance and closes at this step.
			detected = append(detected, current...)
			current = nil
			continue
		}

		var next []*block.MatchingBlock
		consumed := make([]bool, len(current))

		for _, c := range candidates {
			addedLines := d.trimTextToAddedLines[c.text]
			for _, added := range addedLines {
				extendedAny := false
				for i, b := range current {
					if consumed[i] {
						continue
					}
					if b.TryExtend(removed, added, c.probability) {
						next = append(next, b)
						consumed[i] = true
						extendedAny = true
					}
				}
				if !extendedAny && !removed.IsEmpty() {
					next = append(next, block.FromLine(removed, added, c.probability))
				}
			}
		}

		remaining := current[:0:0]
		for i, b := range current {
			if !consumed[i] {
				remaining = append(remaining, b)
			}
		}
		current = remaining

		if removed.IsEmpty() {
			var stillOpen []*block.MatchingBlock
			for _, b := range current {
				nextRemoved, ok := d.nextRemovedLine(b.LastRemoved)
				if ok && nextRemoved.IsEmpty() {
					b.ExtendWithEmptyRemoved(nextRemoved)
					next = append(next, b)
				} else {
					stillOpen = append(stillOpen, b)
				}
			}
			current = stillOpen
		}

		detected = append(detected, current...)
		current = next
	}

	detected = append(detected, current...)
	return detected
}

// extendOpenBlocksWithBlankAddedRuns lets every open block skip over a run
// of blank lines immediately following its last added line, so a block
// isn't broken by blank-line insertions on the added side.
func (d *Detector) extendOpenBlocksWithBlankAddedRuns(current []*block.MatchingBlock) {
	for _, b := range current {
		for {
			nextAdded, ok := d.nextAddedLine(b.LastAdded)
			if !ok || !nextAdded.IsEmpty() {
				break
			}
			b.ExtendWithEmptyAdded(nextAdded)
		}
	}
}

func (d *Detector) nextAddedLine(last *line.Line) (line.Line, bool) {
	byLine, ok := d.addedByFileAndLine[last.File]
	if !ok {
		return line.Line{}, false
	}
	l, ok := byLine[last.LineNo+1]
	return l, ok
}

func (d *Detector) nextRemovedLine(last *line.Line) (line.Line, bool) {
	byLine, ok := d.removedByFileAndLine[last.File]
	if !ok {
		return line.Line{}, false
	}
	l, ok := byLine[last.LineNo+1]
	return l, ok
}

// joinNearbyBlocks merges blocks in the same (removed_file, added_file)
// pair that are close enough together on both axes (spec §4.4).
func (d *Detector) joinNearbyBlocks(blocks []*block.MatchingBlock) []*block.MatchingBlock {
	maxSpace := d.cfg.MaxGap + 1

	type fileKey struct{ removedFile, addedFile string }
	grouped := make(map[fileKey][]*block.MatchingBlock)
	var order []fileKey
	for _, b := range blocks {
		k := fileKey{b.FileRemoved(), b.FileAdded()}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], b)
	}

	var result []*block.MatchingBlock
	for _, k := range order {
		list := grouped[k]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].FirstRemoved.LineNo != list[j].FirstRemoved.LineNo {
				return list[i].FirstRemoved.LineNo < list[j].FirstRemoved.LineNo
			}
			return list[i].MatchDensity > list[j].MatchDensity
		})

		merged := make(map[int]bool)
		var mergedList []*block.MatchingBlock
		for i := 0; i < len(list); i++ {
			cur := list[i]
			for j := i + 1; j < len(list); j++ {
				next := list[j]
				if next.FirstRemoved.LineNo-cur.LastRemoved.LineNo > maxSpace {
					break
				}
				if next.FirstRemoved.LineNo > cur.LastRemoved.LineNo &&
					next.FirstAdded.LineNo-cur.LastAdded.LineNo <= maxSpace &&
					next.FirstAdded.LineNo > cur.LastAdded.LineNo {
					cur = block.Merge(cur, next)
					merged[i] = true
					merged[j] = true
				}
			}
			if merged[i] {
				mergedList = append(mergedList, cur)
			}
		}
		for i, b := range list {
			if !merged[i] {
				result = append(result, b)
			}
		}
		result = append(result, mergedList...)
	}
	return result
}

// filterOutSmallBlocks keeps only blocks meeting the size/density floor.
func (d *Detector) filterOutSmallBlocks(blocks []*block.MatchingBlock) []*block.MatchingBlock {
	minLines := d.cfg.MinLinesCount
	var kept []*block.MatchingBlock
	for _, b := range blocks {
		if b.WeightedLinesCount >= float64(minLines) && b.CharCount >= 20 {
			kept = append(kept, b)
		}
	}
	return kept
}

// clearTrailingEmptyAndFilterEmpty trims trailing padding-only entries off
// each block and drops any block that becomes entirely empty.
func (d *Detector) clearTrailingEmptyAndFilterEmpty(blocks []*block.MatchingBlock) []*block.MatchingBlock {
	var kept []*block.MatchingBlock
	for _, b := range blocks {
		if b.ClearEmptyLinesAtEnd() {
			kept = append(kept, b)
		}
	}
	return kept
}

// filterOutBlockInsideOtherBlocks runs the two-axis dominance filter of
// spec §4.4. Pass B's "discard iff NOT a subset" condition reads unusual
// but reproduces the original behavior (spec §9 open question); it is
// preserved verbatim.
func (d *Detector) filterOutBlockInsideOtherBlocks(blocks []*block.MatchingBlock) []*block.MatchingBlock {
	// Pass A: removed axis.
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.FileRemoved() != b.FileRemoved() {
			return a.FileRemoved() < b.FileRemoved()
		}
		if a.FirstRemoved.LineNo != b.FirstRemoved.LineNo {
			return a.FirstRemoved.LineNo < b.FirstRemoved.LineNo
		}
		if a.LastRemoved.LineNo != b.LastRemoved.LineNo {
			return a.LastRemoved.LineNo > b.LastRemoved.LineNo
		}
		return a.WeightedLinesCount > b.WeightedLinesCount
	})

	var dominator *block.MatchingBlock
	for _, b := range blocks {
		if dominator == nil {
			dominator = b
			continue
		}
		if b.FileRemoved() == dominator.FileRemoved() &&
			b.FirstRemoved.LineNo >= dominator.FirstRemoved.LineNo &&
			b.LastRemoved.LineNo <= dominator.LastRemoved.LineNo {
			if b.WeightedLinesCount < dominator.WeightedLinesCount && b.RemovedLineNumbersSubsetOf(dominator) {
				b.RemoveInsideLarger = true
			}
		} else {
			dominator = b
		}
	}

	// Pass B: added axis.
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.FileRemoved() != b.FileRemoved() {
			return a.FileRemoved() < b.FileRemoved()
		}
		if a.FirstAdded.LineNo != b.FirstAdded.LineNo {
			return a.FirstAdded.LineNo < b.FirstAdded.LineNo
		}
		if a.LastAdded.LineNo != b.LastAdded.LineNo {
			return a.LastAdded.LineNo > b.LastAdded.LineNo
		}
		return a.WeightedLinesCount > b.WeightedLinesCount
	})

	var okBlocks []*block.MatchingBlock
	dominator = nil
	for _, b := range blocks {
		if b.RemoveInsideLarger {
			continue
		}
		if dominator == nil {
			dominator = b
			okBlocks = append(okBlocks, b)
			continue
		}
		if b.FileAdded() == dominator.FileAdded() &&
			b.FirstAdded.LineNo >= dominator.FirstAdded.LineNo &&
			b.LastAdded.LineNo <= dominator.LastAdded.LineNo &&
			b.WeightedLinesCount < dominator.WeightedLinesCount &&
			!b.AddedLineNumbersSubsetOf(dominator) {
			continue
		}
		dominator = b
		okBlocks = append(okBlocks, b)
	}
	return okBlocks
}
