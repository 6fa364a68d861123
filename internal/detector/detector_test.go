package detector_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movedblocks/internal/detector"
	"movedblocks/internal/line"
)

func linesAt(file string, startLineNo int, texts ...string) []line.Line {
	out := make([]line.Line, len(texts))
	for i, t := range texts {
		out[i] = line.New(file, startLineNo+i, t)
	}
	return out
}

func numbered(prefix string, from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%d %d %d %d %d %d %d %d %d %d", i, i, i, i, i, i, i, i, i, i))
	}
	return out
}

func detect(t *testing.T, removed, added []line.Line) []blockSummary {
	t.Helper()
	d, err := detector.New(removed, added, detector.DefaultConfig())
	require.NoError(t, err)
	blocks := d.Detect()
	summaries := make([]blockSummary, len(blocks))
	for i, b := range blocks {
		summaries[i] = blockSummary{
			RemovedFrom: b.FirstRemoved.LineNo,
			RemovedTo:   b.LastRemoved.LineNo,
			AddedFrom:   b.FirstAdded.LineNo,
			AddedTo:     b.LastAdded.LineNo,
			LineCount:   b.LineCount(),
			CharCount:   b.CharCount,
		}
	}
	return summaries
}

type blockSummary struct {
	RemovedFrom, RemovedTo int
	AddedFrom, AddedTo     int
	LineCount              int
	CharCount              int
}

// Scenario 1: a simple move, with decoy lines on the added side that should
// not be swept into the block.
func TestDetect_SimpleMove(t *testing.T) {
	var removed []line.Line
	for i := 1; i <= 5; i++ {
		removed = append(removed, line.New("R", i, fmt.Sprintf("%d %d %d %d %d %d %d %d %d %d", i, i, i, i, i, i, i, i, i, i)))
	}

	var added []line.Line
	added = append(added, line.New("A", 10, "----------------------------------------"))
	added = append(added, line.New("A", 11, "----------------------------------------"))
	for i := 1; i <= 4; i++ {
		added = append(added, line.New("A", 11+i, fmt.Sprintf("%d %d %d %d %d %d %d %d %d %d", i, i, i, i, i, i, i, i, i, i)))
	}
	added = append(added, line.New("A", 16, "----------------------------------------"))

	got := detect(t, removed, added)
	require.Len(t, got, 1)
	assert.Equal(t, blockSummary{RemovedFrom: 1, RemovedTo: 4, AddedFrom: 12, AddedTo: 15, LineCount: 4, CharCount: 152}, got[0])
}

// Scenario 2: one removed run fuzzily matches two different added files,
// each covering a different sub-range; neither dominates the other.
func TestDetect_MoveSplitAcrossTwoAddedFiles(t *testing.T) {
	removed := linesAt("R", 1, numbered("", 1, 9)...)

	a1 := linesAt("A1", 13, numbered("", 2, 4)...)
	a2 := linesAt("A2", 14, numbered("", 3, 6)...)
	added := append(append([]line.Line{}, a1...), a2...)

	got := detect(t, removed, added)
	require.Len(t, got, 2)

	assert.Contains(t, got, blockSummary{RemovedFrom: 2, RemovedTo: 4, AddedFrom: 13, AddedTo: 15, LineCount: 3, CharCount: 114})
	assert.Contains(t, got, blockSummary{RemovedFrom: 3, RemovedTo: 6, AddedFrom: 14, AddedTo: 17, LineCount: 4, CharCount: 152})
}

// Scenario 3: uniform reindentation; the block's IndentationChange should be
// ADDED with a three-space prefix.
func TestDetect_UniformReindentation(t *testing.T) {
	text := "1 1 1 1 1 1 1 1 1 1"
	removed := []line.Line{line.New("R", 1, text), line.New("R", 2, text)}
	added := []line.Line{line.New("A", 1, "   "+text), line.New("A", 2, "   "+text)}

	d, err := detector.New(removed, added, detector.DefaultConfig())
	require.NoError(t, err)
	blocks := d.Detect()
	require.Len(t, blocks, 1)
	assert.Equal(t, line.IndentAdded, blocks[0].IndentationChange.Kind)
	assert.Equal(t, "   ", blocks[0].IndentationChange.Whitespace)
}

// Scenario 4: a blank line on the removed side bridges to the same spot
// being shortened by one blank line on the added side; still one block.
func TestDetect_BlankLineBridging(t *testing.T) {
	removed := []line.Line{
		line.New("R", 1, "1 1 1 1 1 1 1 1 1 1"),
		line.New("R", 2, "2 2 2 2 2 2 2 2 2 2"),
		line.New("R", 3, "3 3 3 3 3 3 3 3 3 3"),
		line.New("R", 4, "   "),
		line.New("R", 5, "4 4 4 4 4 4 4 4 4 4"),
	}
	added := []line.Line{
		line.New("A", 11, "1 1 1 1 1 1 1 1 1 1"),
		line.New("A", 12, "2 2 2 2 2 2 2 2 2 2"),
		line.New("A", 13, "3 3 3 3 3 3 3 3 3 3"),
		line.New("A", 14, "4 4 4 4 4 4 4 4 4 4"),
	}

	d, err := detector.New(removed, added, detector.DefaultConfig())
	require.NoError(t, err)
	blocks := d.Detect()
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, 1, b.FirstRemoved.LineNo)
	assert.Equal(t, 5, b.LastRemoved.LineNo)
	assert.Equal(t, 11, b.FirstAdded.LineNo)
	assert.Equal(t, 14, b.LastAdded.LineNo)
	assert.Equal(t, 4, b.LineCount())
}

// Scenario 5: a 9-line block whose internal rows recur (1 2 3 repeated
// three times) must not fragment into dominated sub-blocks.
func TestDetect_DominanceSuppression(t *testing.T) {
	one, two, three := "1 1 1 1 1 1 1 1 1 1", "2 2 2 2 2 2 2 2 2 2", "3 3 3 3 3 3 3 3 3 3"
	texts := []string{one, two, three, one, two, three, one, two, three}
	var removed, added []line.Line
	for i, txt := range texts {
		removed = append(removed, line.New("R", i+1, txt))
		added = append(added, line.New("A", i+11, txt))
	}

	got := detect(t, removed, added)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].RemovedFrom)
	assert.Equal(t, 9, got[0].RemovedTo)
	assert.Equal(t, 11, got[0].AddedFrom)
	assert.Equal(t, 19, got[0].AddedTo)
}

// Scenario 6: a fuzzy edit (trailing "--" suffix on every added line) still
// clears the match-score threshold on every row.
func TestDetect_FuzzySmallEdit(t *testing.T) {
	removed := linesAt("R", 1, "k k k k k k k k k 1", "k k k k k k k k k 1", "k k k k k k k k k 1")
	added := linesAt("A", 11, "k k k k k k k k k 1--", "k k k k k k k k k 1--", "k k k k k k k k k 1--")

	got := detect(t, removed, added)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].LineCount)
}

// Idempotence: running Detect twice over freshly built detectors from the
// same input yields equal output.
func TestDetect_Idempotent(t *testing.T) {
	removed := linesAt("R", 1, numbered("", 1, 9)...)
	added := linesAt("A", 11, numbered("", 1, 9)...)

	first := detect(t, removed, added)
	second := detect(t, removed, added)
	assert.Equal(t, first, second)
}

// An empty removed or added set yields no blocks, without error.
func TestDetect_EmptyInputIsNotAnError(t *testing.T) {
	d, err := detector.New(nil, nil, detector.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, d.Detect())
}

// A blank file name in an input record is rejected as malformed.
func TestNew_RejectsMissingFile(t *testing.T) {
	bad := []line.Line{line.FromParts("", 1, "", "x")}
	_, err := detector.New(bad, nil, detector.DefaultConfig())
	require.Error(t, err)
	var malformed *detector.MalformedLineRecordError
	assert.ErrorAs(t, err, &malformed)
}

// A non-positive line number in an input record is rejected as malformed.
func TestNew_RejectsNonPositiveLineNo(t *testing.T) {
	bad := []line.Line{line.FromParts("R", 0, "", "x")}
	_, err := detector.New(nil, bad, detector.DefaultConfig())
	require.Error(t, err)
	var malformed *detector.MalformedLineRecordError
	assert.ErrorAs(t, err, &malformed)
}
