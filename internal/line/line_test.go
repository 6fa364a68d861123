package line_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"movedblocks/internal/line"
)

func TestNew_SplitsLeadingWhitespace(t *testing.T) {
	l := line.New("R", 3, "   foo bar  ")
	assert.Equal(t, "   ", l.LeadingWhitespace)
	assert.Equal(t, "foo bar  ", l.TrimText)
	assert.Equal(t, "   foo bar  ", l.Text())
}

func TestNew_TabsCountAsLeadingWhitespace(t *testing.T) {
	l := line.New("R", 1, "\t\tfoo")
	assert.Equal(t, "\t\t", l.LeadingWhitespace)
	assert.Equal(t, "foo", l.TrimText)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, line.New("R", 1, "   ").IsEmpty())
	assert.False(t, line.New("R", 1, "   x").IsEmpty())
	assert.True(t, line.New("R", 1, "").IsEmpty())
}

func TestIsLineBefore(t *testing.T) {
	a := line.New("R", 1, "a")
	b := line.New("R", 2, "b")
	c := line.New("other", 2, "c")
	assert.True(t, a.IsLineBefore(b))
	assert.False(t, b.IsLineBefore(a))
	assert.False(t, a.IsLineBefore(c))
}

func TestCalculateIndentationChange_Removed(t *testing.T) {
	r := line.New("R", 1, "    foo")
	a := line.New("A", 1, "foo")
	ic := line.CalculateIndentationChange(r, a)
	assert.Equal(t, line.IndentRemoved, ic.Kind)
	assert.Equal(t, "    ", ic.Whitespace)
	assert.True(t, ic.Matches(r, a))
}

func TestCalculateIndentationChange_Added(t *testing.T) {
	r := line.New("R", 1, "foo")
	a := line.New("A", 1, "   foo")
	ic := line.CalculateIndentationChange(r, a)
	assert.Equal(t, line.IndentAdded, ic.Kind)
	assert.Equal(t, "   ", ic.Whitespace)
	assert.True(t, ic.Matches(r, a))
}

func TestIndentationChange_EmptyLinesAlwaysMatch(t *testing.T) {
	ic := line.IndentationChange{Kind: line.IndentAdded, Whitespace: "  "}
	assert.True(t, ic.Matches(line.New("R", 1, ""), line.New("A", 1, "")))
}

func TestFromRecord_RenormalizesAgainstRawText(t *testing.T) {
	r := line.Record{File: "R", LineNo: 2, LeadingWhitespace: "  ", TrimText: "  foo"}
	l := line.FromRecord(r)
	assert.Equal(t, "    ", l.LeadingWhitespace)
	assert.Equal(t, "foo", l.TrimText)
}

func TestToRecord_RoundTrips(t *testing.T) {
	l := line.New("R", 5, "  foo")
	rec := l.ToRecord()
	assert.Equal(t, line.Record{File: "R", LineNo: 5, LeadingWhitespace: "  ", TrimText: "foo"}, rec)
}
