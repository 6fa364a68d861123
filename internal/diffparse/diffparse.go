// Package diffparse turns unified-diff text into the removed/added line
// records the detector consumes. Grounded in
// original_source/server/detector.py's filepath and
// diff_to_added_and_removed_lines, re-expressed against
// github.com/sourcegraph/go-diff/diff instead of Python's unidiff.
package diffparse

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"movedblocks/internal/line"
)

// Parse reads unified-diff text and returns its removed and added lines, in
// file order then hunk order then line order.
func Parse(diffText string) (removed, added []line.Line, err error) {
	fileDiffs, err := godiff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing unified diff: %w", err)
	}

	for _, fd := range fileDiffs {
		file := filepath(fd)
		for _, hunk := range fd.Hunks {
			r, a := linesFromHunk(file, hunk)
			removed = append(removed, r...)
			added = append(added, a...)
		}
	}
	return removed, added, nil
}

// filepath picks the canonical path for a FileDiff, preferring the
// b/-rooted target name; falling back to the a/-rooted source name for a
// pure deletion, and to the target name for a pure addition.
func filepath(fd *godiff.FileDiff) string {
	orig, target := fd.OrigName, fd.NewName
	switch {
	case strings.HasPrefix(orig, "a/") && strings.HasPrefix(target, "b/"):
		return target[2:]
	case strings.HasPrefix(orig, "a/") && target == "/dev/null":
		return orig[2:]
	case strings.HasPrefix(target, "b/") && orig == "/dev/null":
		return target[2:]
	default:
		return orig
	}
}

// linesFromHunk walks one hunk's body, producing a removed record for each
// '-' line and an added record for each '+' line, tracking the running
// source/target line numbers. Context lines advance both counters without
// producing a record; a "\ No newline at end of file" marker is skipped.
func linesFromHunk(file string, hunk *godiff.Hunk) (removed, added []line.Line) {
	origLine := hunk.OrigStartLine
	newLine := hunk.NewStartLine

	body := string(hunk.Body)
	body = strings.TrimSuffix(body, "\n")
	if body == "" {
		return nil, nil
	}

	for _, raw := range strings.Split(body, "\n") {
		if raw == "" {
			origLine++
			newLine++
			continue
		}
		switch raw[0] {
		case '+':
			added = append(added, line.New(file, int(newLine), raw[1:]))
			newLine++
		case '-':
			removed = append(removed, line.New(file, int(origLine), raw[1:]))
			origLine++
		case '\\':
			// "\ No newline at end of file" — not a content line.
		default:
			origLine++
			newLine++
		}
	}
	return removed, added
}
