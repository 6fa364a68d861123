package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"movedblocks/internal/block"
	"movedblocks/internal/detector"
	"movedblocks/internal/diffparse"
	"movedblocks/internal/line"
	"movedblocks/internal/render"
)

var DebugMode bool
var MinLinesCount int
var MaxGap int
var DiffPath string

func main() {
	flag.BoolVar(&DebugMode, "debug", false, "Enable debug printing")
	flag.IntVar(&MinLinesCount, "min-lines", detector.DefaultConfig().MinLinesCount, "Minimum weighted line count for a reported block")
	flag.IntVar(&MaxGap, "max-gap", detector.DefaultConfig().MaxGap, "Maximum line gap joined across a block")
	flag.StringVar(&DiffPath, "diff", "", "Read removed/added lines from a unified diff file instead of two plain files")
	flag.Parse()

	cfg := detector.DefaultConfig()
	cfg.MinLinesCount = MinLinesCount
	cfg.MaxGap = MaxGap

	var removed, added []line.Line
	var err error

	if DiffPath != "" {
		removed, added, err = readDiffFile(DiffPath)
	} else {
		if flag.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "Usage: movedblocks [--debug] [--min-lines N] [--max-gap N] <removedFile> <addedFile>")
			fmt.Fprintln(os.Stderr, "   or: movedblocks --diff <unifiedDiffFile>")
			os.Exit(1)
		}
		removed, added, err = readPlainFiles(flag.Arg(0), flag.Arg(1))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if DebugMode {
		fmt.Printf("Removed: %d lines. Added: %d lines.\n", len(removed), len(added))
		fmt.Printf("Using min-lines=%d max-gap=%d\n", cfg.MinLinesCount, cfg.MaxGap)
		fmt.Println("--- Detecting Moved Blocks (Debug Mode) ---")
	}

	d, err := detector.New(removed, added, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	blocks := d.Detect()
	if len(blocks) == 0 {
		fmt.Println("No moved blocks detected.")
		return
	}

	fmt.Printf("\n# MOVED BLOCKS\n")
	fmt.Printf("  Total: %d blocks.\n", len(blocks))
	for i, b := range blocks {
		printBlock(i, b)
	}
}

func readPlainFiles(removedPath, addedPath string) (removed, added []line.Line, err error) {
	removed, err = readLinesOf(removedPath)
	if err != nil {
		return nil, nil, err
	}
	added, err = readLinesOf(addedPath)
	if err != nil {
		return nil, nil, err
	}
	return removed, added, nil
}

func readLinesOf(path string) ([]line.Line, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rawLines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	lines := make([]line.Line, len(rawLines))
	for i, text := range rawLines {
		lines[i] = line.New(path, i+1, text)
	}
	return lines, nil
}

func readDiffFile(path string) (removed, added []line.Line, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return diffparse.Parse(string(content))
}

func printBlock(index int, b *block.MatchingBlock) {
	fmt.Printf("  - Block %d: %s:%d-%d moved to %s:%d-%d (lines=%d, chars=%d)\n",
		index,
		b.FileRemoved(), b.FirstRemoved.LineNo, b.LastRemoved.LineNo,
		b.FileAdded(), b.FirstAdded.LineNo, b.LastAdded.LineNo,
		b.LineCount(), b.CharCount)
	if DebugMode {
		for _, ml := range b.Lines {
			switch {
			case ml.RemovedLine != nil && ml.AddedLine != nil:
				fmt.Printf("      %q -> %q [p=%.2f]\n", ml.RemovedLine.Text(), ml.AddedLine.Text(), ml.MatchProbability)
			case ml.RemovedLine != nil:
				fmt.Printf("      %q -> (gap)\n", ml.RemovedLine.Text())
			case ml.AddedLine != nil:
				fmt.Printf("      (gap) -> %q\n", ml.AddedLine.Text())
			}
		}
		for _, annotation := range render.AnnotateImperfectMatches(b) {
			fmt.Println(annotation)
		}
	}
}
