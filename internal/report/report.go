// Package report renders the word tree as text, one word per line in
// ascending order.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

// Mode selects what is printed after each word.
type Mode int

const (
	// Files prints the files a word occurs in.
	Files Mode = iota
	// Lines prints each file followed by its lines.
	Lines
	// LineNumbers is Lines with a longer label.
	LineNumbers
)

// ParseMode maps the command-line letters f, l and o to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "f":
		return Files, nil
	case "l":
		return Lines, nil
	case "o":
		return LineNumbers, nil
	}
	return 0, fmt.Errorf("%w: unknown print mode %q", apperrors.ErrUsage, s)
}

func (m Mode) String() string {
	switch m {
	case Files:
		return "files"
	case Lines:
		return "lines"
	case LineNumbers:
		return "line numbers"
	default:
		return "unknown"
	}
}

func (m Mode) label() string {
	if m == LineNumbers {
		return "Line Numbers"
	}
	return "Lines"
}

// Write prints every record of tree to w. Files appear in the order they
// were first seen and lines in the order they were recorded.
func Write(w io.Writer, tree *index.Tree, mode Mode) error {
	bw := bufio.NewWriter(w)
	for rec := range tree.All() {
		writeRecord(bw, rec, mode)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, rec *index.Record, mode Mode) {
	w.WriteString(rec.Word())
	w.WriteString(": ")
	for _, file := range rec.Files() {
		w.WriteString(file)
		if mode == Files {
			w.WriteByte(' ')
			continue
		}
		w.WriteString(" (")
		w.WriteString(mode.label())
		w.WriteString(": ")
		for _, line := range rec.Lines(file) {
			w.WriteString(strconv.Itoa(line))
			w.WriteByte(' ')
		}
		w.WriteString(") ")
	}
	w.WriteByte('\n')
}
