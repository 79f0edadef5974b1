// Package index defines the word occurrence record stored in the word tree.
package index

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Record is a word together with the files and lines it occurs on. Records
// order case-insensitively by word; the word keeps the casing it was first
// seen with.
type Record struct {
	word string
	key  string
	occ  occurrences
}

// occurrences maps file identifiers to line numbers. Files are kept in the
// order they were first added and lines in the order they were appended,
// duplicates included.
type occurrences struct {
	files []string
	lines map[string][]int
}

// NewRecord returns a record for word with no occurrences.
func NewRecord(word string) *Record {
	return &Record{
		word: word,
		key:  foldKey(word),
	}
}

func foldKey(word string) string {
	return cases.Fold().String(word)
}

func (r *Record) Word() string {
	return r.word
}

// Compare orders records by case-folded word.
func (r *Record) Compare(other *Record) int {
	return strings.Compare(r.key, other.key)
}

// Add records that the word occurs in file on line.
func (r *Record) Add(file string, line int) {
	r.occ.add(file, line)
}

// Files returns a copy of the files the word occurs in, in first-seen order.
func (r *Record) Files() []string {
	return slices.Clone(r.occ.files)
}

// Lines returns a copy of the line numbers recorded for file.
func (r *Record) Lines(file string) []int {
	return slices.Clone(r.occ.lines[file])
}

// Occurrences returns the total number of recorded occurrences.
func (r *Record) Occurrences() int {
	total := 0
	for _, lines := range r.occ.lines {
		total += len(lines)
	}
	return total
}

func (o *occurrences) add(file string, line int) {
	if o.lines == nil {
		o.lines = make(map[string][]int)
	}
	if _, ok := o.lines[file]; !ok {
		o.files = append(o.files, file)
	}
	o.lines[file] = append(o.lines[file], line)
}
