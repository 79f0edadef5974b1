package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
)

func sampleTree(t *testing.T) *index.Tree {
	t.Helper()
	tree := index.NewTree()
	add := func(word, file string, line int) {
		if node, ok := tree.Search(index.NewRecord(word)); ok {
			node.Element().Add(file, line)
			return
		}
		rec := index.NewRecord(word)
		rec.Add(file, line)
		if _, err := tree.Insert(rec); err != nil {
			t.Fatal(err)
		}
	}
	add("Zebra", "b.txt", 3)
	add("apple", "b.txt", 2)
	add("apple", "a.txt", 1)
	add("APPLE", "b.txt", 2)
	return tree
}

func TestWrite(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{Files, "apple: b.txt a.txt \nZebra: b.txt \n"},
		{Lines, "apple: b.txt (Lines: 2 2 ) a.txt (Lines: 1 ) \nZebra: b.txt (Lines: 3 ) \n"},
		{LineNumbers, "apple: b.txt (Line Numbers: 2 2 ) a.txt (Line Numbers: 1 ) \nZebra: b.txt (Line Numbers: 3 ) \n"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var sb strings.Builder
			if err := Write(&sb, sampleTree(t), tt.mode); err != nil {
				t.Fatalf("Write error = %v", err)
			}
			if sb.String() != tt.want {
				t.Errorf("Write() =\n%q\nwant\n%q", sb.String(), tt.want)
			}
		})
	}
}

func TestWrite_EmptyTree(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, index.NewTree(), Lines); err != nil {
		t.Fatal(err)
	}
	if sb.Len() != 0 {
		t.Errorf("Write() = %q, want nothing", sb.String())
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestWrite_Error(t *testing.T) {
	if err := Write(brokenWriter{}, sampleTree(t), Files); err == nil {
		t.Error("expected an error from a failing writer")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"f": Files, "l": Lines, "o": LineNumbers} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "x", "F", "fl"} {
		if _, err := ParseMode(in); !errors.Is(err, apperrors.ErrUsage) {
			t.Errorf("ParseMode(%q) error = %v, want ErrUsage", in, err)
		}
	}
}
