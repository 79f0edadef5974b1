// Package indexer builds the word tree from text sources. An Engine restores
// the previous run's tree from its snapshot store, folds each source's words
// into it and persists the result.
package indexer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

const maxLineLength = 16 << 20

// Stats summarises what an Engine has done since it was created.
type Stats struct {
	Restored   bool `json:"restored"`
	Sources    int  `json:"sources"`
	Unreadable int  `json:"unreadable"`
	Lines      int  `json:"lines"`
	Tokens     int  `json:"tokens"`
	NewWords   int  `json:"new_words"`
	Appended   int  `json:"appended"`
	Words      int  `json:"words"`
}

type Engine struct {
	tree    *index.Tree
	store   *snapshot.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	stats   Stats
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine restores the tree held by store, starting empty when there is
// none. A nil store gives an in-memory engine whose Persist does nothing.
func NewEngine(ctx context.Context, store *snapshot.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	if store != nil {
		if tree, ok := store.Load(ctx); ok {
			e.tree = tree
			e.stats.Restored = true
		}
	}
	if e.tree == nil {
		e.tree = index.NewTree()
	}
	e.logger.Info("engine ready",
		"restored", e.stats.Restored,
		"words", e.tree.Size(),
	)
	return e
}

// ProcessFile indexes the file at path under the identifier path.
func (e *Engine) ProcessFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		e.unreadable()
		return fmt.Errorf("%w: %w", apperrors.ErrUnreadable, err)
	}
	defer f.Close()
	return e.ProcessSource(path, f)
}

// ProcessSource indexes every word of r under the identifier id. The whole
// source is read before the tree is touched, so a read failure leaves it
// unchanged.
func (e *Engine) ProcessSource(id string, r io.Reader) error {
	lines, err := readLines(r)
	if err != nil {
		e.unreadable()
		return fmt.Errorf("%w: reading %s: %w", apperrors.ErrUnreadable, id, err)
	}
	tokens := tokenizer.TokenizeLines(lines)

	var inserted, appended int
	for _, tok := range tokens {
		added, err := e.add(id, tok)
		if err != nil {
			return fmt.Errorf("indexing %q from %s: %w", tok.Term, id, err)
		}
		if added {
			inserted++
		} else {
			appended++
		}
	}

	e.stats.Sources++
	e.stats.Lines += len(lines)
	e.stats.Tokens += len(tokens)
	e.stats.NewWords += inserted
	e.stats.Appended += appended

	e.metrics.SourcesProcessedTotal.WithLabelValues("ok").Inc()
	e.metrics.LinesProcessedTotal.Add(float64(len(lines)))
	e.metrics.TokensProcessedTotal.Add(float64(len(tokens)))
	e.metrics.WordsInsertedTotal.Add(float64(inserted))
	e.metrics.OccurrencesAppendedTotal.Add(float64(appended))

	e.logger.Debug("source indexed",
		"source", id,
		"lines", len(lines),
		"tokens", len(tokens),
		"new_words", inserted,
		"tree_size", e.tree.Size(),
	)
	return nil
}

// add files one occurrence and reports whether the word was new.
func (e *Engine) add(id string, tok tokenizer.Token) (bool, error) {
	candidate := index.NewRecord(tok.Term)
	if node, found := e.tree.Search(candidate); found {
		node.Element().Add(id, tok.Line)
		return false, nil
	}
	candidate.Add(id, tok.Line)
	if _, err := e.tree.Insert(candidate); err != nil {
		return false, err
	}
	return true, nil
}

// Persist saves the tree to the store.
func (e *Engine) Persist(ctx context.Context) error {
	e.metrics.TreeSize.Set(float64(e.tree.Size()))
	e.metrics.TreeHeight.Set(float64(e.tree.Height()))
	if e.store == nil {
		return nil
	}
	return e.store.Save(ctx, e.tree)
}

// Tree gives read access to the word tree. Callers must not mutate it.
func (e *Engine) Tree() *index.Tree {
	return e.tree
}

func (e *Engine) Stats() Stats {
	s := e.stats
	s.Words = e.tree.Size()
	return s
}

func (e *Engine) unreadable() {
	e.stats.Unreadable++
	e.metrics.SourcesProcessedTotal.WithLabelValues("unreadable").Inc()
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(scanLines)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// scanLines splits on "\n", "\r\n" or a lone "\r".
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
