// Package snapshot persists the word tree between runs. The tree is encoded
// once into a self-checking binary blob which is written to a primary backend
// (a file at a fixed path) and, optionally, copied to mirror backends. Loading
// never fails: a missing or damaged snapshot means "start empty".
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
)

// ErrNotFound is returned by a Backend that holds no snapshot yet.
var ErrNotFound = errors.New("snapshot not found")

// Retryable reports whether writing to a backend again could succeed after
// err. Damaged data, a rejected table name and SQL errors that depend only on
// the statement are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrInvalidTable), errors.Is(err, context.Canceled):
		return false
	case permanentPostgresError(err):
		return false
	}
	return true
}

// Backend stores one encoded snapshot.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// MirrorPolicy wraps every mirror write, typically with a timeout and
// retries. The default policy calls write once.
type MirrorPolicy func(ctx context.Context, backend string, write func(ctx context.Context) error) error

// Store loads and saves the word tree through its backends.
type Store struct {
	primary Backend
	mirrors []Backend
	policy  MirrorPolicy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Store)

// WithMirrors adds backends that receive a copy of every save and are tried,
// in order, when the primary holds no usable snapshot.
func WithMirrors(backends ...Backend) Option {
	return func(s *Store) {
		s.mirrors = append(s.mirrors, backends...)
	}
}

func WithMirrorPolicy(policy MirrorPolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a Store around the primary backend.
func NewStore(primary Backend, opts ...Option) *Store {
	s := &Store{
		primary: primary,
		policy: func(ctx context.Context, _ string, write func(context.Context) error) error {
			return write(ctx)
		},
		logger: slog.Default().With("component", "snapshot-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// Load returns the stored tree. It reports false when no backend holds a
// usable snapshot; the individual failures are logged, never returned.
func (s *Store) Load(ctx context.Context) (*index.Tree, bool) {
	for _, b := range s.backends() {
		tree, err := s.loadFrom(ctx, b)
		if err == nil {
			s.logger.Info("snapshot loaded",
				"backend", b.Name(),
				"words", tree.Size(),
			)
			return tree, true
		}
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("no snapshot in backend", "backend", b.Name())
			continue
		}
		s.logger.Warn("ignoring unusable snapshot",
			"backend", b.Name(),
			"error", err,
		)
	}
	return nil, false
}

func (s *Store) loadFrom(ctx context.Context, b Backend) (*index.Tree, error) {
	data, err := b.Read(ctx)
	if err != nil {
		s.count(b, "load", status(err))
		return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrPersistenceLoad, b.Name(), err)
	}
	tree, err := Decode(data)
	if err != nil {
		s.count(b, "load", "corrupt")
		return nil, fmt.Errorf("%w: decoding %s: %w", apperrors.ErrPersistenceLoad, b.Name(), err)
	}
	s.count(b, "load", "ok")
	return tree, nil
}

// Save encodes tree and writes it to the primary backend and every mirror.
// Only a primary failure is returned; mirror failures are logged.
func (s *Store) Save(ctx context.Context, tree *index.Tree) error {
	data, err := Encode(tree)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", apperrors.ErrPersistenceSave, err)
	}
	s.metrics.SnapshotBytes.Set(float64(len(data)))

	var g errgroup.Group
	for _, m := range s.mirrors {
		g.Go(func() error {
			err := s.policy(ctx, m.Name(), func(ctx context.Context) error {
				return m.Write(ctx, data)
			})
			s.count(m, "save", status(err))
			if err != nil {
				s.logger.Warn("mirror write failed", "backend", m.Name(), "error", err)
				return nil
			}
			s.logger.Debug("mirror written", "backend", m.Name(), "bytes", len(data))
			return nil
		})
	}

	primaryErr := s.primary.Write(ctx, data)
	s.count(s.primary, "save", status(primaryErr))
	_ = g.Wait()
	if primaryErr != nil {
		return fmt.Errorf("%w: writing %s: %w", apperrors.ErrPersistenceSave, s.primary.Name(), primaryErr)
	}
	s.logger.Info("snapshot saved",
		"backend", s.primary.Name(),
		"words", tree.Size(),
		"bytes", len(data),
		"mirrors", len(s.mirrors),
	)
	return nil
}

func (s *Store) backends() []Backend {
	return append([]Backend{s.primary}, s.mirrors...)
}

func (s *Store) count(b Backend, op, status string) {
	s.metrics.SnapshotOperationsTotal.WithLabelValues(b.Name(), op, status).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
