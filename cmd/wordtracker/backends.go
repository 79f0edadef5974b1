package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/resilience"
)

// mirrorSet holds the enabled mirror backends and the clients behind them.
type mirrorSet struct {
	backends []snapshot.Backend
	closers  []func() error
}

func (m *mirrorSet) Close() {
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			slog.Warn("closing mirror client", "error", err)
		}
	}
}

// openMirrors connects every enabled mirror. A mirror that cannot be reached
// is left out of the run; the primary file is all a run needs.
func openMirrors(ctx context.Context, cfg *config.Config) *mirrorSet {
	log := logger.FromContext(ctx).With("component", "mirrors")
	set := &mirrorSet{}

	if cfg.Snapshot.RedisMirror {
		if rc, err := pkgredis.NewClient(cfg.Redis); err != nil {
			log.Warn("redis mirror disabled", "error", fmt.Errorf("%w: %w", apperrors.ErrBackendUnavailable, err))
		} else {
			set.backends = append(set.backends, snapshot.NewRedisBackend(rc, cfg.Snapshot.RedisKey))
			set.closers = append(set.closers, rc.Close)
		}
	}

	if cfg.Snapshot.PostgresMirror {
		backend, closeFn, err := openPostgresMirror(ctx, cfg)
		if err != nil {
			log.Warn("postgres mirror disabled", "error", fmt.Errorf("%w: %w", apperrors.ErrBackendUnavailable, err))
		} else {
			set.backends = append(set.backends, backend)
			set.closers = append(set.closers, closeFn)
		}
	}

	log.Debug("mirrors ready", "count", len(set.backends))
	return set
}

func openPostgresMirror(ctx context.Context, cfg *config.Config) (*snapshot.PostgresBackend, func() error, error) {
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	backend, err := snapshot.NewPostgresBackend(db, cfg.Snapshot.PostgresTable, cfg.Snapshot.PostgresName)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := backend.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return backend, db.Close, nil
}

// mirrorPolicy retries each mirror write with a per-attempt timeout. Errors
// another attempt cannot fix end the retries.
func mirrorPolicy(cfg config.SnapshotConfig) snapshot.MirrorPolicy {
	retry := resilience.RetryConfig{MaxAttempts: cfg.MirrorAttempts}
	return func(ctx context.Context, backend string, write func(ctx context.Context) error) error {
		return resilience.Guard(ctx, "mirror "+backend, cfg.MirrorTimeout, retry, func(ctx context.Context) error {
			err := write(ctx)
			if err != nil && !snapshot.Retryable(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	}
}
