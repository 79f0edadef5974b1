package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
)

func newCheckCmd(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the snapshot location and enabled backends are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr(), opts.configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			report := newChecker(cfg).Run(ctx)
			logger.WithComponent("check").Info("health check finished",
				"status", report.Status,
				"components", len(report.Components),
			)
			if err := report.WriteJSON(cmd.OutOrStdout()); err != nil {
				return err
			}
			if report.Status == health.StatusDown {
				return apperrors.New(apperrors.ErrBackendUnavailable, apperrors.ExitFailure, "health check failed")
			}
			return nil
		},
	}
}

// newChecker registers the snapshot directory and every enabled backend.
// Mirrors and Kafka are optional, so their failures only degrade the report.
func newChecker(cfg *config.Config) *health.Checker {
	checker := health.NewChecker()
	checker.Register("snapshot", health.WritableDirCheck(cfg.Snapshot.Path))

	if cfg.Snapshot.RedisMirror {
		checker.Register("redis", health.OptionalCheck(health.PingCheck(func(ctx context.Context) error {
			rc, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer rc.Close()
			return rc.Ping(ctx)
		})))
	}
	if cfg.Snapshot.PostgresMirror {
		checker.Register("postgres", health.OptionalCheck(health.PingCheck(func(ctx context.Context) error {
			db, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Ping(ctx)
		})))
	}
	if cfg.Kafka.Enabled {
		checker.Register("kafka", health.OptionalCheck(health.PingCheck(func(ctx context.Context) error {
			producer := kafka.NewProducer(cfg.Kafka)
			defer producer.Close()
			return producer.Ping(ctx)
		})))
	}
	return checker
}
