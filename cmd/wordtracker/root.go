package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/events"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/snapshot"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/report"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/tracing"
)

const usageLine = "wordtracker <input.txt>... -pf|-pl|-po [-f <output.txt>]"

type runOptions struct {
	configPath string
	print      string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   usageLine,
		Short: "Index the words of text files and print where they occur",
		Long: `wordtracker records, for every distinct word (case-insensitively), the
files it appears in and the lines within each file. The index is kept in a
snapshot file and grows with every run.

Print modes:
  -pf  words with the files they occur in
  -pl  words with files and lines
  -po  words with files and line numbers`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w (usage: %s)", apperrors.ErrUsage, err, usageLine)
	})

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&opts.print, "print", "p", "", "print mode: f (files), l (lines) or o (line numbers)")
	cmd.Flags().StringVarP(&opts.output, "output", "f", "", "write the report to this file instead of stdout")

	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

func usageError(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, format+" (usage: %s)", append(args, usageLine)...)
}

func validate(args []string, opts *runOptions) (report.Mode, error) {
	if len(args) == 0 {
		return 0, usageError("no input files given")
	}
	if opts.print == "" {
		return 0, usageError("missing print mode -pf, -pl or -po")
	}
	mode, err := report.ParseMode(opts.print)
	if err != nil {
		return 0, usageError("invalid argument for the -p flag: %s", opts.print)
	}
	for _, in := range args {
		info, err := os.Stat(in)
		if err != nil {
			return 0, apperrors.Newf(apperrors.ErrUnreadable, apperrors.ExitUnreadable, "input file %s: %v", in, err)
		}
		if info.IsDir() {
			return 0, apperrors.Newf(apperrors.ErrUnreadable, apperrors.ExitUnreadable, "input %s is a directory", in)
		}
	}
	return mode, nil
}

func run(cmd *cobra.Command, args []string, opts *runOptions) error {
	mode, err := validate(args, opts)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd.ErrOrStderr(), opts.configPath)
	if err != nil {
		return err
	}

	// status lines share stdout only when the report goes elsewhere
	status := cmd.ErrOrStderr()
	if opts.output != "" {
		status = cmd.OutOrStdout()
	}

	runID := tracing.NewTraceID()
	ctx := logger.WithRunID(cmd.Context(), runID)
	ctx, root := tracing.StartSpan(ctx, "run", runID)
	log := logger.FromContext(ctx)
	m := metrics.New()
	start := time.Now()

	mirrors := openMirrors(ctx, cfg)
	defer mirrors.Close()
	store := snapshot.NewStore(
		snapshot.NewFileBackend(cfg.Snapshot.Path),
		snapshot.WithMirrors(mirrors.backends...),
		snapshot.WithMirrorPolicy(mirrorPolicy(cfg.Snapshot)),
		snapshot.WithMetrics(m),
	)

	fmt.Fprintf(status, "Printing words with %s...\n", mode)

	var engine *indexer.Engine
	phase(ctx, "load", func(ctx context.Context) {
		engine = indexer.NewEngine(ctx, store, indexer.WithMetrics(m))
		tracing.SpanFromContext(ctx).SetAttr("restored", engine.Stats().Restored)
	})

	var processErr error
	phase(ctx, "process", func(ctx context.Context) {
		span := tracing.SpanFromContext(ctx)
		defer func() {
			stats := engine.Stats()
			span.SetAttr("sources", stats.Sources)
			span.SetAttr("tokens", stats.Tokens)
		}()
		for _, in := range args {
			fmt.Fprintf(status, "Processing file: %s\n", in)
			if err := engine.ProcessFile(in); err != nil {
				processErr = err
				return
			}
		}
	})
	if processErr != nil {
		log.Error("indexing aborted", "error", processErr)
		return processErr
	}

	var saveErr error
	phase(ctx, "persist", func(ctx context.Context) {
		saveErr = engine.Persist(ctx)
		span := tracing.SpanFromContext(ctx)
		span.SetAttr("words", engine.Tree().Size())
		span.SetAttr("saved", saveErr == nil)
	})
	if saveErr != nil {
		log.Error("snapshot not saved", "path", cfg.Snapshot.Path, "error", saveErr)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", saveErr)
	}

	var reportErr error
	phase(ctx, "report", func(ctx context.Context) {
		tracing.SpanFromContext(ctx).SetAttr("mode", mode.String())
		reportErr = writeReport(cmd.OutOrStdout(), status, engine, mode, opts.output)
	})
	if reportErr != nil {
		return reportErr
	}

	elapsed := time.Since(start)
	fmt.Fprintf(status, "Time elapsed: %dms\n", elapsed.Milliseconds())

	if cfg.Kafka.Enabled {
		publishRun(ctx, cfg.Kafka, events.RunCompleted{
			RunID:         runID,
			Sources:       args,
			Mode:          mode.String(),
			Stats:         engine.Stats(),
			SnapshotSaved: saveErr == nil,
			DurationMS:    elapsed.Milliseconds(),
		})
	}

	root.End()
	root.Log(log)
	recordPhases(root, m)
	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("metrics not written", "error", err)
		}
	}
	log.Info("run complete",
		"words", engine.Tree().Size(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return saveErr
}

func loadConfig(logs io.Writer, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "loading config: %v", err)
	}
	logger.SetupWriter(logs, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// phase runs fn inside a child span named name.
func phase(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, span := tracing.StartChildSpan(ctx, name)
	defer span.End()
	fn(ctx)
}

func recordPhases(root *tracing.Span, m *metrics.Metrics) {
	root.Walk(func(span *tracing.Span, depth int) {
		if depth == 1 {
			m.PhaseDuration.WithLabelValues(span.Name).Observe(span.Duration.Seconds())
		}
	})
}

func writeReport(stdout, status io.Writer, engine *indexer.Engine, mode report.Mode, output string) error {
	if output == "" {
		return report.Write(stdout, engine.Tree(), mode)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := report.Write(f, engine.Tree(), mode); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file %s: %w", output, err)
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		abs = output
	}
	fmt.Fprintf(status, "Output file written to: %s\n", abs)
	return nil
}

func publishRun(ctx context.Context, cfg config.KafkaConfig, ev events.RunCompleted) {
	producer := kafka.NewProducer(cfg)
	defer producer.Close()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := events.NewNotifier(producer).RunCompleted(ctx, ev); err != nil {
		logger.FromContext(ctx).Warn("run event not published", "error", err)
	}
}
