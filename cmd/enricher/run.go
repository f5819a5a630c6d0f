package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edudata/teacher-enrich-pipeline/internal/batch"
	"github.com/edudata/teacher-enrich-pipeline/internal/config"
	"github.com/edudata/teacher-enrich-pipeline/internal/curriculum"
	"github.com/edudata/teacher-enrich-pipeline/internal/enrich"
	"github.com/edudata/teacher-enrich-pipeline/internal/enrich/gemini"
	"github.com/edudata/teacher-enrich-pipeline/internal/util"
)

var (
	inputPath      string
	checkpointPath string
	outputPath     string
	errorLogPath   string
	catalogPath    string
	rulesPath      string
	dryRun         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enrichment pipeline over a source CSV",
	Long: `Run reads the source CSV, applies base transforms, enriches each record
through the inference backend, and writes the scored output table.

The checkpoint file is appended to after every record. Re-running with the
same checkpoint resumes where the previous run stopped.

Example:
  enricher run --input teachers.csv --checkpoint work/checkpoint.csv \
    --output enriched.csv --catalog dubai_schools.csv`,
	RunE: runEnrichment,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&inputPath, "input", "", "source CSV path (required)")
	runCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint CSV path (required)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "final output CSV path (required)")
	runCmd.Flags().StringVar(&errorLogPath, "error-log", "", "error log CSV path (default: enrichment_errors.csv next to the output)")
	runCmd.Flags().StringVar(&catalogPath, "catalog", "", "school curriculum reference CSV (optional)")
	runCmd.Flags().StringVar(&rulesPath, "rules", "", "YAML overlay of brand rules and stop-words (optional)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the full pipeline with default values instead of inference calls")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("checkpoint")
	_ = runCmd.MarkFlagRequired("output")
}

func runEnrichment(cmd *cobra.Command, _ []string) error {
	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if err := cfg.Validate(!dryRun); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var inferencer enrich.Inferencer
	if dryRun {
		logger.Info("dry run, inference calls are skipped")
		inferencer = enrich.NopInferencer{}
	} else {
		gi, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
		if err != nil {
			return errors.Wrap(err, "build inference client")
		}
		inferencer = gi
		logger.Info("inference client ready", zap.String("model", gi.Model()))
	}

	catalog, err := loadCatalog(logger)
	if err != nil {
		return err
	}

	if errorLogPath == "" {
		errorLogPath = filepath.Join(filepath.Dir(outputPath), "enrichment_errors.csv")
	}

	pacer := batch.NewPacer(batch.PacingPolicy{
		MinCallInterval: cfg.Pacing.MinCallInterval,
		RecordDelay:     cfg.Pacing.RecordDelay,
		BatchSize:       cfg.Pacing.BatchSize,
		BatchDelay:      cfg.Pacing.BatchDelay,
	}, nil)

	proc := batch.New(inferencer, catalog, pacer, logger, batch.Options{
		InputPath:      inputPath,
		CheckpointPath: checkpointPath,
		OutputPath:     outputPath,
		ErrorLogPath:   errorLogPath,
		Retry: enrich.RetryOptions{
			MaxRetries:     cfg.Retry.MaxRetries,
			RequestTimeout: cfg.Retry.RequestTimeout,
			BackoffInitial: cfg.Retry.BackoffInitial,
			BackoffMax:     cfg.Retry.BackoffMax,
		},
	})

	sum, err := proc.Run(ctx)
	if err != nil {
		return errors.New(util.RedactSecrets(err.Error()))
	}
	fmt.Printf("enriched %d of %d records (%d resumed, %d failed) in %s\n",
		sum.Enriched, sum.Total, sum.Resumed, sum.Failed, sum.Elapsed.Round(time.Millisecond))
	return nil
}

func loadCatalog(logger *zap.Logger) (*curriculum.Catalog, error) {
	catalog := curriculum.NewCatalog()
	if catalogPath != "" {
		c, err := curriculum.LoadCatalog(catalogPath)
		if err != nil {
			return nil, errors.Wrap(err, "load curriculum catalog")
		}
		catalog = c
		logger.Info("curriculum catalog loaded",
			zap.String("path", catalogPath), zap.Int("entries", catalog.Size()))
	} else {
		logger.Warn("no curriculum catalog given, resolution uses brand rules only")
	}
	if rulesPath != "" {
		if err := catalog.ApplyRulesFile(rulesPath); err != nil {
			return nil, errors.Wrap(err, "apply rules overlay")
		}
	}
	return catalog, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
