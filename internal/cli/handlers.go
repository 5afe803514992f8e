package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/movies-etl/internal/config"
	"github.com/BartekS5/movies-etl/internal/etl"
	"github.com/BartekS5/movies-etl/pkg/database"
	"github.com/BartekS5/movies-etl/pkg/logger"
	"github.com/BartekS5/movies-etl/pkg/models"
)

func setup(mappingFile string) (*config.Config, []models.Binding, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.InitLogger(cfg.LogFile, cfg.LogLevel, cfg.LogMode); err != nil {
		return nil, nil, err
	}

	mapping, err := config.LoadMapping(mappingFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, mapping.Apply(models.DefaultBindings()), nil
}

// runClock pins every clock fallback of one run to the run's start.
func runClock() etl.Clock {
	start := time.Now().UTC()
	return func() time.Time { return start }
}

func runMigration(ctx context.Context, opts *MigrateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, bindings, err := setup(opts.MappingFile)
	if err != nil {
		return err
	}

	serializer, err := etl.NewSerializer(cfg.CopyFormat())
	if err != nil {
		return fmt.Errorf("COPY_QUOTE_CHAR: %w", err)
	}

	sqliteDB, err := database.ConnectSQLite(cfg.SQLitePath)
	if err != nil {
		return &etl.ConnectionError{Store: "sqlite", Err: err}
	}
	defer sqliteDB.Close()

	pgConn, err := database.ConnectPostgres(ctx, cfg.Postgres())
	if err != nil {
		return &etl.ConnectionError{Store: "postgres", Err: err}
	}
	defer pgConn.Close(context.Background())

	pipeline := etl.NewPipeline(
		etl.NewSourceExtractor(sqliteDB),
		etl.NewPostgresTarget(pgConn, cfg.DBSchema),
		etl.NewNormalizer(runClock(), cfg.SourceLocation),
		serializer,
		bindings,
		opts.DryRun,
	)

	report, err := pipeline.Run(ctx)
	for _, t := range report.Tables {
		logger.Infof("%-18s extracted=%d skipped=%d loaded=%d (%s)", t.Table, t.Extracted, t.Skipped, t.Loaded, t.Duration.Round(time.Millisecond))
	}
	return err
}

func runVerify(ctx context.Context, opts *VerifyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, bindings, err := setup(opts.MappingFile)
	if err != nil {
		return err
	}

	window := cfg.VerifyWindow
	if opts.Window > 0 {
		window = opts.Window
	}

	sqliteDB, err := database.ConnectSQLite(cfg.SQLitePath)
	if err != nil {
		return &etl.ConnectionError{Store: "sqlite", Err: err}
	}
	defer sqliteDB.Close()

	pgDB, err := database.OpenPostgresSQL(cfg.Postgres())
	if err != nil {
		return &etl.ConnectionError{Store: "postgres", Err: err}
	}
	defer pgDB.Close()

	checker := etl.NewChecker(
		etl.NewSourceExtractor(sqliteDB),
		etl.NewTargetExtractor(pgDB, cfg.DBSchema),
		etl.NewNormalizer(runClock(), cfg.SourceLocation),
		window,
	)

	report, err := checker.Check(ctx, bindings)
	if err != nil {
		return err
	}
	for _, m := range report.Mismatches {
		logger.Warn("mismatch", "table", m.Table, "offset", m.Offset, "column", m.Column, "source", m.Source, "target", m.Target)
	}
	if !report.OK() {
		return fmt.Errorf("verification failed: %d mismatches", len(report.Mismatches))
	}
	logger.Info("stores are consistent", "tables", len(report.Tables))
	return nil
}
