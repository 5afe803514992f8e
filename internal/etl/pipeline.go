package etl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BartekS5/movies-etl/pkg/logger"
	"github.com/BartekS5/movies-etl/pkg/models"
)

// State is the terminal state of a run.
type State string

const (
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// TableReport summarizes one binding of a run.
type TableReport struct {
	Entity    models.Entity
	Table     string
	Extracted int
	Skipped   int
	Loaded    int64
	Duration  time.Duration
}

// Report is the outcome of Pipeline.Run.
type Report struct {
	State       State
	DryRun      bool
	Tables      []TableReport
	FailedTable string
	Err         error
}

// Pipeline migrates every binding, in order, inside one target transaction.
// Rows that fail conversion are logged and skipped; any table-level failure
// rolls the whole batch back.
type Pipeline struct {
	Source     Extractor
	Target     Target
	Normalizer *Normalizer
	Serializer *Serializer
	Loader     *BulkLoader
	Bindings   []models.Binding
	// DryRun performs the full load and then rolls it back.
	DryRun bool
}

func NewPipeline(src Extractor, tgt Target, normalizer *Normalizer, serializer *Serializer, bindings []models.Binding, dryRun bool) *Pipeline {
	return &Pipeline{
		Source:     src,
		Target:     tgt,
		Normalizer: normalizer,
		Serializer: serializer,
		Loader:     NewBulkLoader(serializer.Format),
		Bindings:   bindings,
		DryRun:     dryRun,
	}
}

// Run returns a report in every case. The error is non-nil exactly when the
// report is Aborted.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: p.DryRun}
	start := time.Now()

	logger.Info("starting migration", "tables", len(p.Bindings), "dry_run", p.DryRun)

	tx, err := p.Target.Begin(ctx)
	if err != nil {
		return p.abort(report, "", &LoadError{Stage: StageBegin, Err: err})
	}

	for _, b := range p.Bindings {
		tr, err := p.runTable(ctx, tx, b)
		report.Tables = append(report.Tables, tr)
		if err != nil {
			p.rollback(ctx, tx)
			return p.abort(report, b.TargetTable, err)
		}
	}

	if p.DryRun {
		p.rollback(ctx, tx)
		report.State = StateCompleted
		logger.Info("dry run finished, changes rolled back", "elapsed", time.Since(start))
		return report, nil
	}

	if err := tx.Commit(ctx); err != nil {
		p.rollback(ctx, tx)
		return p.abort(report, "", &LoadError{Stage: StageCommit, Err: err})
	}

	report.State = StateCompleted
	logger.Info("migration completed", "elapsed", time.Since(start))
	return report, nil
}

func (p *Pipeline) runTable(ctx context.Context, tx TargetTx, b models.Binding) (tr TableReport, err error) {
	tr = TableReport{Entity: b.Entity, Table: b.TargetTable}
	log := logger.With("table", b.TargetTable)
	start := time.Now()
	defer func() { tr.Duration = time.Since(start) }()

	raws, err := p.Source.Extract(ctx, b, 0, 0)
	if err != nil {
		return tr, &ExtractError{Table: b.SourceTable, Err: err}
	}
	tr.Extracted = len(raws)

	var staging bytes.Buffer
	for _, raw := range raws {
		err := p.stage(&staging, b, raw)
		if err == nil {
			continue
		}
		var ce *ConversionError
		if !errors.As(err, &ce) {
			return tr, err
		}
		tr.Skipped++
		log.Warnw("skipping row", "entity", ce.Entity, "field", ce.Field, "value", ce.Value, "error", ce.Err)
	}

	loaded, err := p.Loader.Load(ctx, tx, b, &staging)
	if err != nil {
		return tr, err
	}
	tr.Loaded = loaded

	log.Infow("table loaded",
		"extracted", tr.Extracted,
		"skipped", tr.Skipped,
		"loaded", tr.Loaded,
		"elapsed", time.Since(start),
	)
	return tr, nil
}

func (p *Pipeline) stage(buf *bytes.Buffer, b models.Binding, raw models.RawRecord) error {
	rec, err := p.Normalizer.Normalize(raw)
	if err != nil {
		return err
	}
	return p.Serializer.Write(buf, b, rec)
}

func (p *Pipeline) rollback(ctx context.Context, tx TargetTx) {
	if err := tx.Rollback(ctx); err != nil {
		logger.Error("rollback failed", "error", err)
	}
}

func (p *Pipeline) abort(report *Report, table string, err error) (*Report, error) {
	report.State = StateAborted
	report.FailedTable = table
	report.Err = err
	logger.Error("migration aborted, target rolled back", "table", table, "error", err)
	if table != "" {
		return report, fmt.Errorf("migration aborted at table %s: %w", table, err)
	}
	return report, fmt.Errorf("migration aborted: %w", err)
}
