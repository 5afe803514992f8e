package etl

import (
	"context"
	"io"

	"github.com/BartekS5/movies-etl/pkg/models"
)

// BulkLoader replaces the contents of one target table: cascade truncate,
// then a single COPY of the staged lines.
type BulkLoader struct {
	Format Format
}

func NewBulkLoader(format Format) *BulkLoader {
	return &BulkLoader{Format: format}
}

// Load returns the number of rows the target accepted. A rejection of any
// line fails the whole table with a *LoadError; the truncate stays pending
// in tx until the caller rolls back.
func (l *BulkLoader) Load(ctx context.Context, tx TargetTx, b models.Binding, r io.Reader) (int64, error) {
	if err := tx.TruncateCascade(ctx, b.TargetTable); err != nil {
		return 0, &LoadError{Table: b.TargetTable, Stage: StageTruncate, Err: err}
	}

	n, err := tx.CopyFrom(ctx, b.TargetTable, b.TargetColumns(), l.Format, r)
	if err != nil {
		return 0, &LoadError{Table: b.TargetTable, Stage: StageCopy, Err: err}
	}
	return n, nil
}
