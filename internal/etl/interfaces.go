package etl

import (
	"context"
	"io"

	"github.com/BartekS5/movies-etl/pkg/models"
)

// Extractor reads raw rows of one binding from a store. A limit of zero or
// less selects every row; otherwise rows [offset, offset+limit) in a stable
// id order are returned.
type Extractor interface {
	Extract(ctx context.Context, b models.Binding, limit, offset int) ([]models.RawRecord, error)
	Count(ctx context.Context, b models.Binding) (int, error)
}

// Target is the store being loaded. All work of a run happens inside one
// transaction.
type Target interface {
	Begin(ctx context.Context) (TargetTx, error)
}

// TargetTx is the per-run transaction on the target store.
type TargetTx interface {
	TruncateCascade(ctx context.Context, table string) error
	CopyFrom(ctx context.Context, table string, columns []string, format Format, r io.Reader) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
