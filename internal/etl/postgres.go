package etl

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
)

// PostgresTarget loads into tables under Schema on a single connection.
type PostgresTarget struct {
	Conn   *pgx.Conn
	Schema string
}

func NewPostgresTarget(conn *pgx.Conn, schema string) *PostgresTarget {
	return &PostgresTarget{Conn: conn, Schema: schema}
}

func (p *PostgresTarget) Begin(ctx context.Context) (TargetTx, error) {
	tx, err := p.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx, schema: p.Schema}, nil
}

type postgresTx struct {
	tx       pgx.Tx
	schema   string
	isClosed bool
}

func (t *postgresTx) TruncateCascade(ctx context.Context, table string) error {
	_, err := t.tx.Exec(ctx, "TRUNCATE TABLE "+targetIdentifier(t.schema, table)+" CASCADE")
	return err
}

// CopyFrom streams r through COPY ... FROM STDIN on the transaction's
// connection.
func (t *postgresTx) CopyFrom(ctx context.Context, table string, columns []string, format Format, r io.Reader) (int64, error) {
	sql := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (%s)",
		targetIdentifier(t.schema, table), joinIdentifiers(columns), format.CopyOptions())

	tag, err := t.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if t.isClosed {
		return nil
	}
	t.isClosed = true
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if t.isClosed {
		return nil
	}
	t.isClosed = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
