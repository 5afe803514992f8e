package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/BartekS5/movies-etl/pkg/models"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
)

// Side selects which half of a binding an extractor reads.
type Side int

const (
	SourceSide Side = iota
	TargetSide
)

// SQLExtractor reads raw rows through database/sql. Every column is cast to
// text so both stores produce the same untyped shape, and target columns
// are aliased to their source names so one input schema fits both.
type SQLExtractor struct {
	DB     *sqlx.DB
	Flavor sqlbuilder.Flavor
	Side   Side
	Schema string
}

// NewSourceExtractor reads the legacy SQLite tables.
func NewSourceExtractor(db *sqlx.DB) *SQLExtractor {
	return &SQLExtractor{DB: db, Flavor: sqlbuilder.SQLite, Side: SourceSide}
}

// NewTargetExtractor reads the loaded PostgreSQL tables under schema.
func NewTargetExtractor(db *sqlx.DB, schema string) *SQLExtractor {
	return &SQLExtractor{DB: db, Flavor: sqlbuilder.PostgreSQL, Side: TargetSide, Schema: schema}
}

func (s *SQLExtractor) Extract(ctx context.Context, b models.Binding, limit, offset int) ([]models.RawRecord, error) {
	query, args := s.selectQuery(b, limit, offset)

	rows, err := s.DB.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table(b), err)
	}
	defer rows.Close()

	var out []models.RawRecord
	for rows.Next() {
		rec := b.NewRow()
		if err := rows.StructScan(rec); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table(b), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.table(b), err)
	}
	return out, nil
}

func (s *SQLExtractor) Count(ctx context.Context, b models.Binding) (int, error) {
	sb := s.Flavor.NewSelectBuilder()
	sb.Select("COUNT(*)").From(s.table(b))
	query, args := sb.Build()

	var n int
	if err := s.DB.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table(b), err)
	}
	return n, nil
}

func (s *SQLExtractor) selectQuery(b models.Binding, limit, offset int) (string, []interface{}) {
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = s.columnExpr(c)
	}

	sb := s.Flavor.NewSelectBuilder()
	sb.Select(cols...).From(s.table(b)).OrderBy(s.orderExpr())
	if limit > 0 {
		sb.Limit(limit).Offset(offset)
	}
	return sb.Build()
}

func (s *SQLExtractor) table(b models.Binding) string {
	if s.Side == SourceSide {
		return pgx.Identifier{b.SourceTable}.Sanitize()
	}
	return targetIdentifier(s.Schema, b.TargetTable)
}

func (s *SQLExtractor) columnExpr(c models.Column) string {
	alias := pgx.Identifier{c.Source}.Sanitize()
	if s.Side == SourceSide {
		return fmt.Sprintf("CAST(%s AS TEXT) AS %s", alias, alias)
	}
	return fmt.Sprintf("%s::text AS %s", pgx.Identifier{c.Target}.Sanitize(), alias)
}

// orderExpr sorts by the textual id on both sides so pages line up.
func (s *SQLExtractor) orderExpr() string {
	if s.Side == SourceSide {
		return `lower(CAST("id" AS TEXT))`
	}
	return `"id"::text COLLATE "C"`
}

func targetIdentifier(schema, table string) string {
	if schema == "" {
		return pgx.Identifier{table}.Sanitize()
	}
	return pgx.Identifier{schema, table}.Sanitize()
}

func joinIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pgx.Identifier{n}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
