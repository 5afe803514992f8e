package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BartekS5/movies-etl/pkg/models"
)

// memSource serves raw records per source table, ordered by id.
type memSource struct {
	rows      map[string][]models.RawRecord
	failTable string
}

func newMemSource() *memSource {
	return &memSource{rows: make(map[string][]models.RawRecord)}
}

func (s *memSource) add(table string, recs ...models.RawRecord) {
	s.rows[table] = append(s.rows[table], recs...)
	sort.SliceStable(s.rows[table], func(i, j int) bool {
		return strings.ToLower(rawID(s.rows[table][i])) < strings.ToLower(rawID(s.rows[table][j]))
	})
}

func (s *memSource) Extract(_ context.Context, b models.Binding, limit, offset int) ([]models.RawRecord, error) {
	if b.SourceTable == s.failTable {
		return nil, errors.New("disk I/O error")
	}
	return window(s.rows[b.SourceTable], limit, offset), nil
}

func (s *memSource) Count(_ context.Context, b models.Binding) (int, error) {
	return len(s.rows[b.SourceTable]), nil
}

func window[T any](all []T, limit, offset int) []T {
	if limit <= 0 {
		return append([]T(nil), all...)
	}
	if offset >= len(all) {
		return nil
	}
	end := min(offset+limit, len(all))
	return append([]T(nil), all[offset:end]...)
}

func rawID(r models.RawRecord) string {
	v := reflect.ValueOf(r).Elem().FieldByName("ID")
	if p, ok := v.Interface().(*string); ok && p != nil {
		return *p
	}
	return ""
}

// memTarget mimics the target schema: cascade truncate, foreign keys,
// primary keys, the (film_work, genre) unique pair and transactions.
type memTarget struct {
	tables    map[string]*memTable
	fks       map[string][]foreignKey
	begins    int
	commits   int
	rollbacks int
}

type memTable struct {
	columns []string
	rows    [][]*string
}

type foreignKey struct {
	column string
	ref    string
}

func newMemTarget() *memTarget {
	t := &memTarget{
		tables: make(map[string]*memTable),
		fks: map[string][]foreignKey{
			"genre_film_work":  {{"film_work_id", "film_work"}, {"genre_id", "genre"}},
			"person_film_work": {{"film_work_id", "film_work"}, {"person_id", "person"}},
		},
	}
	for _, b := range models.DefaultBindings() {
		t.tables[b.TargetTable] = &memTable{columns: b.TargetColumns()}
	}
	return t
}

func (t *memTarget) count(table string) int {
	return len(t.tables[table].rows)
}

func (t *memTarget) counts() map[string]int {
	out := make(map[string]int)
	for name, tbl := range t.tables {
		out[name] = len(tbl.rows)
	}
	return out
}

func (t *memTarget) Begin(_ context.Context) (TargetTx, error) {
	t.begins++
	return &memTx{target: t, tables: cloneTables(t.tables)}, nil
}

// Extract makes the committed state readable by the checker.
func (t *memTarget) Extract(_ context.Context, b models.Binding, limit, offset int) ([]models.RawRecord, error) {
	tbl, ok := t.tables[b.TargetTable]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", b.TargetTable)
	}
	idIdx := indexOf(tbl.columns, "id")
	rows := append([][]*string(nil), tbl.rows...)
	sort.SliceStable(rows, func(i, j int) bool { return *rows[i][idIdx] < *rows[j][idIdx] })

	var out []models.RawRecord
	for _, row := range window(rows, limit, offset) {
		rec := b.NewRow()
		for _, c := range b.Columns {
			setRawField(rec, c.Source, row[indexOf(tbl.columns, c.Target)])
		}
		out = append(out, rec)
	}
	return out, nil
}

func (t *memTarget) Count(_ context.Context, b models.Binding) (int, error) {
	return len(t.tables[b.TargetTable].rows), nil
}

type memTx struct {
	target *memTarget
	tables map[string]*memTable
	failed bool
}

func (tx *memTx) TruncateCascade(_ context.Context, table string) error {
	if tx.failed {
		return errors.New("current transaction is aborted")
	}
	if _, ok := tx.tables[table]; !ok {
		tx.failed = true
		return fmt.Errorf("relation %q does not exist", table)
	}
	tx.truncate(table, map[string]bool{})
	return nil
}

func (tx *memTx) truncate(table string, seen map[string]bool) {
	if seen[table] {
		return
	}
	seen[table] = true
	tx.tables[table].rows = nil
	for child, fks := range tx.target.fks {
		for _, fk := range fks {
			if fk.ref == table {
				tx.truncate(child, seen)
			}
		}
	}
}

func (tx *memTx) CopyFrom(_ context.Context, table string, columns []string, format Format, r io.Reader) (int64, error) {
	if tx.failed {
		return 0, errors.New("current transaction is aborted")
	}
	n, err := tx.copy(table, columns, format, r)
	if err != nil {
		tx.failed = true
	}
	return n, err
}

func (tx *memTx) copy(table string, columns []string, format Format, r io.Reader) (int64, error) {
	tbl, ok := tx.tables[table]
	if !ok {
		return 0, fmt.Errorf("relation %q does not exist", table)
	}
	if !reflect.DeepEqual(columns, tbl.columns) {
		return 0, fmt.Errorf("column list %v does not match %v", columns, tbl.columns)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	recs, err := parseCopy(data, format)
	if err != nil {
		return 0, err
	}

	idIdx := indexOf(columns, "id")
	ids := make(map[string]bool)
	pairs := make(map[string]bool)
	for line, rec := range recs {
		if len(rec) != len(columns) {
			return 0, fmt.Errorf("line %d: expected %d fields, got %d", line+1, len(columns), len(rec))
		}
		for _, v := range rec {
			if v != nil && !utf8.ValidString(*v) {
				return 0, fmt.Errorf("line %d: invalid byte sequence for encoding \"UTF8\"", line+1)
			}
		}
		if rec[idIdx] == nil || ids[*rec[idIdx]] {
			return 0, fmt.Errorf("line %d: duplicate key value violates unique constraint on id", line+1)
		}
		ids[*rec[idIdx]] = true

		for _, fk := range tx.target.fks[table] {
			v := rec[indexOf(columns, fk.column)]
			if v == nil || !tx.hasID(fk.ref, *v) {
				return 0, fmt.Errorf("line %d: insert or update on table %q violates foreign key constraint on %s", line+1, table, fk.column)
			}
		}
		if table == "genre_film_work" {
			key := *rec[indexOf(columns, "film_work_id")] + "/" + *rec[indexOf(columns, "genre_id")]
			if pairs[key] {
				return 0, fmt.Errorf("line %d: duplicate key value violates unique constraint unique_film_genre", line+1)
			}
			pairs[key] = true
		}
	}

	tbl.rows = append(tbl.rows, recs...)
	return int64(len(recs)), nil
}

func (tx *memTx) hasID(table, id string) bool {
	tbl := tx.tables[table]
	idIdx := indexOf(tbl.columns, "id")
	for _, row := range tbl.rows {
		if *row[idIdx] == id {
			return true
		}
	}
	return false
}

func (tx *memTx) Commit(_ context.Context) error {
	if tx.failed {
		return errors.New("current transaction is aborted")
	}
	tx.target.tables = tx.tables
	tx.target.commits++
	return nil
}

func (tx *memTx) Rollback(_ context.Context) error {
	tx.target.rollbacks++
	return nil
}

func cloneTables(in map[string]*memTable) map[string]*memTable {
	out := make(map[string]*memTable, len(in))
	for name, tbl := range in {
		out[name] = &memTable{
			columns: tbl.columns,
			rows:    append([][]*string(nil), tbl.rows...),
		}
	}
	return out
}

// parseCopy reads CSV-mode COPY input: quoted fields with doubled quotes,
// unquoted null token, newline-terminated records.
func parseCopy(data []byte, f Format) ([][]*string, error) {
	var (
		rows     [][]*string
		row      []*string
		field    []byte
		quoted   bool
		inQuotes bool
	)
	finish := func() {
		if !quoted && string(field) == f.Null {
			row = append(row, nil)
		} else {
			s := string(field)
			row = append(row, &s)
		}
		field, quoted = nil, false
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inQuotes {
			if c == f.Quote {
				if i+1 < len(data) && data[i+1] == f.Quote {
					field = append(field, c)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field = append(field, c)
			continue
		}
		switch c {
		case f.Quote:
			inQuotes, quoted = true, true
		case f.Delimiter:
			finish()
		case '\n':
			finish()
			rows = append(rows, row)
			row = nil
		default:
			field = append(field, c)
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated quoted field")
	}
	if len(field) > 0 || len(row) > 0 {
		return nil, errors.New("missing final newline")
	}
	return rows, nil
}

func setRawField(rec models.RawRecord, column string, v *string) {
	rv := reflect.ValueOf(rec).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).Tag.Get("db") == column {
			rv.Field(i).Set(reflect.ValueOf(v))
			return
		}
	}
	panic("no field for column " + column)
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
