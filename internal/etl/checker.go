package etl

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/BartekS5/movies-etl/pkg/logger"
	"github.com/BartekS5/movies-etl/pkg/models"
)

// DefaultWindow is the page size used when comparing stores.
const DefaultWindow = 400

// Mismatch is one difference between the stores.
type Mismatch struct {
	Table  string
	Offset int
	Column string
	Source string
	Target string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s offset %d column %s: source=%s target=%s", m.Table, m.Offset, m.Column, m.Source, m.Target)
}

// TableCheck holds the row counts of one binding.
type TableCheck struct {
	Table      string
	SourceRows int
	TargetRows int
	Compared   int
}

// CheckReport is the outcome of Checker.Check.
type CheckReport struct {
	Tables     []TableCheck
	Mismatches []Mismatch
}

// OK reports whether the stores agree.
func (r *CheckReport) OK() bool { return len(r.Mismatches) == 0 }

// Checker re-reads both stores after a run and compares them: row counts
// first, then every row field by field, a window at a time. Both sides are
// decoded through the same Normalizer used for the load.
type Checker struct {
	Source     Extractor
	Target     Extractor
	Normalizer *Normalizer
	Window     int
}

func NewChecker(src, tgt Extractor, normalizer *Normalizer, window int) *Checker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Checker{Source: src, Target: tgt, Normalizer: normalizer, Window: window}
}

// Check returns an error only when a store cannot be read; differences are
// reported as mismatches.
func (c *Checker) Check(ctx context.Context, bindings []models.Binding) (*CheckReport, error) {
	report := &CheckReport{}
	for _, b := range bindings {
		tc, mismatches, err := c.checkTable(ctx, b)
		if err != nil {
			return report, err
		}
		report.Tables = append(report.Tables, tc)
		report.Mismatches = append(report.Mismatches, mismatches...)
		logger.Info("table verified",
			"table", b.TargetTable,
			"source_rows", tc.SourceRows,
			"target_rows", tc.TargetRows,
			"mismatches", len(mismatches),
		)
	}
	return report, nil
}

func (c *Checker) checkTable(ctx context.Context, b models.Binding) (TableCheck, []Mismatch, error) {
	tc := TableCheck{Table: b.TargetTable}
	var out []Mismatch

	var err error
	if tc.SourceRows, err = c.Source.Count(ctx, b); err != nil {
		return tc, nil, &ExtractError{Table: b.SourceTable, Err: err}
	}
	if tc.TargetRows, err = c.Target.Count(ctx, b); err != nil {
		return tc, nil, &ExtractError{Table: b.TargetTable, Err: err}
	}
	if tc.SourceRows != tc.TargetRows {
		out = append(out, Mismatch{
			Table:  b.TargetTable,
			Column: "count",
			Source: fmt.Sprint(tc.SourceRows),
			Target: fmt.Sprint(tc.TargetRows),
		})
	}

	for offset := 0; ; offset += c.Window {
		src, err := c.Source.Extract(ctx, b, c.Window, offset)
		if err != nil {
			return tc, out, &ExtractError{Table: b.SourceTable, Err: err}
		}
		dst, err := c.Target.Extract(ctx, b, c.Window, offset)
		if err != nil {
			return tc, out, &ExtractError{Table: b.TargetTable, Err: err}
		}

		n := min(len(src), len(dst))
		for i := 0; i < n; i++ {
			out = append(out, c.compareRow(b, offset+i, src[i], dst[i])...)
		}
		tc.Compared += n

		if len(src) < c.Window && len(dst) < c.Window {
			break
		}
	}
	return tc, out, nil
}

func (c *Checker) compareRow(b models.Binding, offset int, srcRaw, dstRaw models.RawRecord) []Mismatch {
	src, srcErr := c.Normalizer.Normalize(srcRaw)
	dst, dstErr := c.Normalizer.Normalize(dstRaw)
	if srcErr != nil || dstErr != nil {
		return []Mismatch{{
			Table:  b.TargetTable,
			Offset: offset,
			Column: failedField(srcErr, dstErr),
			Source: describeErr(srcErr),
			Target: describeErr(dstErr),
		}}
	}

	// Rows at one offset must share an id before their fields are compared.
	if src.Key() != dst.Key() {
		return []Mismatch{{
			Table:  b.TargetTable,
			Offset: offset,
			Column: "id",
			Source: src.Key().String(),
			Target: dst.Key().String(),
		}}
	}

	skip := make(map[int]bool)
	for _, col := range srcRaw.ClockDefaulted() {
		skip[b.TargetIndex(col)] = true
	}

	var out []Mismatch
	sv, dv := src.Values(), dst.Values()
	for i := range sv {
		if skip[i] || equalValue(sv[i], dv[i]) {
			continue
		}
		col := columnName(b, i)
		out = append(out, Mismatch{
			Table:  b.TargetTable,
			Offset: offset,
			Column: col,
			Source: formatValue(sv[i]),
			Target: formatValue(dv[i]),
		})
	}
	return out
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case *string:
		y, ok := b.(*string)
		return ok && (x == nil) == (y == nil) && (x == nil || *x == *y)
	case *float64:
		y, ok := b.(*float64)
		return ok && (x == nil) == (y == nil) && (x == nil || *x == *y)
	case *models.Role:
		y, ok := b.(*models.Role)
		return ok && (x == nil) == (y == nil) && (x == nil || *x == *y)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(timestampLayout)
	case *string:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprintf("%q", *x)
	case *float64:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprint(*x)
	case *models.Role:
		if x == nil {
			return "NULL"
		}
		return string(*x)
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprint(v)
	}
}

func failedField(errs ...error) string {
	for _, err := range errs {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return ce.Field
		}
	}
	return "row"
}

func describeErr(err error) string {
	if err == nil {
		return "ok"
	}
	return "unconvertible: " + err.Error()
}
