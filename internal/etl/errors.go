package etl

import (
	"fmt"

	"github.com/BartekS5/movies-etl/pkg/models"
)

// ConversionError means one raw field of one record could not be coerced.
// It is scoped to that record: the row is skipped and the run continues.
type ConversionError struct {
	Entity models.Entity
	Field  string
	Value  string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: field %s (%q): %v", e.Entity, e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// LoadError means the target rejected a table's staged data, or the batch
// could not be committed. It aborts the whole run.
type LoadError struct {
	Table string
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("load %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("load %s %s: %v", e.Table, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExtractError means a source table could not be read. It aborts the run.
type ExtractError struct {
	Table string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Table, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ConnectionError means a store was unreachable at startup. No work is
// attempted after it.
type ConnectionError struct {
	Store string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Load stages reported in LoadError.
const (
	StageTruncate = "truncate"
	StageCopy     = "copy"
	StageBegin    = "begin"
	StageCommit   = "commit"
)
