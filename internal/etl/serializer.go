package etl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BartekS5/movies-etl/pkg/models"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// Format is the line encoding shared by the serializer and the COPY
// command. Text fields are wrapped in Quote; a Quote byte inside a value is
// doubled, which is what PostgreSQL's CSV mode expects when ESCAPE is left
// at its default.
type Format struct {
	Delimiter byte
	Quote     byte
	Null      string
}

// DefaultFormat uses the SYN control byte as quote so ordinary text never
// needs escaping.
var DefaultFormat = Format{Delimiter: ',', Quote: 0x16, Null: "NULL"}

const timestampLayout = "2006-01-02T15:04:05.999999-07:00"

// Validate rejects combinations that would make lines ambiguous. Neither
// the quote nor the delimiter may occur in an unquoted rendering (uuids,
// timestamps, dates, floats, the null token).
func (f Format) Validate() error {
	switch {
	case f.Quote == ',' || f.Quote == f.Delimiter:
		return fmt.Errorf("quote byte %q must differ from the delimiter and comma", f.Quote)
	case f.Quote == '\n' || f.Quote == '\r' || f.Quote == 0 || f.Quote >= 0x80 || inBareField(f.Quote):
		return fmt.Errorf("quote byte %q is not allowed", f.Quote)
	case f.Delimiter == '\n' || f.Delimiter == '\r' || f.Delimiter == 0 || f.Delimiter >= 0x80 || inBareField(f.Delimiter):
		return fmt.Errorf("delimiter %q is not allowed", f.Delimiter)
	case f.Null == "" || strings.IndexByte(f.Null, f.Delimiter) >= 0 || strings.IndexByte(f.Null, f.Quote) >= 0:
		return fmt.Errorf("null token %q is not allowed", f.Null)
	}
	return nil
}

// inBareField reports whether c can appear in a field written without
// quotes.
func inBareField(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	}
	return strings.IndexByte("-+:._ ", c) >= 0
}

// CopyOptions renders the WITH clause of a COPY ... FROM STDIN matching
// this format.
func (f Format) CopyOptions() string {
	return fmt.Sprintf(`FORMAT csv, DELIMITER E'\x%02x', NULL '%s', QUOTE E'\x%02x'`,
		f.Delimiter, strings.ReplaceAll(f.Null, "'", "''"), f.Quote)
}

var (
	errNulByte     = errors.New("text contains a NUL byte")
	errInvalidUTF8 = errors.New("text is not valid UTF-8")
)

// Serializer renders normalized records as bulk-load lines.
type Serializer struct {
	Format Format
}

func NewSerializer(format Format) (*Serializer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &Serializer{Format: format}, nil
}

// Write appends one line for rec to w. Fields follow the record's target
// column order; there is no header.
func (s *Serializer) Write(w io.Writer, b models.Binding, rec models.Record) error {
	var line bytes.Buffer
	for i, v := range rec.Values() {
		if i > 0 {
			line.WriteByte(s.Format.Delimiter)
		}
		if err := s.field(&line, v); err != nil {
			return &ConversionError{Entity: b.Entity, Field: columnName(b, i), Value: fmt.Sprint(v), Err: err}
		}
	}
	line.WriteByte('\n')
	_, err := w.Write(line.Bytes())
	return err
}

// Line is Write into a string.
func (s *Serializer) Line(b models.Binding, rec models.Record) (string, error) {
	var sb strings.Builder
	if err := s.Write(&sb, b, rec); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func columnName(b models.Binding, i int) string {
	if i < len(b.Columns) {
		return b.Columns[i].Target
	}
	return fmt.Sprintf("#%d", i)
}

func (s *Serializer) field(b *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString(s.Format.Null)
	case string:
		return s.quoted(b, x)
	case *string:
		if x == nil {
			b.WriteString(s.Format.Null)
			return nil
		}
		return s.quoted(b, *x)
	case models.FilmType:
		return s.quoted(b, string(x))
	case *models.Role:
		if x == nil {
			b.WriteString(s.Format.Null)
			return nil
		}
		return s.quoted(b, string(*x))
	case uuid.UUID:
		b.WriteString(x.String())
	case time.Time:
		b.WriteString(x.UTC().Format(timestampLayout))
	case civil.Date:
		b.WriteString(x.String())
	case *float64:
		if x == nil {
			b.WriteString(s.Format.Null)
			return nil
		}
		b.WriteString(strconv.FormatFloat(*x, 'g', -1, 64))
	default:
		return fmt.Errorf("unsupported field type %T", v)
	}
	return nil
}

func (s *Serializer) quoted(b *bytes.Buffer, v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return errNulByte
	}
	if !utf8.ValidString(v) {
		return errInvalidUTF8
	}
	q := s.Format.Quote
	b.WriteByte(q)
	for i := 0; i < len(v); i++ {
		if v[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(v[i])
	}
	b.WriteByte(q)
	return nil
}
