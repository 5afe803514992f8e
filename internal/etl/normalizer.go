package etl

import (
	"fmt"
	"time"

	"github.com/BartekS5/movies-etl/pkg/models"
	"github.com/BartekS5/movies-etl/pkg/utils"
	"github.com/google/uuid"
)

// Clock supplies the fallback time for absent timestamps.
type Clock func() time.Time

// Normalizer turns raw records into canonical ones. It is used both for the
// load and for decoding both stores during verification.
type Normalizer struct {
	clock     Clock
	location  *time.Location
	validator *Validator
}

// NewNormalizer returns a normalizer reading offset-less source timestamps
// in loc (UTC when nil).
func NewNormalizer(clock Clock, loc *time.Location) *Normalizer {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{clock: clock, location: loc, validator: NewValidator()}
}

// Normalize validates raw against its input schema and coerces every field.
// Any failure is a *ConversionError naming the field.
func (n *Normalizer) Normalize(raw models.RawRecord) (models.Record, error) {
	if err := n.validator.ValidateRecord(raw); err != nil {
		return nil, err
	}

	switch r := raw.(type) {
	case *models.GenreRow:
		return n.genre(r)
	case *models.PersonRow:
		return n.person(r)
	case *models.FilmWorkRow:
		return n.filmWork(r)
	case *models.GenreFilmWorkRow:
		return n.genreFilmWork(r)
	case *models.PersonFilmWorkRow:
		return n.personFilmWork(r)
	default:
		return nil, fmt.Errorf("no normalizer for %T", raw)
	}
}

func (n *Normalizer) genre(r *models.GenreRow) (*models.Genre, error) {
	c := converter{entity: models.EntityGenre, n: n}
	g := &models.Genre{
		ID:          c.uuid("id", r.ID),
		Name:        utils.Truncate(deref(r.Name), models.GenreNameMaxLen),
		Description: deref(r.Description),
		Created:     c.timestamp("created_at", r.CreatedAt),
		Modified:    c.timestamp("updated_at", r.UpdatedAt),
	}
	return g, c.err
}

func (n *Normalizer) person(r *models.PersonRow) (*models.Person, error) {
	c := converter{entity: models.EntityPerson, n: n}
	p := &models.Person{
		ID:       c.uuid("id", r.ID),
		FullName: utils.Truncate(deref(r.FullName), models.PersonFullNameMaxLen),
		Created:  c.timestamp("created_at", r.CreatedAt),
		Modified: c.timestamp("updated_at", r.UpdatedAt),
	}
	return p, c.err
}

func (n *Normalizer) filmWork(r *models.FilmWorkRow) (*models.FilmWork, error) {
	c := converter{entity: models.EntityFilmWork, n: n}
	f := &models.FilmWork{
		ID:          c.uuid("id", r.ID),
		Title:       utils.Truncate(deref(r.Title), models.FilmTitleMaxLen),
		Description: deref(r.Description),
		Rating:      utils.ParseRating(r.Rating),
		Type:        models.FilmType(deref(r.Type)),
		Created:     c.timestamp("created_at", r.CreatedAt),
		Modified:    c.timestamp("updated_at", r.UpdatedAt),
	}
	if d, err := utils.ParseDate(r.CreationDate); err != nil {
		c.fail("creation_date", r.CreationDate, err)
	} else {
		f.CreationDate = d
	}
	return f, c.err
}

func (n *Normalizer) genreFilmWork(r *models.GenreFilmWorkRow) (*models.GenreFilmWork, error) {
	c := converter{entity: models.EntityGenreFilmWork, n: n}
	l := &models.GenreFilmWork{
		ID:         c.uuid("id", r.ID),
		FilmWorkID: c.uuid("film_work_id", r.FilmWorkID),
		GenreID:    c.uuid("genre_id", r.GenreID),
		Created:    c.timestamp("created_at", r.CreatedAt),
	}
	return l, c.err
}

func (n *Normalizer) personFilmWork(r *models.PersonFilmWorkRow) (*models.PersonFilmWork, error) {
	c := converter{entity: models.EntityPersonFilmWork, n: n}
	l := &models.PersonFilmWork{
		ID:         c.uuid("id", r.ID),
		FilmWorkID: c.uuid("film_work_id", r.FilmWorkID),
		PersonID:   c.uuid("person_id", r.PersonID),
		Created:    c.timestamp("created_at", r.CreatedAt),
	}
	if !utils.Blank(r.Role) {
		role := models.Role(*r.Role)
		l.Role = &role
	}
	return l, c.err
}

// converter keeps the first coercion failure of a record.
type converter struct {
	entity models.Entity
	n      *Normalizer
	err    error
}

func (c *converter) fail(field string, v *string, err error) {
	if c.err != nil {
		return
	}
	c.err = &ConversionError{Entity: c.entity, Field: field, Value: deref(v), Err: err}
}

func (c *converter) uuid(field string, v *string) uuid.UUID {
	id, err := utils.ParseUUID(v)
	if err != nil {
		c.fail(field, v, err)
	}
	return id
}

func (c *converter) timestamp(field string, v *string) time.Time {
	t, err := utils.ParseTimestamp(v, c.n.location, c.n.clock)
	if err != nil {
		c.fail(field, v, err)
	}
	return t
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
