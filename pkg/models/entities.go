// Package models holds the canonical movies-catalog entities, the raw
// per-table input schemas read from the source store, and the table
// bindings that tie the two together.
package models

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// FilmType is the kind of a film work. Values outside the declared set are
// carried through untouched; the target schema decides whether to accept them.
type FilmType string

const (
	FilmTypeMovie  FilmType = "MOVIE"
	FilmTypeTVShow FilmType = "TV_SHOW"
)

// Role is the part a person played in a film work.
type Role string

const (
	RoleActor    Role = "ACTOR"
	RoleDirector Role = "DIRECTOR"
	RoleWriter   Role = "WRITER"
)

// Column limits declared by the target schema.
const (
	GenreNameMaxLen      = 100
	PersonFullNameMaxLen = 200
	FilmTitleMaxLen      = 200
)

// Record is a normalized row ready to be rendered for the target table.
// Values returns the fields in the target column order of its binding.
type Record interface {
	Key() uuid.UUID
	Values() []any
}

type Genre struct {
	ID          uuid.UUID
	Name        string
	Description string
	Created     time.Time
	Modified    time.Time
}

func (g *Genre) Key() uuid.UUID { return g.ID }

func (g *Genre) Values() []any {
	return []any{g.Created, g.Modified, g.ID, g.Name, g.Description}
}

type Person struct {
	ID       uuid.UUID
	FullName string
	Created  time.Time
	Modified time.Time
}

func (p *Person) Key() uuid.UUID { return p.ID }

func (p *Person) Values() []any {
	return []any{p.Created, p.Modified, p.ID, p.FullName}
}

// FilmWork is the aggregate root of the catalog.
type FilmWork struct {
	ID           uuid.UUID
	Title        string
	Description  string
	CreationDate civil.Date
	Rating       *float64
	Type         FilmType
	Created      time.Time
	Modified     time.Time
}

func (f *FilmWork) Key() uuid.UUID { return f.ID }

func (f *FilmWork) Values() []any {
	return []any{f.Created, f.Modified, f.ID, f.Title, f.Description, f.CreationDate, f.Rating, f.Type}
}

type GenreFilmWork struct {
	ID         uuid.UUID
	FilmWorkID uuid.UUID
	GenreID    uuid.UUID
	Created    time.Time
}

func (l *GenreFilmWork) Key() uuid.UUID { return l.ID }

func (l *GenreFilmWork) Values() []any {
	return []any{l.ID, l.Created, l.FilmWorkID, l.GenreID}
}

type PersonFilmWork struct {
	ID         uuid.UUID
	FilmWorkID uuid.UUID
	PersonID   uuid.UUID
	Role       *Role
	Created    time.Time
}

func (l *PersonFilmWork) Key() uuid.UUID { return l.ID }

func (l *PersonFilmWork) Values() []any {
	return []any{l.ID, l.Role, l.Created, l.FilmWorkID, l.PersonID}
}
