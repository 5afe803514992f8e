package models

// Entity names one of the five migrated entity types.
type Entity string

const (
	EntityGenre          Entity = "genre"
	EntityPerson         Entity = "person"
	EntityFilmWork       Entity = "film_work"
	EntityGenreFilmWork  Entity = "genre_film_work"
	EntityPersonFilmWork Entity = "person_film_work"
)

// RawRecord is one untyped row as read from either store. Every column is
// text or NULL; the normalizer owns all type coercion.
type RawRecord interface {
	Entity() Entity
	// ClockDefaulted lists the target columns whose values come from the
	// clock because the raw value is absent.
	ClockDefaulted() []string
}

// Input schemas. db tags are the logical source column names; required
// columns are rejected when NULL.

type GenreRow struct {
	ID          *string `db:"id" validate:"required"`
	Name        *string `db:"name" validate:"required"`
	Description *string `db:"description"`
	CreatedAt   *string `db:"created_at"`
	UpdatedAt   *string `db:"updated_at"`
}

func (r *GenreRow) Entity() Entity { return EntityGenre }

func (r *GenreRow) ClockDefaulted() []string {
	return absent(r.CreatedAt, "created", r.UpdatedAt, "modified")
}

type PersonRow struct {
	ID        *string `db:"id" validate:"required"`
	FullName  *string `db:"full_name" validate:"required"`
	CreatedAt *string `db:"created_at"`
	UpdatedAt *string `db:"updated_at"`
}

func (r *PersonRow) Entity() Entity { return EntityPerson }

func (r *PersonRow) ClockDefaulted() []string {
	return absent(r.CreatedAt, "created", r.UpdatedAt, "modified")
}

type FilmWorkRow struct {
	ID           *string `db:"id" validate:"required"`
	Title        *string `db:"title" validate:"required"`
	Description  *string `db:"description"`
	CreationDate *string `db:"creation_date"`
	Rating       *string `db:"rating"`
	Type         *string `db:"type" validate:"required"`
	CreatedAt    *string `db:"created_at"`
	UpdatedAt    *string `db:"updated_at"`
}

func (r *FilmWorkRow) Entity() Entity { return EntityFilmWork }

func (r *FilmWorkRow) ClockDefaulted() []string {
	return absent(r.CreatedAt, "created", r.UpdatedAt, "modified")
}

type GenreFilmWorkRow struct {
	ID         *string `db:"id" validate:"required"`
	FilmWorkID *string `db:"film_work_id" validate:"required"`
	GenreID    *string `db:"genre_id" validate:"required"`
	CreatedAt  *string `db:"created_at"`
}

func (r *GenreFilmWorkRow) Entity() Entity { return EntityGenreFilmWork }

func (r *GenreFilmWorkRow) ClockDefaulted() []string {
	return absent(r.CreatedAt, "created")
}

type PersonFilmWorkRow struct {
	ID         *string `db:"id" validate:"required"`
	FilmWorkID *string `db:"film_work_id" validate:"required"`
	PersonID   *string `db:"person_id" validate:"required"`
	Role       *string `db:"role"`
	CreatedAt  *string `db:"created_at"`
}

func (r *PersonFilmWorkRow) Entity() Entity { return EntityPersonFilmWork }

func (r *PersonFilmWorkRow) ClockDefaulted() []string {
	return absent(r.CreatedAt, "created")
}

// absent takes (value, column) pairs and returns the columns whose value is
// NULL or blank.
func absent(pairs ...any) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		v, _ := pairs[i].(*string)
		if v == nil || *v == "" {
			out = append(out, pairs[i+1].(string))
		}
	}
	return out
}
