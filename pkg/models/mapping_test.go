package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBindings(t *testing.T) {
	bindings := DefaultBindings()
	require.Len(t, bindings, 5)

	t.Run("should list independent entities before link entities", func(t *testing.T) {
		var order []Entity
		for _, b := range bindings {
			order = append(order, b.Entity)
		}
		assert.Equal(t, []Entity{EntityGenre, EntityPerson, EntityFilmWork, EntityGenreFilmWork, EntityPersonFilmWork}, order)
	})

	t.Run("should build input rows of the bound entity", func(t *testing.T) {
		for _, b := range bindings {
			assert.Equal(t, b.Entity, b.NewRow().Entity())
		}
	})

	t.Run("should match the record value order", func(t *testing.T) {
		records := map[Entity]Record{
			EntityGenre:          &Genre{},
			EntityPerson:         &Person{},
			EntityFilmWork:       &FilmWork{},
			EntityGenreFilmWork:  &GenreFilmWork{},
			EntityPersonFilmWork: &PersonFilmWork{},
		}
		for _, b := range bindings {
			assert.Len(t, records[b.Entity].Values(), len(b.Columns), b.Entity)
		}
	})

	t.Run("should expose target columns", func(t *testing.T) {
		link := bindings[4]
		assert.Equal(t, []string{"id", "role", "created", "film_work_id", "person_id"}, link.TargetColumns())
		assert.Equal(t, 1, link.TargetIndex("role"))
		assert.Equal(t, -1, link.TargetIndex("rating"))
	})
}

func TestTableMapping(t *testing.T) {
	t.Run("should rename tables and keep order", func(t *testing.T) {
		m, err := LoadTableMapping([]byte(`{"tables": {"film_work": {"source": "movies", "target": "film_work_v2"}}}`))
		require.NoError(t, err)

		got := m.Apply(DefaultBindings())
		assert.Equal(t, "movies", got[2].SourceTable)
		assert.Equal(t, "film_work_v2", got[2].TargetTable)
		assert.Equal(t, "genre", got[0].SourceTable)
	})

	t.Run("should leave bindings alone without a mapping", func(t *testing.T) {
		var m *TableMapping
		got := m.Apply(DefaultBindings())
		assert.Equal(t, "person_film_work", got[4].TargetTable)
	})

	t.Run("should reject unknown entities", func(t *testing.T) {
		_, err := LoadTableMapping([]byte(`{"tables": {"movie": {"source": "movies"}}}`))
		assert.Error(t, err)
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		_, err := LoadTableMapping([]byte(`{"tables": [`))
		assert.Error(t, err)
	})
}

func TestClockDefaulted(t *testing.T) {
	stamp := "2021-06-16 20:14:09+00"
	empty := ""

	r := &GenreRow{CreatedAt: &stamp, UpdatedAt: &empty}
	assert.Equal(t, []string{"modified"}, r.ClockDefaulted())

	l := &PersonFilmWorkRow{}
	assert.Equal(t, []string{"created"}, l.ClockDefaulted())

	assert.Empty(t, (&PersonRow{CreatedAt: &stamp, UpdatedAt: &stamp}).ClockDefaulted())
}
