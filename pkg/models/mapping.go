package models

import (
	"encoding/json"
	"fmt"
)

// Column pairs a raw field (the source column, also the db tag on the
// input schema) with the target column it lands in.
type Column struct {
	Source string
	Target string
}

// Binding ties one entity type to its source table, its target table and
// the column correspondence between them. Columns are listed in target
// column order, which is also the order of Record.Values.
type Binding struct {
	Entity      Entity
	SourceTable string
	TargetTable string
	Columns     []Column
	NewRow      func() RawRecord
}

// TargetColumns returns the target column names in load order.
func (b Binding) TargetColumns() []string {
	out := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = c.Target
	}
	return out
}

// TargetIndex returns the position of a target column, or -1.
func (b Binding) TargetIndex(column string) int {
	for i, c := range b.Columns {
		if c.Target == column {
			return i
		}
	}
	return -1
}

// DefaultBindings returns the five bindings in load order: independent
// entities first, link entities last. Link rows reference the other tables
// by foreign key, so this order is required for a successful load.
func DefaultBindings() []Binding {
	return []Binding{
		{
			Entity:      EntityGenre,
			SourceTable: "genre",
			TargetTable: "genre",
			Columns: []Column{
				{"created_at", "created"},
				{"updated_at", "modified"},
				{"id", "id"},
				{"name", "name"},
				{"description", "description"},
			},
			NewRow: func() RawRecord { return &GenreRow{} },
		},
		{
			Entity:      EntityPerson,
			SourceTable: "person",
			TargetTable: "person",
			Columns: []Column{
				{"created_at", "created"},
				{"updated_at", "modified"},
				{"id", "id"},
				{"full_name", "full_name"},
			},
			NewRow: func() RawRecord { return &PersonRow{} },
		},
		{
			Entity:      EntityFilmWork,
			SourceTable: "film_work",
			TargetTable: "film_work",
			Columns: []Column{
				{"created_at", "created"},
				{"updated_at", "modified"},
				{"id", "id"},
				{"title", "title"},
				{"description", "description"},
				{"creation_date", "creation_date"},
				{"rating", "rating"},
				{"type", "type"},
			},
			NewRow: func() RawRecord { return &FilmWorkRow{} },
		},
		{
			Entity:      EntityGenreFilmWork,
			SourceTable: "genre_film_work",
			TargetTable: "genre_film_work",
			Columns: []Column{
				{"id", "id"},
				{"created_at", "created"},
				{"film_work_id", "film_work_id"},
				{"genre_id", "genre_id"},
			},
			NewRow: func() RawRecord { return &GenreFilmWorkRow{} },
		},
		{
			Entity:      EntityPersonFilmWork,
			SourceTable: "person_film_work",
			TargetTable: "person_film_work",
			Columns: []Column{
				{"id", "id"},
				{"role", "role"},
				{"created_at", "created"},
				{"film_work_id", "film_work_id"},
				{"person_id", "person_id"},
			},
			NewRow: func() RawRecord { return &PersonFilmWorkRow{} },
		},
	}
}

// TableOverride renames the source and/or target table of one entity.
type TableOverride struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// TableMapping is the optional override file: entity name to table names.
type TableMapping struct {
	Tables map[Entity]TableOverride `json:"tables"`
}

// LoadTableMapping parses an override file and rejects unknown entities.
func LoadTableMapping(data []byte) (*TableMapping, error) {
	var m TableMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	known := make(map[Entity]bool)
	for _, b := range DefaultBindings() {
		known[b.Entity] = true
	}
	for entity := range m.Tables {
		if !known[entity] {
			return nil, fmt.Errorf("unknown entity %q", entity)
		}
	}
	return &m, nil
}

// Apply returns a copy of bindings with the overrides applied. Order is
// preserved.
func (m *TableMapping) Apply(bindings []Binding) []Binding {
	out := make([]Binding, len(bindings))
	copy(out, bindings)
	if m == nil {
		return out
	}
	for i := range out {
		o, ok := m.Tables[out[i].Entity]
		if !ok {
			continue
		}
		if o.Source != "" {
			out[i].SourceTable = o.Source
		}
		if o.Target != "" {
			out[i].TargetTable = o.Target
		}
	}
	return out
}
