// Package view reconciles a day-bucketed history snapshot with live
// entries and local deletes.
//
// An Engine is not safe for concurrent use; the owner serializes calls.
package view

import (
	"slices"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// State of an Engine.
type State int

const (
	// Empty means no snapshot is loaded; live entries are ignored.
	Empty State = iota
	// Loaded means a snapshot is held and live entries merge into it.
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "empty"
}

// Engine holds the merged view of one project.
type Engine struct {
	projectID string
	state     State
	buckets   aggregate.Buckets
	days      map[string]string // entry ID -> day label
}

// NewEngine creates an empty engine scoped to projectID.
func NewEngine(projectID string) *Engine {
	return &Engine{projectID: projectID, days: make(map[string]string)}
}

func (e *Engine) ProjectID() string { return e.projectID }

func (e *Engine) State() State { return e.state }

// Reset empties the engine and rescopes it to projectID.
func (e *Engine) Reset(projectID string) {
	e.projectID = projectID
	e.state = Empty
	e.buckets = nil
	e.days = make(map[string]string)
}

// LoadSnapshot replaces the held view with buckets.
func (e *Engine) LoadSnapshot(buckets aggregate.Buckets) {
	e.buckets = buckets.Clone()
	e.days = make(map[string]string, buckets.Count())
	for _, b := range e.buckets {
		for _, entry := range b.Entries {
			e.days[entry.ID] = b.Day
		}
	}
	e.state = Loaded
}

// OnLiveEntry merges a live entry labelled day and reports whether the
// view changed. The day's bucket moves to the head; inside it the entry
// keeps newest-first order. Entries of other projects, entries arriving before a
// snapshot and duplicates are ignored.
func (e *Engine) OnLiveEntry(entry *domain.Entry, day string) bool {
	if e.state != Loaded || entry == nil || entry.ProjectID != e.projectID {
		return false
	}
	if _, seen := e.days[entry.ID]; seen {
		return false
	}

	i := e.buckets.Index(day)
	switch {
	case i < 0:
		e.buckets = slices.Insert(e.buckets, 0, aggregate.Bucket{Day: day})
	case i > 0:
		// Day already present further down, e.g. around midnight.
		b := e.buckets[i]
		e.buckets = slices.Delete(e.buckets, i, i+1)
		e.buckets = slices.Insert(e.buckets, 0, b)
	}

	// Publishes can overtake each other, so place the entry by
	// (createdAt, seq) rather than assuming it is the newest.
	entries := e.buckets[0].Entries
	pos := slices.IndexFunc(entries, func(held *domain.Entry) bool { return entry.NewerThan(held) })
	if pos < 0 {
		pos = len(entries)
	}
	e.buckets[0].Entries = slices.Insert(entries, pos, entry)
	e.days[entry.ID] = day
	return true
}

// OnDeleteEntry removes an entry and drops its bucket if it empties.
func (e *Engine) OnDeleteEntry(id string) bool {
	day, ok := e.days[id]
	if !ok {
		return false
	}
	delete(e.days, id)

	i := e.buckets.Index(day)
	if i < 0 {
		return false
	}
	entries := slices.DeleteFunc(e.buckets[i].Entries, func(entry *domain.Entry) bool { return entry.ID == id })
	if len(entries) == 0 {
		e.buckets = slices.Delete(e.buckets, i, i+1)
		return true
	}
	e.buckets[i].Entries = entries
	return true
}

// OnDeleteRange removes the bucket labelled day, or every bucket when
// day is empty. It returns the number of entries removed.
func (e *Engine) OnDeleteRange(day string) int {
	if day == "" {
		n := e.buckets.Count()
		e.buckets = aggregate.Buckets{}
		clear(e.days)
		return n
	}

	i := e.buckets.Index(day)
	if i < 0 {
		return 0
	}
	removed := e.buckets[i].Entries
	for _, entry := range removed {
		delete(e.days, entry.ID)
	}
	e.buckets = slices.Delete(e.buckets, i, i+1)
	return len(removed)
}

// Bucket returns a copy of the bucket labelled day.
func (e *Engine) Bucket(day string) (aggregate.Bucket, bool) {
	i := e.buckets.Index(day)
	if i < 0 {
		return aggregate.Bucket{}, false
	}
	return aggregate.Bucket{Day: day, Entries: slices.Clone(e.buckets[i].Entries)}, true
}

// ApplyFilter returns the view projected through pred. The held state is
// never modified, so it must be called again after every change.
func (e *Engine) ApplyFilter(pred aggregate.Predicate) aggregate.Buckets {
	if e.buckets == nil {
		return aggregate.Buckets{}
	}
	return aggregate.Filter(e.buckets, pred)
}
