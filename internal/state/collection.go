package state

import (
	"time"

	"calview/internal/events"
	"calview/internal/model"
)

// Collection is the insertion-ordered set of events, keyed by id.
// Transitions copy the backing slice, so earlier values stay valid.
type Collection struct {
	events []model.CalendarEvent
}

// NewCollection builds a collection from seed events. Events without an id
// get a generated one; a repeated id replaces the earlier event in place.
func NewCollection(seed []model.CalendarEvent) Collection {
	c := Collection{events: make([]model.CalendarEvent, 0, len(seed))}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = c.freshID()
		}
		c = c.Upsert(e)
	}
	return c
}

// All returns a copy of the events in insertion order.
func (c Collection) All() []model.CalendarEvent {
	out := make([]model.CalendarEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c Collection) Len() int { return len(c.events) }

// Get looks up an event by id.
func (c Collection) Get(id string) (model.CalendarEvent, bool) {
	if i := c.index(id); i >= 0 {
		return c.events[i], true
	}
	return model.CalendarEvent{}, false
}

// OnDate returns the events displayed on date, see events.OnDate.
func (c Collection) OnDate(date time.Time) []model.CalendarEvent {
	return events.OnDate(c.events, date)
}

// Add appends draft under a fresh id and returns the stored event.
// It does not validate; callers run events.Validate first. An empty color
// becomes the default swatch.
func (c Collection) Add(d model.Draft) (Collection, model.CalendarEvent) {
	e := model.CalendarEvent{
		ID:          c.freshID(),
		Title:       d.Title,
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Color:       events.ColorOrDefault(d.Color),
		Category:    d.Category,
	}
	next := make([]model.CalendarEvent, len(c.events), len(c.events)+1)
	copy(next, c.events)
	return Collection{events: append(next, e)}, e
}

// Update merges patch into the event with id. Unknown ids are a silent no-op.
func (c Collection) Update(id string, p model.Patch) Collection {
	i := c.index(id)
	if i < 0 {
		return c
	}
	next := c.All()
	next[i] = p.Apply(next[i])
	return Collection{events: next}
}

// Delete removes the event with id. Unknown ids are a silent no-op.
func (c Collection) Delete(id string) Collection {
	i := c.index(id)
	if i < 0 {
		return c
	}
	next := make([]model.CalendarEvent, 0, len(c.events)-1)
	next = append(next, c.events[:i]...)
	next = append(next, c.events[i+1:]...)
	return Collection{events: next}
}

// Upsert replaces the event with e.ID in place, or appends e.
func (c Collection) Upsert(e model.CalendarEvent) Collection {
	next := c.All()
	if i := c.index(e.ID); i >= 0 {
		next[i] = e
	} else {
		next = append(next, e)
	}
	return Collection{events: next}
}

func (c Collection) index(id string) int {
	for i := range c.events {
		if c.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) freshID() string {
	for {
		id := events.GenerateID()
		if c.index(id) < 0 {
			return id
		}
	}
}

// Session bundles the state a host keeps for one calendar instance.
type Session struct {
	Nav    Navigation
	Events Collection
}
