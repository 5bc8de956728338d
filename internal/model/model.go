package model

import (
	"strings"
	"time"
)

// CalendarEvent is a single event owned by the event collection.
// StartDate is always strictly before EndDate for events that went
// through validation.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	// Color is a display hint such as "#3b82f6".
	Color    string `json:"color,omitempty"`
	Category string `json:"category,omitempty"`
}

// Draft is the field set of an event before it receives an id.
// A zero StartDate/EndDate means the value is missing.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Color       string    `json:"color,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// Draft returns the event's fields without its id, e.g. to re-validate
// an event after a patch was applied.
func (e CalendarEvent) Draft() Draft {
	return Draft{
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Color:       e.Color,
		Category:    e.Category,
	}
}

// Patch lists fields to overwrite on an existing event; nil fields are kept.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

// Apply returns e with the non-nil patch fields merged in. The id is never changed.
func (p Patch) Apply(e CalendarEvent) CalendarEvent {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

// View is the active calendar layout.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
)

// ParseView accepts "month" or "week" (case-insensitive).
func ParseView(s string) (View, bool) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewMonth:
		return ViewMonth, true
	case ViewWeek:
		return ViewWeek, true
	}
	return "", false
}
