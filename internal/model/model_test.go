package model

import (
	"testing"
	"time"
)

func TestPatchApplyOnlyTitle(t *testing.T) {
	start := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	e := CalendarEvent{
		ID:          "evt-1",
		Title:       "Old",
		Description: "desc",
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		Color:       "#10b981",
		Category:    "work",
	}
	title := "New"

	got := Patch{Title: &title}.Apply(e)

	want := e
	want.Title = "New"
	if got != want {
		t.Errorf("Apply changed more than the title:\n got  %+v\n want %+v", got, want)
	}
}

func TestParseView(t *testing.T) {
	if v, ok := ParseView(" Week "); !ok || v != ViewWeek {
		t.Errorf("ParseView(week) = %q,%v", v, ok)
	}
	if _, ok := ParseView("day"); ok {
		t.Error("ParseView(day) should fail")
	}
}
