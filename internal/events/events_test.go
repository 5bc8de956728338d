package events

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"calview/internal/model"
)

var (
	d1 = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	d2 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
)

func ev(id string, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{ID: id, Title: id, StartDate: start, EndDate: end}
}

func ids(events []model.CalendarEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestOnDateEmpty(t *testing.T) {
	if got := OnDate(nil, d1); len(got) != 0 {
		t.Errorf("expected no events, got %v", got)
	}
}

func TestOnDateShortEvent(t *testing.T) {
	e := ev("standup", d1, d1.Add(30*time.Minute))

	if got := OnDate([]model.CalendarEvent{e}, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)); len(got) != 1 {
		t.Errorf("event should be shown on its own day, got %v", got)
	}
	if got := OnDate([]model.CalendarEvent{e}, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)); len(got) != 0 {
		t.Errorf("event should not be shown on the next day, got %v", got)
	}
}

func TestOnDateMultiDay(t *testing.T) {
	// Ends at 08:00 on the 17th: the 17th must still list it.
	trip := ev("trip", time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC), time.Date(2025, 1, 17, 8, 0, 0, 0, time.UTC))
	// Ends exactly at midnight: the 16th must not list it.
	late := ev("late", time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC), time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC))
	all := []model.CalendarEvent{trip, late}

	cases := map[int][]string{
		14: {},
		15: {"trip", "late"},
		16: {"trip"},
		17: {"trip"},
		18: {},
	}
	for dayNum, want := range cases {
		got := ids(OnDate(all, time.Date(2025, 1, dayNum, 12, 0, 0, 0, time.UTC)))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Jan %d: got %v, want %v", dayNum, got, want)
		}
	}
}

func TestOnDateZeroLengthEvent(t *testing.T) {
	e := ev("marker", d1, d1)
	if got := OnDate([]model.CalendarEvent{e}, d1); len(got) != 1 {
		t.Errorf("zero-length event should match its start day, got %v", got)
	}
}

func TestInRange(t *testing.T) {
	a := ev("a", d1, d2)
	b := ev("b", d1.AddDate(0, 0, 7), d2.AddDate(0, 0, 7))
	got := ids(InRange([]model.CalendarEvent{a, b}, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)))
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("InRange = %v", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		draft model.Draft
		want  []string
	}{
		{
			name:  "valid",
			draft: model.Draft{Title: "Standup", StartDate: d1, EndDate: d2},
			want:  []string{},
		},
		{
			name:  "empty title",
			draft: model.Draft{Title: "", StartDate: d1, EndDate: d2},
			want:  []string{ErrTitleRequired},
		},
		{
			name:  "whitespace title",
			draft: model.Draft{Title: "   ", StartDate: d1, EndDate: d2},
			want:  []string{ErrTitleRequired},
		},
		{
			name:  "equal dates",
			draft: model.Draft{Title: "Standup", StartDate: d1, EndDate: d1},
			want:  []string{ErrEndNotAfterStart},
		},
		{
			name:  "end before start",
			draft: model.Draft{Title: "Standup", StartDate: d2, EndDate: d1},
			want:  []string{ErrEndNotAfterStart},
		},
		{
			name:  "everything wrong",
			draft: model.Draft{Title: strings.Repeat("x", 101), Description: strings.Repeat("y", 501)},
			want:  []string{ErrTitleTooLong, ErrDescriptionLong, ErrStartRequired, ErrEndRequired},
		},
		{
			name:  "missing end only",
			draft: model.Draft{Title: "a", StartDate: d1},
			want:  []string{ErrEndRequired},
		},
		{
			name:  "limits are inclusive",
			draft: model.Draft{Title: strings.Repeat("é", 100), Description: strings.Repeat("ü", 500), StartDate: d1, EndDate: d2},
			want:  []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.draft)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Validate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPalette(t *testing.T) {
	p := ColorPalette()
	if len(p) != 8 {
		t.Fatalf("palette has %d colors", len(p))
	}
	seen := map[string]bool{}
	for _, c := range p {
		if seen[c] {
			t.Errorf("duplicate color %s", c)
		}
		seen[c] = true
	}
	if DefaultColor() != "#3b82f6" || p[0] != DefaultColor() {
		t.Errorf("default color = %s", DefaultColor())
	}

	p[0] = "#000000"
	if ColorPalette()[0] != "#3b82f6" {
		t.Error("ColorPalette must return a copy")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		if !strings.HasPrefix(id, "evt-") {
			t.Fatalf("unexpected id format %q", id)
		}
		if parts := strings.Split(id, "-"); len(parts) != 3 || len(parts[2]) != 9 {
			t.Fatalf("unexpected id format %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSortAndLimit(t *testing.T) {
	a := ev("a", d2, d2.Add(time.Hour))
	b := ev("b", d1, d2)
	c := ev("c", d1, d1.Add(15*time.Minute))
	in := []model.CalendarEvent{a, b, c}

	sorted := SortByStart(in)
	if got := ids(sorted); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Errorf("SortByStart = %v", got)
	}
	if in[0].ID != "a" {
		t.Error("SortByStart modified its input")
	}

	visible, hidden := Limit(sorted, 1)
	if len(visible) != 1 || hidden != 2 {
		t.Errorf("Limit(1) = %d visible, %d hidden", len(visible), hidden)
	}
	visible, hidden = Limit(sorted, 0)
	if len(visible) != 3 || hidden != 0 {
		t.Errorf("Limit(0) = %d visible, %d hidden", len(visible), hidden)
	}
}
