package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"calview/internal/events"
	appLog "calview/internal/log"
	"calview/internal/model"
)

const (
	labelTitle       = "Title"
	labelDescription = "Description"
	labelStartDate   = "Start date"
	labelStartTime   = "Start time"
	labelEndDate     = "End date"
	labelEndTime     = "End time"
	labelColor       = "Color"
	labelCategory    = "Category"
)

// addEvent validates form and adds it to the collection. It returns the
// validation messages; nil means the event was added.
func (u *UI) addEvent(form events.FormInput) []string {
	draft := form.Draft(u.loc)
	if errs := events.Validate(draft); len(errs) > 0 {
		return errs
	}
	var added model.CalendarEvent
	u.sess.Events, added = u.sess.Events.Add(draft)
	appLog.Info("event added", "id", added.ID, "start", added.StartDate)
	u.refresh()
	return nil
}

// deleteEvent removes id; unknown ids are ignored.
func (u *UI) deleteEvent(id string) {
	u.sess.Events = u.sess.Events.Delete(id)
	appLog.Info("event deleted", "id", id)
	u.refresh()
}

func (u *UI) closeDialog(name string) {
	u.pages.RemovePage(name)
	u.app.SetFocus(u.table)
}

// showAddForm opens the event form pre-filled for the focused day.
func (u *UI) showAddForm() {
	const page = "add"
	initial := events.NewForm(u.focusDate())

	palette := events.ColorPalette()
	cats := events.Categories()
	catLabels := make([]string, 0, len(cats)+1)
	catLabels = append(catLabels, "None")
	for _, c := range cats {
		catLabels = append(catLabels, c.Label)
	}

	form := tview.NewForm().
		AddInputField(labelTitle, "", 40, nil, nil).
		AddInputField(labelDescription, "", 40, nil, nil).
		AddInputField(labelStartDate, initial.StartDate, 12, nil, nil).
		AddInputField(labelStartTime, initial.StartTime, 6, nil, nil).
		AddInputField(labelEndDate, initial.EndDate, 12, nil, nil).
		AddInputField(labelEndTime, initial.EndTime, 6, nil, nil).
		AddDropDown(labelColor, palette, 0, nil).
		AddDropDown(labelCategory, catLabels, 0, nil)

	form.AddButton("Save", func() {
		in := formValues(form)
		if idx, _ := form.GetFormItemByLabel(labelCategory).(*tview.DropDown).GetCurrentOption(); idx > 0 {
			in.Category = cats[idx-1].Value
		} else {
			in.Category = ""
		}
		if errs := u.addEvent(in); len(errs) > 0 {
			u.showError(strings.Join(errs, "; "))
			return
		}
		u.closeDialog(page)
	})
	form.AddButton("Cancel", func() { u.closeDialog(page) })
	form.SetCancelFunc(func() { u.closeDialog(page) })
	form.SetBorder(true).SetTitle(" New event ")

	u.pages.AddPage(page, center(60, 21, form), true, true)
	u.app.SetFocus(form)
}

// showDeleteForm lists the focused day's events for deletion.
func (u *UI) showDeleteForm() {
	const page = "delete"
	list := events.SortByStart(u.sess.Events.OnDate(u.focusDate()))
	if len(list) == 0 {
		u.showError("No events on this day")
		return
	}

	titles := make([]string, len(list))
	for i, e := range list {
		titles[i] = e.StartDate.Format("15:04") + " " + tview.Escape(e.Title)
	}

	form := tview.NewForm().AddDropDown("Event", titles, 0, nil)
	form.AddButton("Delete", func() {
		idx, _ := form.GetFormItem(0).(*tview.DropDown).GetCurrentOption()
		if idx >= 0 && idx < len(list) {
			u.deleteEvent(list[idx].ID)
		}
		u.closeDialog(page)
	})
	form.AddButton("Cancel", func() { u.closeDialog(page) })
	form.SetCancelFunc(func() { u.closeDialog(page) })
	form.SetBorder(true).SetTitle(" Delete event ")
	form.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			u.closeDialog(page)
			return nil
		}
		return ev
	})

	u.pages.AddPage(page, center(60, 7, form), true, true)
	u.app.SetFocus(form)
}

// formValues reads the text fields and color of an event form.
func formValues(form *tview.Form) events.FormInput {
	text := func(label string) string {
		if f, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
			return f.GetText()
		}
		return ""
	}
	in := events.FormInput{
		Title:       text(labelTitle),
		Description: text(labelDescription),
		StartDate:   text(labelStartDate),
		StartTime:   text(labelStartTime),
		EndDate:     text(labelEndDate),
		EndTime:     text(labelEndTime),
	}
	if dd, ok := form.GetFormItemByLabel(labelColor).(*tview.DropDown); ok {
		_, in.Color = dd.GetCurrentOption()
	}
	return in
}

// center returns p centered with a fixed size.
func center(w, h int, p tview.Primitive) tview.Primitive {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(tview.NewBox(), 0, 1, false).
			AddItem(p, w, 0, true).
			AddItem(tview.NewBox(), 0, 1, false),
			h, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)
}
