package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/social-apps/backend/internal/storage/models"
)

const productID = "-//social-apps//calendar//EN"

// EventUID returns the stable iCalendar UID of an entry.
func EventUID(id int64) string {
	return fmt.Sprintf("calendar-entry-%d@social-apps", id)
}

// EncodeICal writes entries as a VCALENDAR to w. stamp is used as DTSTAMP.
func EncodeICal(w io.Writer, entries []models.CalendarEntry, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for i := range entries {
		cal.Children = append(cal.Children, eventFor(&entries[i], stamp).Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

func eventFor(e *models.CalendarEntry, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, EventUID(e.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		ev.Props.SetText(ical.PropDescription, e.Description)
	}

	if e.AllDay {
		// DTEND is exclusive for date values.
		end := e.DateEnd
		if end.Before(e.DateStart) {
			end = e.DateStart
		}
		ev.Props.SetDate(ical.PropDateTimeStart, e.DateStart)
		ev.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
	} else {
		ev.Props.SetDateTime(ical.PropDateTimeStart, e.DateStart)
		ev.Props.SetDateTime(ical.PropDateTimeEnd, e.DateEnd)
	}

	if e.Reminder > 0 {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, e.Title)
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = fmt.Sprintf("-PT%dM", e.Reminder)
		alarm.Props.Set(trigger)
		ev.Children = append(ev.Children, alarm)
	}

	return ev
}
