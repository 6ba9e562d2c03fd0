package booking

import "time"

// Selection is the in-progress booking choice. The hour is a true optional:
// hour 0 is midnight, not "nothing chosen".
type Selection struct {
	ProviderID string
	Date       time.Time

	hour    int
	hasHour bool
}

// NewSelection starts a selection on the calendar day of date.
func NewSelection(providerID string, date time.Time, loc *time.Location) Selection {
	return Selection{ProviderID: providerID, Date: startOfDay(date, loc)}
}

// Hour returns the selected hour and whether one is chosen.
func (s Selection) Hour() (int, bool) {
	return s.hour, s.hasHour
}

func (s *Selection) SetHour(hour int) {
	s.hour = hour
	s.hasHour = true
}

func (s *Selection) ClearHour() {
	s.hour = 0
	s.hasHour = false
}

// SetDate moves the selection to another calendar day and drops the hour,
// since the old hour refers to a table that is about to be replaced.
func (s *Selection) SetDate(date time.Time, loc *time.Location) {
	s.Date = startOfDay(date, loc)
	s.ClearHour()
}

// AppointmentTime combines the selected day with the selected hour at
// minute zero. The wall clock at call time plays no part.
func (s Selection) AppointmentTime() (time.Time, error) {
	if !s.hasHour {
		return time.Time{}, ErrNoHour
	}
	if !validHour(s.hour) {
		return time.Time{}, ErrInvalidHour
	}
	d := s.Date
	return time.Date(d.Year(), d.Month(), d.Day(), s.hour, 0, 0, 0, d.Location()), nil
}

// startOfDay keeps date's calendar day and places it at midnight in loc.
func startOfDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

type queryKey struct {
	providerID string
	date       time.Time
}

func (s Selection) key() queryKey {
	return queryKey{providerID: s.ProviderID, date: s.Date}
}

func (k queryKey) matches(other queryKey) bool {
	return k.providerID == other.providerID && k.date.Equal(other.date)
}
