package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RegistrationTime is a 12-hour wall-clock minute.
type RegistrationTime struct {
	Hour      int // 1..12
	Minute    int // 0..59
	IsMorning bool
}

func (t RegistrationTime) String() string {
	meridiem := "PM"
	if t.IsMorning {
		meridiem = "AM"
	}
	return fmt.Sprintf("%02d:%02d %s", t.Hour, t.Minute, meridiem)
}

// Validate checks the 12-hour ranges.
func (t RegistrationTime) Validate() error {
	if t.Hour < 1 || t.Hour > 12 {
		return fmt.Errorf("hour %d out of range 1-12", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59", t.Minute)
	}
	return nil
}

// Hour24 converts to a 0..23 hour. 12 AM is midnight (0) and 12 PM is noon
// (12); the plain "add 12 for PM" rule would give 24 and 12 for those.
func (t RegistrationTime) Hour24() int {
	h := t.Hour % 12
	if !t.IsMorning {
		h += 12
	}
	return h
}

// FireInstant returns the start of the next minute, counting the current
// one, whose local hour and minute match t. A target whose minute is
// already running fires immediately; one that has passed rolls to the next
// day.
func (t RegistrationTime) FireInstant(now time.Time) time.Time {
	fire := time.Date(now.Year(), now.Month(), now.Day(), t.Hour24(), t.Minute, 0, 0, now.Location())
	if now.Before(fire.Add(time.Minute)) {
		return fire
	}
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), t.Hour24(), t.Minute, 0, 0, now.Location())
}

var registrationTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp])\.?\s*[Mm]\.?$`)

// ParseRegistrationTime parses operator input such as "9:30 AM",
// "09:30am" or "12:05 p.m.".
func ParseRegistrationTime(s string) (RegistrationTime, error) {
	s = strings.TrimSpace(s)
	m := registrationTimePattern.FindStringSubmatch(s)
	if m == nil {
		return RegistrationTime{}, fmt.Errorf("invalid registration time '%s'. Use format: H:MM AM|PM (e.g., 9:30 AM)", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	t := RegistrationTime{
		Hour:      hour,
		Minute:    minute,
		IsMorning: strings.EqualFold(m[3], "a"),
	}
	if err := t.Validate(); err != nil {
		return RegistrationTime{}, fmt.Errorf("invalid registration time '%s': %w", s, err)
	}
	return t, nil
}
