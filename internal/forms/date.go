package forms

import (
	"strconv"
	"time"
)

// DateFields returns the day, month and year fields for a date input
func DateFields(prefix, label string) []Field {
	return []Field{
		{Name: prefix + "Day", Label: label + " day", Kind: KindDate, Rules: "required,numeric,max=2"},
		{Name: prefix + "Month", Label: label + " month", Kind: KindDate, Rules: "required,numeric,max=2"},
		{Name: prefix + "Year", Label: label + " year", Kind: KindDate, Rules: "required,numeric,len=4"},
	}
}

// PastDate returns a check that the date entered under prefix is a real
// calendar date strictly before now.
func PastDate(prefix, label string, now func() time.Time) func(map[string]string) FieldErrors {
	return func(values map[string]string) FieldErrors {
		date, ok := ParseDate(values, prefix)
		if !ok {
			return FieldErrors{prefix + "Day": label + " must be a real date"}
		}
		if !date.Before(now()) {
			return FieldErrors{prefix + "Day": label + " must be in the past"}
		}
		return nil
	}
}

// ParseDate reads the day, month and year values under prefix
func ParseDate(values map[string]string, prefix string) (time.Time, bool) {
	day, errD := strconv.Atoi(values[prefix+"Day"])
	month, errM := strconv.Atoi(values[prefix+"Month"])
	year, errY := strconv.Atoi(values[prefix+"Year"])
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, e.g. 31 February
	if date.Day() != day || int(date.Month()) != month || date.Year() != year {
		return time.Time{}, false
	}
	return date, true
}
