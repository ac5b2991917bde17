package validation

import (
	"strconv"
	"strings"
	"time"
)

// DueDateLayout is the absolute date format accepted for due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate turns user input into a due date at local midnight.
//
// Accepted: "" or "none" (no due date), "today", "tomorrow", an absolute
// YYYY-MM-DD date, or a relative shorthand of days, weeks, months or years
// from today (3d, 2w, 1mo, 1y).
func (v *Validator) ParseDueDate(s string, now time.Time) (*time.Time, error) {
	input := strings.ToLower(strings.TrimSpace(s))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var due time.Time
	switch {
	case input == "" || input == "none":
		return nil, nil
	case input == "today":
		due = today
	case input == "tomorrow":
		due = today.AddDate(0, 0, 1)
	case v.IsValidDueShorthand(input):
		m := v.dueShorthandRegex.FindStringSubmatch(input)
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return nil, dueDateFormatError(s)
		}
		switch m[2] {
		case "d":
			due = today.AddDate(0, 0, n)
		case "w":
			due = today.AddDate(0, 0, 7*n)
		case "mo":
			due = today.AddDate(0, n, 0)
		case "y":
			due = today.AddDate(n, 0, 0)
		}
	default:
		parsed, err := time.ParseInLocation(DueDateLayout, input, now.Location())
		if err != nil {
			return nil, dueDateFormatError(s)
		}
		due = parsed
	}
	return &due, nil
}

func dueDateFormatError(value string) error {
	ve := NewValidationError()
	ve.Format("due_date", value, "YYYY-MM-DD, today, tomorrow, none or a shorthand like 3d, 2w, 1mo")
	return ve
}
