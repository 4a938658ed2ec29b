package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	records "agristack/internal/records/models"
)

const (
	displayDate = "02/01/2006"
	missing     = "-"
	boolTrue    = "Passed/Yes"
	boolFalse   = "Failed/No"
)

// CellFormatter renders one value for a table cell.
type CellFormatter struct {
	Location *time.Location
}

// IsDateKey reports whether key names a date column.
func IsDateKey(key string) bool {
	return strings.Contains(key, "date") || strings.HasSuffix(key, "_at")
}

// Format applies the table rules: date keys render as dd/mm/yyyy, booleans
// as Passed/Yes or Failed/No, and absent values as "-".
func (c CellFormatter) Format(key string, v any) string {
	if IsDateKey(key) {
		return c.formatDate(v)
	}
	switch x := v.(type) {
	case nil:
		return missing
	case bool:
		if x {
			return boolTrue
		}
		return boolFalse
	case string:
		if strings.TrimSpace(x) == "" {
			return missing
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

func (c CellFormatter) formatDate(v any) string {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return missing
		}
		return x.In(loc).Format(displayDate)
	case records.Date:
		if x.IsZero() {
			return missing
		}
		return x.Time().Format(displayDate)
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return missing
		}
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.In(loc).Format(displayDate)
		}
		if t, err := time.Parse(time.DateOnly, x); err == nil {
			return t.Format(displayDate)
		}
		return x
	case nil:
		return missing
	}
	return fmt.Sprint(v)
}
