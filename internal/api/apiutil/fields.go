// internal/api/apiutil/fields.go
package apiutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pistareserva/courtbook/internal/db"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return value, nil
}

// ParseDateField parses a YYYY-MM-DD calendar day.
func ParseDateField(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	date, err := time.ParseInLocation(db.DateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: fmt.Sprintf("must be a date in %s format", db.DateLayout)}
	}
	return date, nil
}
