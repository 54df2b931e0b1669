package respond

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError collects messages per request field.
type ValidationError url.Values

func NewValidationError() ValidationError {
	return make(ValidationError)
}

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Err returns nil when no field failed, so callers can write
// "return v.Err()".
func (e ValidationError) Err() error {
	if e.IsEmpty() {
		return nil
	}
	return e
}
