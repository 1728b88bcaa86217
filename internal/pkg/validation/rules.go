package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validation rule patterns
var (
	// Email validation pattern, matched against the lower-cased address
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Calendar date as sent by the upload form
	DatePattern = `^\d{4}-\d{2}-\d{2}$`

	// Name validation min/max length
	NameMinLength = 1
	NameMaxLength = 100
)

// DateLayout is the layout of start_date and end_date
const DateLayout = "2006-01-02"

// PasswordMinLength is enforced on signup, account creation and password reset
const PasswordMinLength = 8

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email *regexp.Regexp
	Date  *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
	Date:  regexp.MustCompile(DatePattern),
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Required && v.Value == "" {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && v.Value == "" {
		return true
	}

	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}

	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks an address that has already been normalized
func IsValidEmail(email string) bool {
	return NewStringValidation(email).WithMaxLength(254).WithPattern(CompiledPatterns.Email).Validate()
}

// IsValidPassword checks the minimum length rule
func IsValidPassword(password string) bool {
	return NewStringValidation(password).WithMinLength(PasswordMinLength).Validate()
}

// IsValidName checks a display name
func IsValidName(name string) bool {
	return NewStringValidation(strings.TrimSpace(name)).
		WithMinLength(NameMinLength).
		WithMaxLength(NameMaxLength).
		Validate()
}

// ParseDateRange parses YYYY-MM-DD start and end dates. Both are required
// and end may not precede start.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date and end_date are required")
	}
	if !CompiledPatterns.Date.MatchString(start) || !CompiledPatterns.Date.MatchString(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("dates must use the YYYY-MM-DD format")
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not be before start_date")
	}
	return s, e, nil
}
