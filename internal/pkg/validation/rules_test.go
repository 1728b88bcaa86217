package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword(strings.Repeat("x", PasswordMinLength-1)))
	assert.True(t, IsValidPassword(strings.Repeat("x", PasswordMinLength)))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail(NormalizeEmail("  Asha.Rao@College.EDU ")))
	assert.False(t, IsValidEmail("asha@college"))
	assert.False(t, IsValidEmail(""))
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2024-01-01", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, end.After(start))

	_, _, err = ParseDateRange("2024-03-01", "2024-01-01")
	assert.ErrorContains(t, err, "must not be before")
	_, _, err = ParseDateRange("01/01/2024", "2024-03-01")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
	_, _, err = ParseDateRange("", "2024-03-01")
	assert.ErrorContains(t, err, "required")
}
