package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	now := time.UnixMilli(1700000004821)

	got := Generate("cardiology", 7, now)

	parts := strings.Split(got, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "CAR", parts[0])
	assert.Equal(t, "4821", parts[1])
	assert.Equal(t, "007", parts[2])
}

func TestGenerateShortDepartment(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	got := Generate("er", 12, now)

	assert.True(t, strings.HasPrefix(got, "ER-"))
	assert.True(t, strings.HasSuffix(got, "-012"))
}

func TestGenerateTrimsAndUppercases(t *testing.T) {
	now := time.UnixMilli(1700000001234)

	assert.Equal(t, Generate("ORTHOPEDICS", 1, now), Generate("  orthopedics ", 1, now))
}

func TestGenerateSequenceWidth(t *testing.T) {
	now := time.UnixMilli(1700000001234)

	assert.True(t, strings.HasSuffix(Generate("lab", 1, now), "-001"))
	assert.True(t, strings.HasSuffix(Generate("lab", 99, now), "-099"))
	assert.True(t, strings.HasSuffix(Generate("lab", 123, now), "-123"))
}
