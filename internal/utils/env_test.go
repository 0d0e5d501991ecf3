package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", GetEnvString("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnvString("TEST_STRING_UNSET", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not a number")

	assert.Equal(t, 42, GetEnvInt("TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_BAD", 7))
	assert.Equal(t, 7, GetEnvInt("TEST_INT_UNSET", 7))
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("TEST_INT64", "10485760")
	assert.Equal(t, int64(10485760), GetEnvInt64("TEST_INT64", 0))
	assert.Equal(t, int64(99), GetEnvInt64("TEST_INT64_UNSET", 99))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{value: "true", defaultValue: false, want: true},
		{value: "false", defaultValue: true, want: false},
		{value: "1", defaultValue: false, want: true},
		{value: "0", defaultValue: true, want: false},
		{value: "yes", defaultValue: false, want: false}, // unparseable, default wins
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, GetEnvBool("TEST_BOOL", tt.defaultValue))
		})
	}

	assert.True(t, GetEnvBool("TEST_BOOL_UNSET", true))
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "plain integer is seconds", value: "120", want: 120 * time.Second},
		{name: "duration syntax", value: "45s", want: 45 * time.Second},
		{name: "minutes", value: "2m", want: 2 * time.Minute},
		{name: "garbage falls back", value: "soon", want: 30 * time.Second},
		{name: "negative falls back", value: "-10", want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, GetEnvDuration("TEST_DURATION", 30*time.Second))
		})
	}
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", "a.example.com, b.example.com ,,c.example.com")
	assert.Equal(t,
		[]string{"a.example.com", "b.example.com", "c.example.com"},
		GetEnvStringSlice("TEST_SLICE", nil),
	)

	assert.Equal(t, []string{"fallback"}, GetEnvStringSlice("TEST_SLICE_UNSET", []string{"fallback"}))

	t.Setenv("TEST_SLICE_EMPTY", " , ,")
	assert.Equal(t, []string{"fallback"}, GetEnvStringSlice("TEST_SLICE_EMPTY", []string{"fallback"}))
}

func TestGetEnvPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8082")
	assert.Equal(t, 8082, GetEnvPort("TEST_PORT", 8080))

	t.Setenv("TEST_PORT_RANGE", "70000")
	assert.Equal(t, 8080, GetEnvPort("TEST_PORT_RANGE", 8080))

	t.Setenv("TEST_PORT_ZERO", "0")
	assert.Equal(t, 8080, GetEnvPort("TEST_PORT_ZERO", 8080))
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	assert.True(t, IsProduction())

	t.Setenv("ENVIRONMENT", "prod")
	assert.True(t, IsProduction())

	t.Setenv("ENVIRONMENT", "development")
	assert.False(t, IsProduction())
}
