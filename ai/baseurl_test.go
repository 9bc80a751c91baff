package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com"},
		{"  https://example.com  ", "https://example.com"},
		{"https://example.com/", "https://example.com"},
		{"https://example.com///", "https://example.com"},
		{"https://example.com/v1beta", "https://example.com"},
		{"https://example.com/v1beta/", "https://example.com"},
		{"https://example.com/v1beta/models", "https://example.com"},
		{"https://example.com/v1beta/models/", "https://example.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanBaseURL(tc.in), "input %q", tc.in)
	}
}

func TestCleanBaseURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/v1beta/models/",
		"https://example.com///",
		"  https://example.com/v1beta ",
	}
	for _, in := range inputs {
		once := CleanBaseURL(in)
		assert.Equal(t, once, CleanBaseURL(once), "input %q", in)
	}
}

func TestSanitizeModel(t *testing.T) {
	assert.Equal(t, DefaultModel, SanitizeModel("gemini-pro"))
	assert.Equal(t, DefaultModel, SanitizeModel("gemini-1.5-flash-latest"))
	assert.Equal(t, "gpt-4o", SanitizeModel("gpt-4o"))
	assert.Equal(t, DefaultModel, SanitizeModel(DefaultModel))
}
