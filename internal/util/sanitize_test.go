package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"pro", true},
		{"ai-tools", true},
		{"a", true},
		{"web01", true},
		{"", false},
		{"-pro", false},
		{"pro-", false},
		{"Pro", false},
		{"pro_dev", false},
		{"pro.dev", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidName(tt.input))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pro", "pro"},
		{"My Lab", "my-lab"},
		{"node.js", "node-js"},
		{"home_lab", "home-lab"},
		{"path/to/thing", "path-to-thing"},
		{"special@chars!", "specialchars"},
		{"  -edge- ", "edge"},
		{"a -- b", "a-b"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeName(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.True(t, ValidName(got))
		})
	}
}
