package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMemory(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"2GiB", 2 << 30},
		{"512MiB", 512 << 20},
		{"64KiB", 64 << 10},
		{"1GB", 1000000000},
		{"500MB", 500000000},
		{"1048576", 1 << 20},
		{" 4GiB ", 4 << 30},
		{"garbage", 0},
		{"", 0},
		{"GiB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMemory(tt.input))
		})
	}
}

func TestFormatMemory(t *testing.T) {
	assert.Equal(t, "2GiB", FormatMemory(2<<30))
	assert.Equal(t, "1536MiB", FormatMemory(1536<<20))
	assert.Equal(t, "3KiB", FormatMemory(3072))
	assert.Equal(t, "1TiB", FormatMemory(1<<40))
	assert.Equal(t, "1000", FormatMemory(1000))
	assert.Equal(t, "0", FormatMemory(0))
}

func TestMemoryRoundTrip(t *testing.T) {
	for _, s := range []string{"2GiB", "512MiB", "1KiB", "3TiB"} {
		assert.Equal(t, s, FormatMemory(ParseMemory(s)), s)
	}
}
