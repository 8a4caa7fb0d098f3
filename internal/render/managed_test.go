package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagedBlock(t *testing.T) {
	block := ManagedBlock([]byte("a: 1\n"))
	assert.Equal(t, BeginMarker+"\n"+Notice+"\na: 1\n"+EndMarker+"\n", block)
	assert.Equal(t, ManagedBlock([]byte("a: 1\n")), ManagedBlock([]byte("a: 1")))
}

func TestApplyManagedBlock(t *testing.T) {
	oldBlock := ManagedBlock([]byte("a: 1\n"))
	newBlock := ManagedBlock([]byte("a: 2\n"))

	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"new file", "", newBlock},
		{"no markers", "custom: true\n", newBlock + "custom: true\n"},
		{"replace only", oldBlock, newBlock},
		{
			"keeps surrounding content",
			"# my notes\nextra: x\n" + oldBlock + "\n# trailing\nlast: y",
			"# my notes\nextra: x\n" + newBlock + "\n# trailing\nlast: y",
		},
		{
			"end marker without newline",
			"before\n" + BeginMarker + "\nold\n" + EndMarker,
			"before\n" + newBlock,
		},
		{
			"crlf markers",
			"before\r\n" + BeginMarker + "\r\nold\r\n" + EndMarker + "\r\nafter\r\n",
			"before\r\n" + newBlock + "after\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyManagedBlock(tt.existing, newBlock)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyManagedBlockIsIdempotent(t *testing.T) {
	block := ManagedBlock([]byte("a: 1\n"))
	once, err := ApplyManagedBlock("head\n", block)
	require.NoError(t, err)
	twice, err := ApplyManagedBlock(once, block)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApplyManagedBlockUnterminated(t *testing.T) {
	_, err := ApplyManagedBlock("x\n"+BeginMarker+"\nold\n", ManagedBlock(nil))
	assert.ErrorIs(t, err, ErrUnterminatedBlock)
}
