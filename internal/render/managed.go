package render

import (
	"errors"
	"strings"
)

// Managed block markers. Everything outside them belongs to the user.
const (
	BeginMarker = "# === MANAGED BY domainforge ==="
	EndMarker   = "# === END MANAGED ==="
	Notice      = "# Regenerated by `domainforge generate`. Edit the infrastructure spec, not this block."
)

// ErrUnterminatedBlock is returned when a file has a begin marker but no
// end marker after it.
var ErrUnterminatedBlock = errors.New("managed block has no end marker")

// ManagedBlock wraps rendered YAML in the markers and notice.
func ManagedBlock(body []byte) string {
	var b strings.Builder
	b.WriteString(BeginMarker + "\n")
	b.WriteString(Notice + "\n")
	b.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(EndMarker + "\n")
	return b.String()
}

// ApplyManagedBlock replaces the managed region of existing with block.
// Content before and after the markers is kept byte for byte. A file
// without markers gets the block prepended; an empty file becomes the
// block alone.
func ApplyManagedBlock(existing, block string) (string, error) {
	if existing == "" {
		return block, nil
	}

	start, ok := findLine(existing, BeginMarker, 0)
	if !ok {
		return block + existing, nil
	}
	end, ok := findLine(existing, EndMarker, start)
	if !ok {
		return "", ErrUnterminatedBlock
	}

	after := len(existing)
	if i := strings.IndexByte(existing[end:], '\n'); i >= 0 {
		after = end + i + 1
	}
	return existing[:start] + block + existing[after:], nil
}

// findLine returns the offset of the first line at or after from that is
// exactly marker, ignoring trailing spaces and a CR.
func findLine(s, marker string, from int) (int, bool) {
	for pos := from; pos < len(s); {
		line := s[pos:]
		next := len(s)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = pos + i + 1
		}
		if strings.TrimRight(line, " \r") == marker {
			return pos, true
		}
		pos = next
	}
	return 0, false
}
