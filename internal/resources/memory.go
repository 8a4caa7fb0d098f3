package resources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Memory enforcement modes.
const (
	EnforceSoft = "soft"
	EnforceHard = "hard"
)

// Incus config keys touched by enrichment.
const (
	KeyCPU           = "limits.cpu"
	KeyCPUAllowance  = "limits.cpu.allowance"
	KeyMemory        = "limits.memory"
	KeyMemoryEnforce = "limits.memory.enforce"
)

var binaryUnits = []struct {
	suffix string
	size   uint64
}{
	{"TiB", humanize.TiByte},
	{"GiB", humanize.GiByte},
	{"MiB", humanize.MiByte},
	{"KiB", humanize.KiByte},
}

// ParseMemory converts a size such as "2GiB", "512MB" or "1048576" into
// bytes. Unparseable input yields 0, which callers treat as absent.
func ParseMemory(s string) uint64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return n
}

// FormatMemory renders bytes with the largest binary unit that divides
// them exactly, or as a bare byte count.
func FormatMemory(n uint64) string {
	if n == 0 {
		return "0"
	}
	for _, u := range binaryUnits {
		if n%u.size == 0 {
			return fmt.Sprintf("%d%s", n/u.size, u.suffix)
		}
	}
	return strconv.FormatUint(n, 10)
}
