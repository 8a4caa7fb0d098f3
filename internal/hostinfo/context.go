// Package hostinfo reads facts about the machine domainforge runs on: the
// nesting context left by a parent installation and best-effort probes of
// host resources and network interfaces.
package hostinfo

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// Context file names, relative to the context directory.
const (
	AbsoluteLevelFile = "absolute_level"
	VMNestedFile      = "vm_nested"
	RelaxedFile       = "yolo"
)

// Context describes where in a nesting hierarchy this run happens.
type Context struct {
	// NestingLevel is 0 on a physical host.
	NestingLevel int
	// VMNested is true when some ancestor is a virtual machine, which
	// isolates privileged containers from the physical host.
	VMNested bool
	// Relaxed downgrades some safety errors to warnings.
	Relaxed bool
	// Known is true when a nesting level file was found.
	Known bool
}

// ReadContext reads context files from fsys. Missing or malformed files
// leave the matching field at its zero value.
func ReadContext(fsys fs.FS) Context {
	var c Context
	if fsys == nil {
		return c
	}
	if raw, ok := readTrimmed(fsys, AbsoluteLevelFile); ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			c.NestingLevel = n
			c.Known = true
		}
	}
	if raw, ok := readTrimmed(fsys, VMNestedFile); ok {
		c.VMNested = parseTruthy(raw)
	}
	if _, err := fs.Stat(fsys, RelaxedFile); err == nil {
		c.Relaxed = true
	}
	return c
}

// NamePrefix returns the prefix applied to Incus names at this nesting
// level, or "" on the physical host.
func (c Context) NamePrefix() string {
	if c.NestingLevel <= 0 {
		return ""
	}
	return fmt.Sprintf("%03d-", c.NestingLevel)
}

func readTrimmed(fsys fs.FS, name string) (string, bool) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func parseTruthy(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	}
	return false
}
