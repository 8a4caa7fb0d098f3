package util

import (
	"regexp"
	"strings"
)

// NamePattern is the shape required of domain and volume names. Names end
// up in Incus instance, network and device names.
var NamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

var nonNameChars = regexp.MustCompile(`[^a-z0-9-]`)

// ValidName reports whether s matches NamePattern.
func ValidName(s string) bool {
	return NamePattern.MatchString(s)
}

// SanitizeName turns free text into a valid name.
func SanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = nonNameChars.ReplaceAllString(s, "")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}
