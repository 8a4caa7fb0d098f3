package wizard

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ThomasCrouzet/domainforge/internal/util"
)

// DetectionResult holds what was auto-detected on the system.
type DetectionResult struct {
	IncusAvailable bool
	ExistingFile   string   // infra.yml if present
	ExistingDir    string   // infra/ if it holds a base file
	DomainFiles    []string // infra/domains/*.yml
	ProjectName    string   // suggested from the working directory
}

// Exists reports whether a specification is already present.
func (r DetectionResult) Exists() bool {
	return r.ExistingFile != "" || r.ExistingDir != ""
}

// Detector abstracts filesystem and path lookups for testing.
type Detector interface {
	LookPath(name string) (string, error)
	Stat(path string) (os.FileInfo, error)
	Glob(pattern string) ([]string, error)
	Getwd() (string, error)
}

// OSDetector uses the real OS for detection.
type OSDetector struct{}

func (OSDetector) LookPath(name string) (string, error)  { return exec.LookPath(name) }
func (OSDetector) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
func (OSDetector) Glob(pattern string) ([]string, error) { return filepath.Glob(pattern) }
func (OSDetector) Getwd() (string, error)                { return os.Getwd() }

// Detect looks for an existing specification and the incus client.
func Detect(d Detector) DetectionResult {
	if d == nil {
		d = OSDetector{}
	}

	result := DetectionResult{}

	if _, err := d.LookPath("incus"); err == nil {
		result.IncusAvailable = true
	}

	if info, err := d.Stat("infra.yml"); err == nil && !info.IsDir() {
		result.ExistingFile = "infra.yml"
	}
	if _, err := d.Stat(filepath.Join("infra", "base.yml")); err == nil {
		result.ExistingDir = "infra"
		result.DomainFiles, _ = d.Glob(filepath.Join("infra", "domains", "*.yml"))
	}

	if wd, err := d.Getwd(); err == nil {
		result.ProjectName = util.SanitizeName(filepath.Base(wd))
	}

	return result
}
