package wizard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockDetector implements Detector for testing.
type mockDetector struct {
	binaries map[string]bool
	files    map[string]bool
	dirs     map[string]bool
	globs    map[string][]string
	wd       string
}

func (m *mockDetector) LookPath(name string) (string, error) {
	if m.binaries[name] {
		return "/usr/bin/" + name, nil
	}
	return "", &os.PathError{Op: "lookpath", Path: name, Err: os.ErrNotExist}
}

type fakeFileInfo struct {
	name  string
	isDir bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.isDir }
func (f fakeFileInfo) Sys() interface{}   { return nil }

func (m *mockDetector) Stat(path string) (os.FileInfo, error) {
	if m.dirs[path] {
		return fakeFileInfo{name: path, isDir: true}, nil
	}
	if m.files[path] {
		return fakeFileInfo{name: path, isDir: false}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockDetector) Glob(pattern string) ([]string, error) {
	return m.globs[pattern], nil
}

func (m *mockDetector) Getwd() (string, error) {
	if m.wd == "" {
		return "", os.ErrNotExist
	}
	return m.wd, nil
}

func TestDetectIncus(t *testing.T) {
	d := &mockDetector{binaries: map[string]bool{"incus": true}}
	result := Detect(d)
	assert.True(t, result.IncusAvailable)
}

func TestDetectNoIncus(t *testing.T) {
	d := &mockDetector{binaries: map[string]bool{}}
	result := Detect(d)
	assert.False(t, result.IncusAvailable)
}

func TestDetectExistingFile(t *testing.T) {
	d := &mockDetector{files: map[string]bool{"infra.yml": true}}
	result := Detect(d)
	assert.Equal(t, "infra.yml", result.ExistingFile)
	assert.True(t, result.Exists())
}

func TestDetectSplitLayout(t *testing.T) {
	pattern := filepath.Join("infra", "domains", "*.yml")
	d := &mockDetector{
		files: map[string]bool{filepath.Join("infra", "base.yml"): true},
		globs: map[string][]string{pattern: {"infra/domains/pro.yml", "infra/domains/perso.yml"}},
	}
	result := Detect(d)
	assert.Equal(t, "infra", result.ExistingDir)
	assert.Len(t, result.DomainFiles, 2)
	assert.True(t, result.Exists())
}

func TestDetectProjectName(t *testing.T) {
	d := &mockDetector{wd: "/home/me/My Lab"}
	assert.Equal(t, "my-lab", Detect(d).ProjectName)
}

func TestDetectNothing(t *testing.T) {
	d := &mockDetector{}
	result := Detect(d)
	assert.False(t, result.IncusAvailable)
	assert.False(t, result.Exists())
	assert.Empty(t, result.DomainFiles)
	assert.Empty(t, result.ProjectName)
}
