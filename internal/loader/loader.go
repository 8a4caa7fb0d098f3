// Package loader reads an infrastructure specification from a single file or
// from a split directory and merges it into one tree.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"gopkg.in/yaml.v3"
)

// Split-layout file names.
const (
	BaseFile     = "base.yml"
	DomainsDir   = "domains"
	PoliciesFile = "policies.yml"
)

// ErrNoBaseFile is returned when a split directory lacks base.yml.
var ErrNoBaseFile = errors.New("base.yml not found")

// FileError wraps a failure with the file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Override records a domain redefined by a later file. The later
// definition wins.
type Override struct {
	Domain   string
	File     string
	Previous string
}

func (o Override) String() string {
	return fmt.Sprintf("domain %q from %s overrides definition in %s", o.Domain, o.File, o.Previous)
}

// DomainFile is one decoded file of the domains/ directory.
type DomainFile struct {
	Path    string
	Domains map[string]*model.Domain
}

// PolicyFile is the decoded policies.yml.
type PolicyFile struct {
	Path            string                `yaml:"-"`
	NetworkPolicies []model.NetworkPolicy `yaml:"network_policies"`
}

// Load reads path, which is either a specification file or a directory in
// split layout, and returns the merged tree with any override events.
func Load(path string) (*model.Specification, []Override, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading spec: %w", err)
	}
	if !info.IsDir() {
		spec, err := decodeSpec(path)
		if err != nil {
			return nil, nil, err
		}
		spec.StampNames()
		return spec, nil, nil
	}
	return loadDir(path)
}

func loadDir(dir string) (*model.Specification, []Override, error) {
	basePath := filepath.Join(dir, BaseFile)
	if _, err := os.Stat(basePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &FileError{Path: basePath, Err: ErrNoBaseFile}
		}
		return nil, nil, &FileError{Path: basePath, Err: err}
	}
	base, err := decodeSpec(basePath)
	if err != nil {
		return nil, nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, DomainsDir, "*.yml"))
	if err != nil {
		return nil, nil, fmt.Errorf("listing domain files: %w", err)
	}
	sort.Strings(matches)

	var domainFiles []DomainFile
	for _, p := range matches {
		df := DomainFile{Path: p, Domains: make(map[string]*model.Domain)}
		if err := decodeFile(p, &df.Domains); err != nil {
			return nil, nil, err
		}
		domainFiles = append(domainFiles, df)
	}

	var policies *PolicyFile
	policiesPath := filepath.Join(dir, PoliciesFile)
	if _, err := os.Stat(policiesPath); err == nil {
		policies = &PolicyFile{Path: policiesPath}
		if err := decodeFile(policiesPath, policies); err != nil {
			return nil, nil, err
		}
	}

	spec, overrides := Merge(base, basePath, domainFiles, policies)
	return spec, overrides, nil
}

// Merge folds domain files and the policies file into base. Domain files
// are applied in the given order; a domain already defined is replaced and
// reported as an Override. A policies file replaces the base network policy
// list only when it sets network_policies; an explicit empty list clears it.
// base is modified and returned.
func Merge(base *model.Specification, basePath string, domainFiles []DomainFile, policies *PolicyFile) (*model.Specification, []Override) {
	if base.Domains == nil {
		base.Domains = make(map[string]*model.Domain)
	}
	if base.SharedVolumes == nil {
		base.SharedVolumes = make(map[string]*model.SharedVolume)
	}

	origin := make(map[string]string, len(base.Domains))
	for name := range base.Domains {
		origin[name] = basePath
	}

	var overrides []Override
	for _, df := range domainFiles {
		names := make([]string, 0, len(df.Domains))
		for name := range df.Domains {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if prev, ok := origin[name]; ok {
				overrides = append(overrides, Override{Domain: name, File: df.Path, Previous: prev})
			}
			base.Domains[name] = df.Domains[name]
			origin[name] = df.Path
		}
	}

	if policies != nil && policies.NetworkPolicies != nil {
		base.NetworkPolicies = policies.NetworkPolicies
	}

	base.StampNames()
	return base, overrides
}

func decodeSpec(path string) (*model.Specification, error) {
	spec := model.NewSpecification()
	if err := decodeFile(path, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return &FileError{Path: path, Err: fmt.Errorf("parsing yaml: %w", err)}
	}
	return nil
}
