package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Orphan kinds.
const (
	KindDomain    = "domain"
	KindMachine   = "machine"
	KindInventory = "inventory"
)

var protectedPattern = regexp.MustCompile(`(?m)^\s*(` + DomainEphemeralKey + `|` + InstanceEphemeralKey + `):\s*false\s*$`)

// Orphan is an output file whose domain or machine no longer exists.
type Orphan struct {
	Path      string
	Kind      string
	Name      string
	Protected bool
}

// FindOrphans scans the output directories under dir for files that do not
// match a defined domain or machine. A file carrying an explicit
// domain_ephemeral: false or instance_ephemeral: false is protected; an
// inventory file is also protected when its group_vars sibling is.
func FindOrphans(spec *model.Specification, dir string) ([]Orphan, error) {
	machines := make(map[string]bool)
	for _, m := range spec.Machines() {
		machines[m.Name] = true
	}
	isDomain := func(name string) bool {
		_, ok := spec.Domains[name]
		return ok
	}

	var out []Orphan
	scans := []struct {
		sub   string
		kind  string
		known func(string) bool
	}{
		{GroupVarsDir, KindDomain, isDomain},
		{HostVarsDir, KindMachine, func(n string) bool { return machines[n] }},
		{InventoryDir, KindInventory, isDomain},
	}
	for _, s := range scans {
		names, err := ymlFiles(filepath.Join(dir, s.sub))
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if s.sub == GroupVarsDir && name+".yml" == AllFile {
				continue
			}
			if s.known(name) {
				continue
			}
			path := filepath.Join(dir, s.sub, name+".yml")
			protected, err := isProtected(path)
			if err != nil {
				return nil, err
			}
			if !protected && s.kind == KindInventory {
				sibling := filepath.Join(dir, GroupVarsDir, name+".yml")
				if protected, err = isProtected(sibling); err != nil {
					return nil, err
				}
			}
			out = append(out, Orphan{Path: path, Kind: s.kind, Name: name, Protected: protected})
		}
	}
	return out, nil
}

// DeleteOrphans removes unprotected orphans and returns their paths.
// Protected orphans are skipped.
func DeleteOrphans(orphans []Orphan) ([]string, error) {
	var deleted []string
	for _, o := range orphans {
		if o.Protected {
			continue
		}
		if err := os.Remove(o.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return deleted, fmt.Errorf("deleting orphan %s: %w", o.Path, err)
		}
		deleted = append(deleted, o.Path)
	}
	return deleted, nil
}

func ymlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".yml"); ok && !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isProtected(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return protectedPattern.Match(data), nil
}
