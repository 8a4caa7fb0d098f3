// Package render writes Ansible variable and inventory files from an
// enriched specification and finds files left behind by removed domains
// and machines.
package render

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/util"
	"github.com/rs/zerolog/log"
)

// Output directories, relative to the output root.
const (
	GroupVarsDir = "group_vars"
	HostVarsDir  = "host_vars"
	InventoryDir = "inventory"
	AllFile      = "all.yml"
)

// Options controls a generation run.
type Options struct {
	OutputDir string
	// DryRun renders and compares without writing.
	DryRun  bool
	Context hostinfo.Context
}

// Result lists output files relative to the output directory. In a dry run
// Written holds the files that would change.
type Result struct {
	Written   []string
	Unchanged []string
}

// File is one rendered output before it is merged with what is on disk.
type File struct {
	Path  string // relative to the output directory
	Block string
}

// Files renders every output file of spec, in a fixed order.
func Files(spec *model.Specification, c hostinfo.Context) ([]File, error) {
	n := newNamer(spec, c)
	zones := addressing.Compute(spec)

	var files []File
	add := func(dir, name string, m *util.Mapping) error {
		path := filepath.Join(dir, name+".yml")
		if !safeName(name) {
			return &WriteError{Path: path, Err: ErrUnsafeName}
		}
		body, err := util.Encode(m.Node())
		if err != nil {
			return &WriteError{Path: path, Err: err}
		}
		files = append(files, File{Path: path, Block: ManagedBlock(body)})
		return nil
	}

	if err := add(GroupVarsDir, strings.TrimSuffix(AllFile, ".yml"), allVars(spec, n)); err != nil {
		return nil, err
	}
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		if err := add(GroupVarsDir, name, domainVars(spec, d, zones, n)); err != nil {
			return nil, err
		}
		if err := add(InventoryDir, name, inventory(d, n)); err != nil {
			return nil, err
		}
		for _, m := range d.Machines {
			if err := add(HostVarsDir, m.Name, hostVars(spec, d, m, zones, n)); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// safeName reports whether name can be used as a file name directly inside
// an output directory.
func safeName(name string) bool {
	return name != "" && filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`)
}

// Generate renders spec into opts.OutputDir. Each file is read, its managed
// block replaced, and written back atomically only when its bytes change.
func Generate(spec *model.Specification, opts Options) (Result, error) {
	var res Result
	files, err := Files(spec, opts.Context)
	if err != nil {
		return res, err
	}

	for _, f := range files {
		path := filepath.Join(opts.OutputDir, f.Path)
		existing, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, &WriteError{Path: path, Err: err}
		}

		content, err := ApplyManagedBlock(string(existing), f.Block)
		if err != nil {
			return res, &WriteError{Path: path, Err: err}
		}
		if content == string(existing) {
			res.Unchanged = append(res.Unchanged, f.Path)
			continue
		}

		if opts.DryRun {
			res.Written = append(res.Written, f.Path)
			continue
		}
		if _, err := util.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
			return res, &WriteError{Path: path, Err: err}
		}
		log.Debug().Str("file", f.Path).Msg("wrote managed block")
		res.Written = append(res.Written, f.Path)
	}
	return res, nil
}
