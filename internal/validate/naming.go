package validate

import (
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/util"
)

func init() {
	Register(Rule{Name: "project", Check: checkProject})
	Register(Rule{Name: "naming", Check: checkNaming})
}

func checkProject(spec *model.Specification, _ Options, r *Report) {
	if spec.ProjectName == "" {
		r.Addf("project_name is required")
	}
	if len(spec.Domains) == 0 {
		r.Addf("no domains defined")
	}
}

func checkNaming(spec *model.Specification, _ Options, r *Report) {
	for _, name := range spec.DomainNames() {
		if !util.ValidName(name) {
			r.Addf("domain %q: name must match %s", name, util.NamePattern)
		}
	}

	for _, name := range util.SortedKeys(spec.SharedVolumes) {
		if !util.ValidName(name) {
			r.Addf("shared volume %q: name must match %s", name, util.NamePattern)
		}
	}

	owner := make(map[string]string)
	for _, m := range spec.Machines() {
		if !util.ValidName(m.Name) {
			r.Addf("%s: name must match %s", machineRef(m), util.NamePattern)
		}
		if prev, ok := owner[m.Name]; ok {
			r.Addf("machine %q is defined in both domain %q and domain %q", m.Name, prev, m.Domain)
		} else {
			owner[m.Name] = m.Domain
		}
		if m.Name == model.HostEndpoint {
			r.Addf("%s: %q is reserved for the physical host", machineRef(m), model.HostEndpoint)
		}
		for _, vname := range util.SortedKeys(m.PersistentData) {
			if !util.ValidName(vname) {
				r.Addf("%s: persistent_data %q: name must match %s", machineRef(m), vname, util.NamePattern)
			}
		}
	}

	for _, name := range spec.DomainNames() {
		if name == model.HostEndpoint {
			r.Addf("domain %q: name is reserved for the physical host", name)
		}
	}
}
