// Package resources synthesizes devices for shared volumes and persistent
// data, normalizes memory limits, and applies the resource policy.
package resources

import (
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Enrich attaches synthesized device maps to spec and fills in resource
// limits. host is only used when known is true.
func Enrich(spec *model.Specification, host hostinfo.Resources, known bool) []Allocation {
	spec.SharedDevices = ResolveSharedVolumes(spec)
	spec.PersistentDevices = ResolvePersistentData(spec)

	var allocs []Allocation
	if known {
		allocs = AllocateResources(spec, host)
	}
	ApplyMemoryDefaults(spec)
	return allocs
}

// ApplyMemoryDefaults sets limits.memory.enforce wherever limits.memory is
// set without one. The mode comes from the resource policy, else soft.
func ApplyMemoryDefaults(spec *model.Specification) {
	mode := EnforceSoft
	if p := spec.Global.ResourcePolicy; p != nil && p.MemoryEnforce != "" {
		mode = p.MemoryEnforce
	}

	for _, m := range spec.Machines() {
		if _, ok := m.Config[KeyMemory]; !ok {
			continue
		}
		if _, ok := m.Config[KeyMemoryEnforce]; !ok {
			m.SetConfig(KeyMemoryEnforce, mode)
		}
	}
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		for _, p := range d.Profiles {
			if _, ok := p.Config[KeyMemory]; !ok {
				continue
			}
			if _, ok := p.Config[KeyMemoryEnforce]; !ok {
				p.Config[KeyMemoryEnforce] = mode
			}
		}
	}
}
