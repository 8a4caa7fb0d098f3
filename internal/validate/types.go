package validate

import (
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/util"
)

// AI settings accepted on a domain.
var (
	AIProviders = []string{"local", "cloud", "local-first"}
	AISanitize  = []string{"true", "false", "always"}
)

func init() {
	Register(Rule{Name: "types", Check: checkTypes})
}

func checkTypes(spec *model.Specification, _ Options, r *Report) {
	checkGlobalTypes(spec.Global, r)

	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		where := domainRef(d)
		checkFlag(r, where, "enabled", d.Enabled)
		checkFlag(r, where, "ephemeral", d.Ephemeral)
		if d.TrustLevel != "" && !d.TrustLevel.Valid() {
			r.Addf("%s: trust_level must be one of %v, got %q", where, model.TrustLevels, d.TrustLevel)
		}
		checkEnum(r, where, "ai_provider", d.AIProvider, AIProviders...)
		if d.AISanitize.IsSet() {
			v := d.AISanitize.String()
			if d.AISanitize.IsBool() {
				v = strings.ToLower(v)
			} else if v == "" {
				v = d.AISanitize.Tag()
			}
			checkEnum(r, where, "ai_sanitize", v, AISanitize...)
		}

		for _, m := range d.Machines {
			mw := machineRef(m)
			checkFlag(r, mw, "ephemeral", m.Ephemeral)
			checkFlag(r, mw, "gpu", m.GPU)
			checkFlag(r, mw, "boot_autostart", m.BootAutostart)
			checkEnum(r, mw, "type", m.Type, model.InstanceLXC, model.InstanceVM)
			if m.Weight.IsSet() {
				if w, ok := m.Weight.Get(); !ok || w < 1 {
					r.Addf("%s: weight must be a positive integer, got %q", mw, m.Weight.Raw())
				}
			}
			for _, vname := range util.SortedKeys(m.PersistentData) {
				checkFlag(r, fmt.Sprintf("%s: persistent_data %q", mw, vname), "readonly", m.PersistentData[vname].ReadOnly)
			}
		}
	}

	for _, name := range util.SortedKeys(spec.SharedVolumes) {
		checkFlag(r, fmt.Sprintf("shared volume %q", name), "shift", spec.SharedVolumes[name].Shift)
	}
	for i, p := range spec.NetworkPolicies {
		checkFlag(r, policyRef(i, p), "bidirectional", p.Bidirectional)
	}
}

func checkGlobalTypes(g model.Global, r *Report) {
	checkFlag(r, "global", "nesting_prefix", g.NestingPrefix)
	checkEnum(r, "global", "gpu_policy", g.GPUPolicy, "exclusive", "shared")
	checkEnum(r, "global", "ai_access_policy", g.AIAccessPolicy, "open", "exclusive")

	p := g.ResourcePolicy
	if p == nil {
		return
	}
	where := "global.resource_policy"
	checkEnum(r, where, "mode", p.Mode, resources.ModeProportional, resources.ModeEqual)
	checkEnum(r, where, "cpu_mode", p.CPUMode, resources.CPUModeAllowance, resources.CPUModeCount)
	checkEnum(r, where, "memory_enforce", p.MemoryEnforce, resources.EnforceSoft, resources.EnforceHard)
	checkFlag(r, where, "overcommit", p.Overcommit)
	if !resources.ValidReserve(p.HostReserve.CPU, false) {
		r.Addf("%s: host_reserve.cpu must be a percentage below 100%% or a CPU count, got %q", where, p.HostReserve.CPU)
	}
	if !resources.ValidReserve(p.HostReserve.Memory, true) {
		r.Addf("%s: host_reserve.memory must be a percentage below 100%% or a size such as 4GiB, got %q", where, p.HostReserve.Memory)
	}
}
