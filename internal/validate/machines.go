package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/util"
)

// Boot priority bounds.
const (
	MinBootPriority = 0
	MaxBootPriority = 100
)

// DefaultProfile is always available without being declared.
const DefaultProfile = "default"

var expiryPattern = regexp.MustCompile(`^[0-9]+[Hhdwmy]$`)

func init() {
	Register(Rule{Name: "profiles", Check: checkProfiles})
	Register(Rule{Name: "memory", Check: checkMemory})
	Register(Rule{Name: "lifecycle", Check: checkLifecycle})
}

func checkProfiles(spec *model.Specification, _ Options, r *Report) {
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		for _, m := range d.Machines {
			for _, p := range m.Profiles {
				if p == DefaultProfile {
					continue
				}
				if _, ok := d.Profiles[p]; !ok {
					r.Addf("%s: profile %q is not defined in domain %q", machineRef(m), p, d.Name)
				}
			}
		}
	}
}

func checkMemory(spec *model.Specification, _ Options, r *Report) {
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		for _, pname := range util.SortedKeys(d.Profiles) {
			checkMemoryConfig(r, fmt.Sprintf("%s: profile %q", domainRef(d), pname), d.Profiles[pname].Config)
		}
		for _, m := range d.Machines {
			checkMemoryConfig(r, machineRef(m), m.Config)
		}
	}
}

func checkMemoryConfig(r *Report, where string, config map[string]string) {
	if v, ok := config[resources.KeyMemory]; ok && resources.ParseMemory(v) == 0 {
		r.Addf("%s: %s %q is not a valid size (e.g. 2GiB, 512MiB)", where, resources.KeyMemory, v)
	}
	if v, ok := config[resources.KeyMemoryEnforce]; ok {
		checkEnum(r, where, resources.KeyMemoryEnforce, v, resources.EnforceSoft, resources.EnforceHard)
	}
}

func checkLifecycle(spec *model.Specification, _ Options, r *Report) {
	for _, m := range spec.Machines() {
		where := machineRef(m)
		if m.BootPriority.IsSet() {
			if v, ok := m.BootPriority.Get(); !ok || v < MinBootPriority || v > MaxBootPriority {
				r.Addf("%s: boot_priority must be an integer in [%d,%d], got %q",
					where, MinBootPriority, MaxBootPriority, m.BootPriority.Raw())
			}
		}
		if m.SnapshotsSchedule != "" && !validSchedule(m.SnapshotsSchedule) {
			r.Addf("%s: snapshots_schedule %q must have five cron fields or be an @ shorthand", where, m.SnapshotsSchedule)
		}
		if m.SnapshotsExpiry != "" && !expiryPattern.MatchString(m.SnapshotsExpiry) {
			r.Addf("%s: snapshots_expiry %q must look like 30d, 12h or 4w", where, m.SnapshotsExpiry)
		}
	}
}

func validSchedule(s string) bool {
	switch s {
	case "@hourly", "@daily", "@weekly", "@monthly", "@yearly", "@annually", "@midnight", "@startup":
		return true
	}
	return len(strings.Fields(s)) == 5
}
