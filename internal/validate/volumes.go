package validate

import (
	"path"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/util"
)

func init() {
	Register(Rule{Name: "shared-volumes", Check: checkSharedVolumes})
	Register(Rule{Name: "persistent-data", Check: checkPersistentData})
	Register(Rule{Name: "devices", Check: checkDevices})
}

func checkSharedVolumes(spec *model.Specification, _ Options, r *Report) {
	for _, name := range util.SortedKeys(spec.SharedVolumes) {
		v := spec.SharedVolumes[name]
		where := "shared volume " + quote(name)

		if v.Source != "" && !path.IsAbs(v.Source) {
			r.Addf("%s: source must be an absolute path, got %q", where, v.Source)
		}
		if v.Path != "" && !path.IsAbs(v.Path) {
			r.Addf("%s: path must be an absolute path, got %q", where, v.Path)
		}
		if len(v.Consumers) == 0 {
			r.Addf("%s: no consumers", where)
		}
		for _, consumer := range util.SortedKeys(v.Consumers) {
			access := v.Consumers[consumer]
			if access != model.AccessReadOnly && access != model.AccessReadWrite {
				r.Addf("%s: consumer %q: access must be ro or rw, got %q", where, consumer, access)
			}
			if _, ok := spec.Domains[consumer]; ok {
				continue
			}
			if m, _ := spec.FindMachine(consumer); m == nil {
				r.Addf("%s: consumer %q is neither a domain nor a machine", where, consumer)
			}
		}
	}
}

func checkPersistentData(spec *model.Specification, _ Options, r *Report) {
	for _, m := range spec.Machines() {
		for _, vname := range util.SortedKeys(m.PersistentData) {
			pv := m.PersistentData[vname]
			where := machineRef(m) + ": persistent_data " + quote(vname)
			switch {
			case pv.Path == "":
				r.Addf("%s: path is required", where)
			case !path.IsAbs(pv.Path):
				r.Addf("%s: path must be an absolute path, got %q", where, pv.Path)
			}
		}
	}
}

// checkDevices reports user devices that would shadow a synthesized device,
// and user devices that borrow a reserved prefix.
func checkDevices(spec *model.Specification, _ Options, r *Report) {
	shared, persistent := machineDevices(spec)

	for _, m := range spec.Machines() {
		_, collisions := resources.MergeDevices(m.Name, shared[m.Name], persistent[m.Name], m.Devices)
		clashed := make(map[string]bool)
		for _, c := range collisions {
			clashed[c.Name] = true
			switch c.Loser {
			case model.OriginPersistent:
				r.Addf("%s: device %q collides with persistent_data volume %q",
					machineRef(m), c.Name, strings.TrimPrefix(c.Name, model.PersistentDevicePrefix))
			case model.OriginShared:
				r.Addf("%s: device %q collides with shared volume %q",
					machineRef(m), c.Name, strings.TrimPrefix(c.Name, model.SharedDevicePrefix))
			}
		}

		for _, dname := range util.SortedKeys(m.Devices) {
			if clashed[dname] {
				continue
			}
			if strings.HasPrefix(dname, model.SharedDevicePrefix) || strings.HasPrefix(dname, model.PersistentDevicePrefix) {
				r.Addf("%s: device %q uses a reserved prefix (%s, %s)",
					machineRef(m), dname, model.SharedDevicePrefix, model.PersistentDevicePrefix)
			}
		}
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
