package resources

import (
	"path"
	"sort"

	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Collision is a device name claimed by more than one source. Winner is
// the origin kept by MergeDevices.
type Collision struct {
	Machine string
	Name    string
	Winner  model.DeviceOrigin
	Loser   model.DeviceOrigin
}

// ResolveSharedVolumes builds one device per (volume, consuming machine).
// A consumer naming a domain covers all its machines; a consumer naming a
// machine overrides the domain-level access for that machine.
func ResolveSharedVolumes(spec *model.Specification) map[string]map[string]model.Device {
	out := make(map[string]map[string]model.Device)
	base := spec.Global.SharedVolumesBaseOrDefault()

	for _, vname := range sortedKeys(spec.SharedVolumes) {
		v := spec.SharedVolumes[vname]
		if v == nil {
			continue
		}

		access := make(map[string]string)
		for consumer, mode := range v.Consumers {
			d, ok := spec.Domains[consumer]
			if !ok || d == nil {
				continue
			}
			for _, m := range d.Machines {
				access[m.Name] = mode
			}
		}
		for consumer, mode := range v.Consumers {
			if m, _ := spec.FindMachine(consumer); m != nil {
				access[m.Name] = mode
			}
		}

		source := v.Source
		if source == "" {
			source = path.Join(base, vname)
		}
		for machine, mode := range access {
			dev := model.Device{
				Name:     model.SharedDevicePrefix + vname,
				Origin:   model.OriginShared,
				Type:     "disk",
				Source:   source,
				Path:     v.MountPath(),
				Shift:    v.Shift.Value(true),
				ReadOnly: mode == model.AccessReadOnly,
			}
			if out[machine] == nil {
				out[machine] = make(map[string]model.Device)
			}
			out[machine][dev.Name] = dev
		}
	}
	return out
}

// ResolvePersistentData builds one device per persistent_data entry, backed
// by <persistent_data_base>/<domain>/<machine>/<volume>.
func ResolvePersistentData(spec *model.Specification) map[string]map[string]model.Device {
	out := make(map[string]map[string]model.Device)
	base := spec.Global.PersistentDataBaseOrDefault()

	for _, m := range spec.Machines() {
		if len(m.PersistentData) == 0 {
			continue
		}
		devs := make(map[string]model.Device, len(m.PersistentData))
		for _, vname := range sortedKeys(m.PersistentData) {
			pv := m.PersistentData[vname]
			dev := model.Device{
				Name:     model.PersistentDevicePrefix + vname,
				Origin:   model.OriginPersistent,
				Type:     "disk",
				Source:   path.Join(base, m.Domain, m.Name, vname),
				Path:     pv.Path,
				Shift:    true,
				ReadOnly: pv.ReadOnly.Value(false),
			}
			devs[dev.Name] = dev
		}
		out[m.Name] = devs
	}
	return out
}

// MergeDevices combines the three device sources of a machine. Precedence
// is shared, then persistent, then user: a later source replaces an earlier
// one with the same name, and every replacement is returned as a Collision.
// The result is sorted by name.
func MergeDevices(machine string, shared, persistent map[string]model.Device, user map[string]map[string]string) ([]model.Device, []Collision) {
	merged := make(map[string]model.Device)
	var collisions []Collision

	put := func(d model.Device) {
		if prev, ok := merged[d.Name]; ok {
			collisions = append(collisions, Collision{Machine: machine, Name: d.Name, Winner: d.Origin, Loser: prev.Origin})
		}
		merged[d.Name] = d
	}

	for _, name := range sortedKeys(shared) {
		put(shared[name])
	}
	for _, name := range sortedKeys(persistent) {
		put(persistent[name])
	}
	for _, name := range sortedKeys(user) {
		put(model.UserDevice(name, user[name]))
	}

	out := make([]model.Device, 0, len(merged))
	for _, name := range sortedKeys(merged) {
		out = append(out, merged[name])
	}
	return out, collisions
}

// MachineDevices merges the synthesized and user devices of m.
func MachineDevices(spec *model.Specification, m *model.Machine) ([]model.Device, []Collision) {
	return MergeDevices(m.Name, spec.SharedDevices[m.Name], spec.PersistentDevices[m.Name], m.Devices)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
