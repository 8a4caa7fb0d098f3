package model

// Instance types.
const (
	InstanceLXC = "lxc"
	InstanceVM  = "vm"
)

// Machine is a single container or virtual machine.
type Machine struct {
	Name              string                       `yaml:"-"`
	Domain            string                       `yaml:"-"`
	Description       string                       `yaml:"description"`
	Type              string                       `yaml:"type"`
	IP                string                       `yaml:"ip"`
	OSImage           string                       `yaml:"os_image"`
	Ephemeral         Flag                         `yaml:"ephemeral"`
	GPU               Flag                         `yaml:"gpu"`
	Weight            Int                          `yaml:"weight"`
	Profiles          []string                     `yaml:"profiles"`
	Config            map[string]string            `yaml:"config"`
	Devices           map[string]map[string]string `yaml:"devices"`
	PersistentData    map[string]PersistentVolume  `yaml:"persistent_data"`
	Roles             []string                     `yaml:"roles"`
	BootAutostart     Flag                         `yaml:"boot_autostart"`
	BootPriority      Int                          `yaml:"boot_priority"`
	SnapshotsSchedule string                       `yaml:"snapshots_schedule"`
	SnapshotsExpiry   string                       `yaml:"snapshots_expiry"`
}

// PersistentVolume declares per-machine data that survives rebuilds.
type PersistentVolume struct {
	Path     string `yaml:"path"`
	ReadOnly Flag   `yaml:"readonly"`
}

// InstanceType returns the declared type, defaulting to lxc.
func (m *Machine) InstanceType() string {
	if m.Type == "" {
		return InstanceLXC
	}
	return m.Type
}

// IsEphemeral resolves the machine override against its domain.
func (m *Machine) IsEphemeral(d *Domain) bool {
	if v, ok := m.Ephemeral.Bool(); ok {
		return v
	}
	if d == nil {
		return false
	}
	return d.IsEphemeral()
}

// HasGPU reports whether the machine requests a GPU, either through the
// gpu flag or a device of type gpu.
func (m *Machine) HasGPU() bool {
	if m.GPU.Value(false) {
		return true
	}
	for _, dev := range m.Devices {
		if dev["type"] == "gpu" {
			return true
		}
	}
	return false
}

// WeightOrDefault returns the resource weight, at least 1.
func (m *Machine) WeightOrDefault() int {
	if v, ok := m.Weight.Get(); ok && v > 0 {
		return v
	}
	return 1
}

// HasRole reports whether role is listed on the machine.
func (m *Machine) HasRole(role string) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SetConfig sets a config key, allocating the map on first use.
func (m *Machine) SetConfig(key, value string) {
	if m.Config == nil {
		m.Config = make(map[string]string)
	}
	m.Config[key] = value
}

// KeyPrivileged is the Incus config key for privileged containers.
const KeyPrivileged = "security.privileged"

// IsPrivileged reports whether the machine is a privileged container,
// either directly or through one of its domain profiles.
func (m *Machine) IsPrivileged(d *Domain) bool {
	if m.InstanceType() != InstanceLXC {
		return false
	}
	if m.Config[KeyPrivileged] == "true" {
		return true
	}
	if d == nil {
		return false
	}
	for _, name := range m.Profiles {
		if p, ok := d.Profiles[name]; ok && p.Config[KeyPrivileged] == "true" {
			return true
		}
	}
	return false
}
