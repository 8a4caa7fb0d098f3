package model

// Reserved prefixes of synthesized device names.
const (
	SharedDevicePrefix     = "sv-"
	PersistentDevicePrefix = "pd-"
)

// Access modes for shared-volume consumers.
const (
	AccessReadOnly  = "ro"
	AccessReadWrite = "rw"
)

// SharedVolume is a host directory mounted into several machines.
type SharedVolume struct {
	Name      string            `yaml:"-"`
	Source    string            `yaml:"source"`
	Path      string            `yaml:"path"`
	Shift     Flag              `yaml:"shift"`
	Consumers map[string]string `yaml:"consumers"`
}

// MountPath returns the in-instance path, defaulting to /shared/<name>.
func (v *SharedVolume) MountPath() string {
	if v.Path != "" {
		return v.Path
	}
	return "/shared/" + v.Name
}

// DeviceOrigin tags where a device came from.
type DeviceOrigin int

const (
	OriginUser DeviceOrigin = iota
	OriginShared
	OriginPersistent
)

func (o DeviceOrigin) String() string {
	switch o {
	case OriginShared:
		return "shared volume"
	case OriginPersistent:
		return "persistent data"
	default:
		return "user"
	}
}

// Device is an Incus device attached to a machine. Shared and persistent
// devices are synthesized; user devices come straight from machine definitions.
type Device struct {
	Name     string
	Origin   DeviceOrigin
	Type     string
	Source   string
	Path     string
	Shift    bool
	ReadOnly bool
	Extra    map[string]string
}

// UserDevice wraps a user-declared device property map.
func UserDevice(name string, props map[string]string) Device {
	d := Device{Name: name, Origin: OriginUser, Extra: make(map[string]string)}
	for k, v := range props {
		switch k {
		case "type":
			d.Type = v
		case "source":
			d.Source = v
		case "path":
			d.Path = v
		default:
			d.Extra[k] = v
		}
	}
	return d
}

// Props renders the device as an Incus property map.
func (d Device) Props() map[string]string {
	props := make(map[string]string, len(d.Extra)+5)
	for k, v := range d.Extra {
		props[k] = v
	}
	if d.Type != "" {
		props["type"] = d.Type
	}
	if d.Source != "" {
		props["source"] = d.Source
	}
	if d.Path != "" {
		props["path"] = d.Path
	}
	if d.Shift {
		props["shift"] = "true"
	}
	if d.ReadOnly {
		props["readonly"] = "true"
	}
	return props
}
