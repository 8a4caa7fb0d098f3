package model

import "sort"

// Defaults applied when the specification leaves a global unset.
const (
	DefaultBaseSubnet         = "10.100"
	DefaultBaseOctet          = 10
	DefaultZoneBase           = 100
	DefaultOSImage            = "images:debian/13"
	DefaultConnection         = "community.general.incus"
	DefaultUser               = "root"
	DefaultSharedVolumesBase  = "/srv/domainforge/shares"
	DefaultPersistentDataBase = "/srv/domainforge/data"
)

// HostEndpoint is the network-policy keyword for the physical host.
const HostEndpoint = "host"

// AIToolsDomain is the domain that hosts shared AI services.
const AIToolsDomain = "ai-tools"

// Specification is the root of the merged infrastructure description.
type Specification struct {
	ProjectName     string                   `yaml:"project_name"`
	Global          Global                   `yaml:"global"`
	Domains         map[string]*Domain       `yaml:"domains"`
	SharedVolumes   map[string]*SharedVolume `yaml:"shared_volumes"`
	NetworkPolicies []NetworkPolicy          `yaml:"network_policies"`

	// Synthesized by enrichment, keyed by machine then device name.
	SharedDevices     map[string]map[string]Device `yaml:"-"`
	PersistentDevices map[string]map[string]Device `yaml:"-"`
}

// Global holds project-wide settings.
type Global struct {
	BaseSubnet         string          `yaml:"base_subnet"`
	Addressing         *Addressing     `yaml:"addressing"`
	DefaultOSImage     string          `yaml:"default_os_image"`
	DefaultConnection  string          `yaml:"default_connection"`
	DefaultUser        string          `yaml:"default_user"`
	GPUPolicy          string          `yaml:"gpu_policy"`
	AIAccessPolicy     string          `yaml:"ai_access_policy"`
	AIAccessDefault    string          `yaml:"ai_access_default"`
	NestingPrefix      Flag            `yaml:"nesting_prefix"`
	SharedVolumesBase  string          `yaml:"shared_volumes_base"`
	PersistentDataBase string          `yaml:"persistent_data_base"`
	ResourcePolicy     *ResourcePolicy `yaml:"resource_policy"`
}

// Addressing enables zone-based subnet allocation when present.
type Addressing struct {
	BaseOctet Int `yaml:"base_octet"`
	ZoneBase  Int `yaml:"zone_base"`
}

// ResourcePolicy drives automatic CPU and memory allocation.
type ResourcePolicy struct {
	HostReserve   HostReserve `yaml:"host_reserve"`
	Mode          string      `yaml:"mode"`
	CPUMode       string      `yaml:"cpu_mode"`
	MemoryEnforce string      `yaml:"memory_enforce"`
	Overcommit    Flag        `yaml:"overcommit"`
}

// HostReserve is the share of host capacity kept out of allocation.
// Values are percentages ("20%") or absolute amounts ("2", "4GiB").
type HostReserve struct {
	CPU    string `yaml:"cpu"`
	Memory string `yaml:"memory"`
}

// NewSpecification returns an empty specification with initialized maps.
func NewSpecification() *Specification {
	return &Specification{
		Domains:       make(map[string]*Domain),
		SharedVolumes: make(map[string]*SharedVolume),
	}
}

// ZoneAddressing reports whether zone-based addressing is active.
func (s *Specification) ZoneAddressing() bool {
	return s.Global.Addressing != nil
}

// BaseOctet returns the configured first octet, falling back to the default.
func (g Global) BaseOctet() int {
	if g.Addressing != nil {
		if v, ok := g.Addressing.BaseOctet.Get(); ok {
			return v
		}
	}
	return DefaultBaseOctet
}

// ZoneBase returns the configured zone base, falling back to the default.
func (g Global) ZoneBase() int {
	if g.Addressing != nil {
		if v, ok := g.Addressing.ZoneBase.Get(); ok {
			return v
		}
	}
	return DefaultZoneBase
}

func (g Global) BaseSubnetOrDefault() string {
	if g.BaseSubnet != "" {
		return g.BaseSubnet
	}
	return DefaultBaseSubnet
}

func (g Global) OSImage() string {
	if g.DefaultOSImage != "" {
		return g.DefaultOSImage
	}
	return DefaultOSImage
}

func (g Global) Connection() string {
	if g.DefaultConnection != "" {
		return g.DefaultConnection
	}
	return DefaultConnection
}

func (g Global) User() string {
	if g.DefaultUser != "" {
		return g.DefaultUser
	}
	return DefaultUser
}

func (g Global) GPUPolicyOrDefault() string {
	if g.GPUPolicy != "" {
		return g.GPUPolicy
	}
	return "exclusive"
}

func (g Global) AIAccessPolicyOrDefault() string {
	if g.AIAccessPolicy != "" {
		return g.AIAccessPolicy
	}
	return "open"
}

func (g Global) SharedVolumesBaseOrDefault() string {
	if g.SharedVolumesBase != "" {
		return g.SharedVolumesBase
	}
	return DefaultSharedVolumesBase
}

func (g Global) PersistentDataBaseOrDefault() string {
	if g.PersistentDataBase != "" {
		return g.PersistentDataBase
	}
	return DefaultPersistentDataBase
}

// DomainNames returns domain names in sorted order.
func (s *Specification) DomainNames() []string {
	names := make([]string, 0, len(s.Domains))
	for name := range s.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Machines returns every machine, domains in sorted order and machines in
// declaration order within a domain.
func (s *Specification) Machines() []*Machine {
	var out []*Machine
	for _, name := range s.DomainNames() {
		out = append(out, s.Domains[name].Machines...)
	}
	return out
}

// FindMachine looks a machine up by name across all domains.
func (s *Specification) FindMachine(name string) (*Machine, *Domain) {
	for _, dname := range s.DomainNames() {
		d := s.Domains[dname]
		if m := d.Machine(name); m != nil {
			return m, d
		}
	}
	return nil, nil
}

// EnabledMachines returns the machines of enabled domains, in Machines order.
func (s *Specification) EnabledMachines() []*Machine {
	var out []*Machine
	for _, name := range s.DomainNames() {
		if d := s.Domains[name]; d.IsEnabled() {
			out = append(out, d.Machines...)
		}
	}
	return out
}

// GPUMachines returns enabled machines that request a GPU.
func (s *Specification) GPUMachines() []*Machine {
	var out []*Machine
	for _, m := range s.EnabledMachines() {
		if m.HasGPU() {
			out = append(out, m)
		}
	}
	return out
}

// IsKnownEndpoint reports whether name is a domain, a machine or the host.
func (s *Specification) IsKnownEndpoint(name string) bool {
	if name == HostEndpoint {
		return true
	}
	if _, ok := s.Domains[name]; ok {
		return true
	}
	m, _ := s.FindMachine(name)
	return m != nil
}

// StampNames copies map keys into the Name fields and links machines to
// their domain. The loader calls it after merging.
func (s *Specification) StampNames() {
	for name, d := range s.Domains {
		if d == nil {
			d = &Domain{}
			s.Domains[name] = d
		}
		d.Name = name
		for _, m := range d.Machines {
			m.Domain = name
		}
	}
	for name, v := range s.SharedVolumes {
		if v == nil {
			v = &SharedVolume{}
			s.SharedVolumes[name] = v
		}
		v.Name = name
	}
}
