package validate

import (
	"strings"
	"testing"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// validSpec returns an enriched specification with no errors.
func validSpec(t *testing.T) *model.Specification {
	t.Helper()
	spec := model.NewSpecification()
	spec.ProjectName = "lab"
	spec.Global.Addressing = &model.Addressing{BaseOctet: model.NewInt(10), ZoneBase: model.NewInt(100)}
	spec.Domains["admin"] = &model.Domain{
		TrustLevel: model.TrustAdmin,
		Machines:   model.MachineList{{Name: "admin-ctl", Roles: []string{"base_system"}}},
	}
	spec.Domains["pro"] = &model.Domain{
		TrustLevel: model.TrustTrusted,
		SubnetID:   model.NewInt(2),
		Profiles:   map[string]model.Profile{"desktop": {Config: map[string]string{"limits.memory": "4GiB"}}},
		Machines: model.MachineList{
			{Name: "pro-dev", Profiles: []string{"default", "desktop"}, Config: map[string]string{"limits.memory": "2GiB"}},
			{Name: "pro-desk", PersistentData: map[string]model.PersistentVolume{"home": {Path: "/home/user"}}},
		},
	}
	spec.SharedVolumes["docs"] = &model.SharedVolume{Consumers: map[string]string{"pro": "rw", "admin-ctl": "ro"}}
	spec.NetworkPolicies = []model.NetworkPolicy{
		{From: "admin", To: "pro", Ports: model.PortList(22)},
		{From: "pro-dev", To: model.HostEndpoint, Ports: model.AllPorts(), Protocol: "udp"},
	}
	spec.StampNames()
	_, err := addressing.Enrich(spec)
	require.NoError(t, err)
	resources.Enrich(spec, hostinfo.Resources{}, false)
	return spec
}

func TestValidSpecHasNoErrors(t *testing.T) {
	assert.Empty(t, Run(validSpec(t), Options{}))
}

func TestRulesAreRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, r := range Rules() {
		names[r.Name] = true
	}
	for _, want := range []string{"project", "naming", "types", "addressing", "machine-ips",
		"shared-volumes", "persistent-data", "devices", "profiles", "memory", "lifecycle",
		"network-policies", "gpu", "privileged", "ai-access"} {
		assert.True(t, names[want], want)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *model.Specification)
		want   string
	}{
		{
			name:   "missing project name",
			mutate: func(s *model.Specification) { s.ProjectName = "" },
			want:   "project_name is required",
		},
		{
			name: "invalid domain name",
			mutate: func(s *model.Specification) {
				s.Domains["Bad_Name"] = &model.Domain{Name: "Bad_Name", TrustLevel: model.TrustUntrusted}
			},
			want: `domain "Bad_Name": name must match`,
		},
		{
			name: "duplicate machine name",
			mutate: func(s *model.Specification) {
				s.Domains["admin"].Machines = append(s.Domains["admin"].Machines, &model.Machine{Name: "pro-dev", Domain: "admin"})
			},
			want: `machine "pro-dev" is defined in both domain "admin" and domain "pro"`,
		},
		{
			name: "machine name with path elements",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines = append(s.Domains["pro"].Machines, &model.Machine{Name: "../../escaped", Domain: "pro"})
			},
			want: `machine "../../escaped" (domain "pro"): name must match`,
		},
		{
			name: "machine name with uppercase and dot",
			mutate: func(s *model.Specification) {
				s.Domains["admin"].Machines[0].Name = "Bad_Name.x"
			},
			want: `machine "Bad_Name.x" (domain "admin"): name must match`,
		},
		{
			name:   "string boolean",
			mutate: func(s *model.Specification) { s.Domains["pro"].Enabled = model.RawFlag("yes") },
			want:   `domain "pro": enabled must be a boolean (true/false), got "yes"`,
		},
		{
			name:   "quoted boolean on machine",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].GPU = model.RawFlag("true") },
			want:   `machine "pro-dev" (domain "pro"): gpu must be a boolean`,
		},
		{
			name:   "unknown trust level",
			mutate: func(s *model.Specification) { s.Domains["pro"].TrustLevel = "friendly" },
			want:   `trust_level must be one of`,
		},
		{
			name:   "ai sanitize keyword",
			mutate: func(s *model.Specification) { s.Domains["pro"].AISanitize = model.NewScalar("sometimes") },
			want:   `ai_sanitize must be one of [true false always], got "sometimes"`,
		},
		{
			name:   "instance type",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].Type = "docker" },
			want:   `type must be one of [lxc vm], got "docker"`,
		},
		{
			name:   "subnet id out of range",
			mutate: func(s *model.Specification) { s.Domains["pro"].SubnetID = model.NewInt(300) },
			want:   `domain "pro": subnet_id must be an integer in [0,254], got "300"`,
		},
		{
			name:   "subnet id not an integer",
			mutate: func(s *model.Specification) { s.Domains["pro"].SubnetID = model.RawInt("two") },
			want:   `subnet_id must be an integer in [0,254], got "two"`,
		},
		{
			name: "duplicate subnet id in zone",
			mutate: func(s *model.Specification) {
				s.Domains["perso"] = &model.Domain{Name: "perso", TrustLevel: model.TrustTrusted, SubnetID: model.NewInt(2)}
			},
			want: `subnet_id 2 already used by domain "perso" in zone trusted`,
		},
		{
			name:   "base octet",
			mutate: func(s *model.Specification) { s.Global.Addressing.BaseOctet = model.NewInt(172) },
			want:   `base_octet must be 10, got "172"`,
		},
		{
			name:   "zone base",
			mutate: func(s *model.Specification) { s.Global.Addressing.ZoneBase = model.NewInt(250) },
			want:   `zone_base must be an integer in [0,205], got "250"`,
		},
		{
			name:   "legacy mode requires subnet id",
			mutate: func(s *model.Specification) { s.Global.Addressing = nil },
			want:   `domain "admin": subnet_id is required`,
		},
		{
			name:   "invalid ip",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].IP = "10.110.2.300" },
			want:   `ip "10.110.2.300" is not a valid IPv4 address`,
		},
		{
			name:   "ip outside subnet",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].IP = "10.120.2.5" },
			want:   `ip 10.120.2.5 is outside the domain subnet 10.110.2.0/24`,
		},
		{
			name:   "duplicate ip",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[1].IP = s.Domains["pro"].Machines[0].IP },
			want:   `is already used by machine "pro-dev"`,
		},
		{
			name: "persistent path relative",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines[1].PersistentData["home"] = model.PersistentVolume{Path: "home"}
			},
			want: `persistent_data "home": path must be an absolute path`,
		},
		{
			name: "persistent path missing",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines[1].PersistentData["cache"] = model.PersistentVolume{}
			},
			want: `persistent_data "cache": path is required`,
		},
		{
			name:   "unknown consumer",
			mutate: func(s *model.Specification) { s.SharedVolumes["docs"].Consumers["ghost"] = "ro" },
			want:   `shared volume "docs": consumer "ghost" is neither a domain nor a machine`,
		},
		{
			name:   "bad access",
			mutate: func(s *model.Specification) { s.SharedVolumes["docs"].Consumers["pro"] = "write" },
			want:   `consumer "pro": access must be ro or rw, got "write"`,
		},
		{
			name: "shared volume collision",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines[0].Devices = map[string]map[string]string{"sv-docs": {"type": "disk"}}
			},
			want: `device "sv-docs" collides with shared volume "docs"`,
		},
		{
			name: "reserved prefix",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines[0].Devices = map[string]map[string]string{"pd-scratch": {"type": "disk"}}
			},
			want: `device "pd-scratch" uses a reserved prefix`,
		},
		{
			name:   "undefined profile",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].Profiles = []string{"gaming"} },
			want:   `profile "gaming" is not defined in domain "pro"`,
		},
		{
			name:   "bad memory",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].Config["limits.memory"] = "lots" },
			want:   `limits.memory "lots" is not a valid size`,
		},
		{
			name:   "bad memory in profile",
			mutate: func(s *model.Specification) { s.Domains["pro"].Profiles["desktop"].Config["limits.memory"] = "0" },
			want:   `profile "desktop": limits.memory "0" is not a valid size`,
		},
		{
			name:   "bad enforce",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].Config["limits.memory.enforce"] = "strict" },
			want:   `limits.memory.enforce must be one of [soft hard]`,
		},
		{
			name:   "boot priority",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].BootPriority = model.NewInt(101) },
			want:   `boot_priority must be an integer in [0,100], got "101"`,
		},
		{
			name:   "snapshot schedule",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].SnapshotsSchedule = "0 3 * *" },
			want:   `snapshots_schedule "0 3 * *" must have five cron fields`,
		},
		{
			name:   "snapshot expiry",
			mutate: func(s *model.Specification) { s.Domains["pro"].Machines[0].SnapshotsExpiry = "two weeks" },
			want:   `snapshots_expiry "two weeks" must look like 30d`,
		},
		{
			name:   "unknown policy endpoint",
			mutate: func(s *model.Specification) { s.NetworkPolicies[0].To = "nowhere" },
			want:   `network_policies[0]: to "nowhere" is not a known domain, machine or "host"`,
		},
		{
			name:   "port out of range",
			mutate: func(s *model.Specification) { s.NetworkPolicies[0].Ports = model.PortList(0, 70000) },
			want:   `network_policies[0]: port "70000" must be an integer in [1,65535]`,
		},
		{
			name:   "malformed ports",
			mutate: func(s *model.Specification) { s.NetworkPolicies[0] = withPorts(s.NetworkPolicies[0], "ports: some") },
			want:   `ports must be "all" or a list of port numbers, got "some"`,
		},
		{
			name:   "protocol",
			mutate: func(s *model.Specification) { s.NetworkPolicies[1].Protocol = "icmp" },
			want:   `protocol must be one of [tcp udp], got "icmp"`,
		},
		{
			name:   "gpu policy enum",
			mutate: func(s *model.Specification) { s.Global.GPUPolicy = "fair" },
			want:   `global: gpu_policy must be one of [exclusive shared]`,
		},
		{
			name: "resource policy mode",
			mutate: func(s *model.Specification) {
				s.Global.ResourcePolicy = &model.ResourcePolicy{Mode: "random", HostReserve: model.HostReserve{Memory: "plenty"}}
			},
			want: `global.resource_policy: mode must be one of [proportional equal]`,
		},
		{
			name: "exclusive gpu",
			mutate: func(s *model.Specification) {
				s.Domains["pro"].Machines[0].GPU = model.NewFlag(true)
				s.Domains["pro"].Machines[1].Devices = map[string]map[string]string{"gpu0": {"type": "gpu"}}
			},
			want: `gpu_policy exclusive allows one GPU instance, found 2: pro-dev, pro-desk`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec(t)
			tt.mutate(spec)
			errs := Run(spec, Options{})
			assert.True(t, containsError(errs, tt.want), "want %q in %v", tt.want, errs)
		})
	}
}

func TestRunReportsEveryRule(t *testing.T) {
	spec := validSpec(t)
	spec.Domains["Bad_Name"] = &model.Domain{Name: "Bad_Name", TrustLevel: model.TrustUntrusted}
	spec.Domains["pro"].SubnetID = model.NewInt(300)
	spec.NetworkPolicies[0].To = "nowhere"
	m, _ := spec.FindMachine("pro-desk")
	m.Devices = map[string]map[string]string{"pd-home": {"type": "disk"}}

	errs := Run(spec, Options{})
	for _, want := range []string{
		`domain "Bad_Name": name must match`,
		`domain "pro": subnet_id must be an integer in [0,254], got "300"`,
		`network_policies[0]: to "nowhere" is not a known domain, machine or "host"`,
		`device "pd-home" collides with persistent_data volume "home"`,
	} {
		assert.True(t, containsError(errs, want), "want %q in %v", want, errs)
	}
}

func TestPersistentDeviceCollision(t *testing.T) {
	spec := validSpec(t)
	m, _ := spec.FindMachine("pro-desk")
	m.PersistentData["x"] = model.PersistentVolume{Path: "/srv/x"}
	m.Devices = map[string]map[string]string{"pd-x": {"type": "disk", "source": "/tmp", "path": "/srv/x"}}
	resources.Enrich(spec, hostinfo.Resources{}, false)

	errs := Run(spec, Options{})
	assert.Contains(t, errs, `machine "pro-desk" (domain "pro"): device "pd-x" collides with persistent_data volume "x"`)
	assert.False(t, containsError(errs, "reserved prefix"), "a collision is reported once")
}

func TestCollisionWithoutEnrichment(t *testing.T) {
	spec := validSpec(t)
	spec.SharedDevices, spec.PersistentDevices = nil, nil
	m, _ := spec.FindMachine("pro-desk")
	m.Devices = map[string]map[string]string{"pd-home": {"type": "disk"}}

	assert.True(t, containsError(Run(spec, Options{}), `device "pd-home" collides with persistent_data volume "home"`))
}

func TestPrivilegedContainer(t *testing.T) {
	spec := validSpec(t)
	spec.Domains["pro"].Machines[0].Config["security.privileged"] = "true"
	want := `machine "pro-dev" (domain "pro"): privileged container without VM isolation`

	assert.True(t, containsError(Run(spec, Options{}), want))
	assert.False(t, containsError(Run(spec, Options{Context: hostinfo.Context{VMNested: true}}), want))
	assert.False(t, containsError(Run(spec, Options{Context: hostinfo.Context{Relaxed: true}}), want))

	spec.Domains["pro"].Machines[0].Type = model.InstanceVM
	assert.False(t, containsError(Run(spec, Options{}), want))
}

func TestPrivilegedThroughProfile(t *testing.T) {
	spec := validSpec(t)
	spec.Domains["pro"].Profiles["desktop"].Config["security.privileged"] = "true"
	assert.True(t, containsError(Run(spec, Options{}), `machine "pro-dev" (domain "pro"): privileged container`))
}

func TestExclusiveAIAccess(t *testing.T) {
	spec := validSpec(t)
	spec.Global.AIAccessPolicy = AIAccessExclusive
	spec.Global.AIAccessDefault = "pro"

	errs := Run(spec, Options{})
	require.NotEmpty(t, errs)
	assert.True(t, containsError(errs, `requires a domain named "ai-tools"`), "%v", errs)

	spec.Domains["ai-tools"] = &model.Domain{Name: "ai-tools", TrustLevel: model.TrustTrusted,
		Machines: model.MachineList{{Name: "llm", Domain: "ai-tools"}}}
	assert.Empty(t, Run(spec, Options{}))

	spec.NetworkPolicies = append(spec.NetworkPolicies,
		model.NetworkPolicy{From: "pro", To: "ai-tools", Ports: model.PortList(11434)},
		model.NetworkPolicy{From: "admin", To: "llm", Ports: model.PortList(11434)},
	)
	assert.True(t, containsError(Run(spec, Options{}), `allows one network policy to "ai-tools", found 2`))

	spec.Global.AIAccessDefault = ""
	assert.True(t, containsError(Run(spec, Options{}), "requires ai_access_default"))
	spec.Global.AIAccessDefault = "ai-tools"
	assert.True(t, containsError(Run(spec, Options{}), `ai_access_default cannot be "ai-tools"`))
}

func TestRunDoesNotMutate(t *testing.T) {
	spec := validSpec(t)
	spec.SharedDevices, spec.PersistentDevices = nil, nil
	Run(spec, Options{})
	assert.Nil(t, spec.SharedDevices)
	assert.Nil(t, spec.PersistentDevices)
}

func withPorts(p model.NetworkPolicy, doc string) model.NetworkPolicy {
	if err := yaml.Unmarshal([]byte(doc), &p); err != nil {
		panic(err)
	}
	return p
}

func containsError(errs []string, want string) bool {
	for _, e := range errs {
		if strings.Contains(e, want) {
			return true
		}
	}
	return false
}
