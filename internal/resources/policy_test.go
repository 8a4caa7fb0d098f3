package resources

import (
	"testing"

	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostResources(cpus int, mem uint64) hostinfo.Resources {
	return hostinfo.Resources{CPUs: cpus, MemoryBytes: mem}
}

func policySpec(policy *model.ResourcePolicy) *model.Specification {
	spec := model.NewSpecification()
	spec.Global.ResourcePolicy = policy
	spec.Domains["pro"] = &model.Domain{Machines: model.MachineList{
		{Name: "big", Weight: model.NewInt(3)},
		{Name: "small"},
		{Name: "fixed", Config: map[string]string{KeyCPU: "2", KeyMemory: "4GiB"}},
	}}
	spec.Domains["off"] = &model.Domain{Enabled: model.NewFlag(false), Machines: model.MachineList{{Name: "idle"}}}
	spec.StampNames()
	return spec
}

func TestAllocateProportionalAllowance(t *testing.T) {
	spec := policySpec(&model.ResourcePolicy{HostReserve: model.HostReserve{CPU: "2", Memory: "4GiB"}})
	allocs := AllocateResources(spec, hostResources(12, 24<<30))
	require.Len(t, allocs, 2)

	big, _ := spec.FindMachine("big")
	small, _ := spec.FindMachine("small")

	// 12 CPUs - 2 reserved - 2 explicit = 8, split 3:1.
	assert.Equal(t, "50%", big.Config[KeyCPUAllowance])
	assert.Equal(t, "16%", small.Config[KeyCPUAllowance])
	// 24GiB - 4GiB reserved - 4GiB explicit = 16GiB, split 3:1.
	assert.Equal(t, "12GiB", big.Config[KeyMemory])
	assert.Equal(t, "4GiB", small.Config[KeyMemory])

	fixed, _ := spec.FindMachine("fixed")
	assert.Equal(t, "2", fixed.Config[KeyCPU])
	_, ok := fixed.Config[KeyCPUAllowance]
	assert.False(t, ok)

	idle, _ := spec.FindMachine("idle")
	assert.Empty(t, idle.Config)
}

func TestAllocateEqualCount(t *testing.T) {
	spec := policySpec(&model.ResourcePolicy{
		HostReserve: model.HostReserve{CPU: "0%", Memory: "0%"},
		Mode:        ModeEqual,
		CPUMode:     CPUModeCount,
	})
	AllocateResources(spec, hostResources(10, 12<<30))

	big, _ := spec.FindMachine("big")
	small, _ := spec.FindMachine("small")
	assert.Equal(t, "4", big.Config[KeyCPU])
	assert.Equal(t, "4", small.Config[KeyCPU])
	assert.Equal(t, "4GiB", big.Config[KeyMemory])
}

func TestAllocateWithoutPolicy(t *testing.T) {
	spec := policySpec(nil)
	assert.Nil(t, AllocateResources(spec, hostResources(8, 8<<30)))
}

func TestEnrichAppliesMemoryDefaults(t *testing.T) {
	spec := policySpec(nil)
	spec.Domains["pro"].Profiles = map[string]model.Profile{
		"heavy": {Config: map[string]string{KeyMemory: "8GiB"}},
		"hard":  {Config: map[string]string{KeyMemory: "1GiB", KeyMemoryEnforce: EnforceHard}},
	}
	Enrich(spec, hostinfo.Resources{}, false)

	fixed, _ := spec.FindMachine("fixed")
	assert.Equal(t, EnforceSoft, fixed.Config[KeyMemoryEnforce])
	assert.Equal(t, EnforceSoft, spec.Domains["pro"].Profiles["heavy"].Config[KeyMemoryEnforce])
	assert.Equal(t, EnforceHard, spec.Domains["pro"].Profiles["hard"].Config[KeyMemoryEnforce])

	small, _ := spec.FindMachine("small")
	_, ok := small.Config[KeyMemoryEnforce]
	assert.False(t, ok)
	assert.NotNil(t, spec.SharedDevices)
	assert.NotNil(t, spec.PersistentDevices)
}

func TestEnrichUsesPolicyEnforce(t *testing.T) {
	spec := policySpec(&model.ResourcePolicy{MemoryEnforce: EnforceHard})
	Enrich(spec, hostResources(8, 32<<30), true)

	small, _ := spec.FindMachine("small")
	assert.NotEmpty(t, small.Config[KeyMemory])
	assert.Equal(t, EnforceHard, small.Config[KeyMemoryEnforce])
}

func TestValidReserve(t *testing.T) {
	assert.True(t, ValidReserve("", false))
	assert.True(t, ValidReserve("20%", true))
	assert.True(t, ValidReserve("2", false))
	assert.True(t, ValidReserve("0-3", false))
	assert.True(t, ValidReserve("4GiB", true))
	assert.False(t, ValidReserve("150%", false))
	assert.False(t, ValidReserve("lots", true))
}
