package resources

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Resource policy values.
const (
	ModeProportional   = "proportional"
	ModeEqual          = "equal"
	CPUModeAllowance   = "allowance"
	CPUModeCount       = "count"
	DefaultHostReserve = "20%"
)

// minAllocatedMemory is the floor for an automatically sized instance.
const minAllocatedMemory = 64 * 1024 * 1024

// Allocation records limits written by AllocateResources.
type Allocation struct {
	Machine string
	CPU     string
	Memory  string
}

// AllocateResources shares host capacity, minus the reserve and minus
// explicit limits, between machines of enabled domains that do not set
// their own limits. It does nothing without a resource policy.
func AllocateResources(spec *model.Specification, host hostinfo.Resources) []Allocation {
	policy := spec.Global.ResourcePolicy
	if policy == nil || host.CPUs <= 0 || host.MemoryBytes == 0 {
		return nil
	}

	cpuPool := float64(host.CPUs) - reserveAmount(policy.HostReserve.CPU, float64(host.CPUs), CPUCount)
	memPool := float64(host.MemoryBytes) - reserveAmount(policy.HostReserve.Memory, float64(host.MemoryBytes), parseMemoryFloat)

	var cpuTargets, memTargets []*model.Machine
	for _, m := range spec.Machines() {
		d := spec.Domains[m.Domain]
		if d == nil || !d.IsEnabled() {
			continue
		}
		if explicit, ok := explicitCPU(m); ok {
			cpuPool -= explicit
		} else {
			cpuTargets = append(cpuTargets, m)
		}
		if mem := ParseMemory(m.Config[KeyMemory]); mem > 0 {
			memPool -= float64(mem)
		} else {
			memTargets = append(memTargets, m)
		}
	}

	weight := func(m *model.Machine) float64 {
		if policy.Mode == ModeEqual {
			return 1
		}
		return float64(m.WeightOrDefault())
	}

	allocs := make(map[string]*Allocation)
	var order []string
	record := func(name string) *Allocation {
		if a, ok := allocs[name]; ok {
			return a
		}
		a := &Allocation{Machine: name}
		allocs[name] = a
		order = append(order, name)
		return a
	}

	if total := totalWeight(cpuTargets, weight); total > 0 && cpuPool > 0 {
		for _, m := range cpuTargets {
			share := cpuPool * weight(m) / total
			a := record(m.Name)
			if policy.CPUMode == CPUModeCount {
				n := int(math.Max(1, math.Floor(share)))
				m.SetConfig(KeyCPU, strconv.Itoa(n))
				a.CPU = strconv.Itoa(n)
			} else {
				pct := int(math.Max(1, math.Floor(share/float64(host.CPUs)*100)))
				m.SetConfig(KeyCPUAllowance, fmt.Sprintf("%d%%", pct))
				a.CPU = fmt.Sprintf("%d%%", pct)
			}
		}
	}

	if total := totalWeight(memTargets, weight); total > 0 && memPool > 0 {
		for _, m := range memTargets {
			share := uint64(memPool * weight(m) / total)
			share -= share % (1024 * 1024)
			if share < minAllocatedMemory {
				share = minAllocatedMemory
			}
			m.SetConfig(KeyMemory, FormatMemory(share))
			record(m.Name).Memory = FormatMemory(share)
		}
	}

	out := make([]Allocation, 0, len(order))
	for _, name := range order {
		out = append(out, *allocs[name])
	}
	return out
}

// explicitCPU returns the CPU count a machine reserves through limits.cpu,
// when it sets one.
func explicitCPU(m *model.Machine) (float64, bool) {
	if v, ok := m.Config[KeyCPU]; ok {
		if n, ok := CPUCount(v); ok {
			return n, true
		}
		return 0, true
	}
	if _, ok := m.Config[KeyCPUAllowance]; ok {
		return 0, true
	}
	return 0, false
}

// CPUCount accepts "4" or a range list such as "0-3,6".
func CPUCount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, n >= 0
	}
	count := 0
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			if _, err := strconv.Atoi(part); err != nil {
				return 0, false
			}
			count++
			continue
		}
		a, err1 := strconv.Atoi(lo)
		b, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || b < a {
			return 0, false
		}
		count += b - a + 1
	}
	return float64(count), true
}

func parseMemoryFloat(s string) (float64, bool) {
	n := ParseMemory(s)
	return float64(n), n > 0
}

// ValidReserve reports whether a host_reserve value is well formed.
func ValidReserve(s string, memory bool) bool {
	if s == "" {
		return true
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		return err == nil && v >= 0 && v < 100
	}
	if memory {
		_, ok := parseMemoryFloat(s)
		return ok
	}
	_, ok := CPUCount(s)
	return ok
}

func reserveAmount(s string, total float64, parse func(string) (float64, bool)) float64 {
	if s == "" {
		s = DefaultHostReserve
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		if v, err := strconv.ParseFloat(pct, 64); err == nil {
			return total * v / 100
		}
		return total * 0.2
	}
	if v, ok := parse(s); ok {
		return v
	}
	return total * 0.2
}

func totalWeight(ms []*model.Machine, weight func(*model.Machine) float64) float64 {
	var total float64
	for _, m := range ms {
		total += weight(m)
	}
	return total
}
