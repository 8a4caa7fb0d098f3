// Package warnings reports questionable but valid configurations. Warnings
// never block generation.
package warnings

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/dustin/go-humanize"
)

// ExposedAIRoles are roles whose service is useless unless some network
// policy lets clients reach it.
var ExposedAIRoles = []string{"ollama_server", "stt_server"}

// Options carries the run context and the host probe. A nil Prober skips
// host cross-checks.
type Options struct {
	Context hostinfo.Context
	Prober  hostinfo.Prober
	Ctx     context.Context
}

// Get returns every warning for spec, in a stable order.
func Get(spec *model.Specification, opts Options) []string {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var out []string
	out = append(out, privileged(spec, opts.Context)...)
	out = append(out, sharedGPU(spec)...)
	out = append(out, disabledReferences(spec)...)
	out = append(out, unreachableAI(spec)...)
	if opts.Prober != nil {
		out = append(out, subnetConflicts(spec, opts.Prober.Subnets(ctx))...)
		if host, ok := opts.Prober.Resources(ctx); ok {
			out = append(out, overcommit(spec, host)...)
		}
	}
	return out
}

func privileged(spec *model.Specification, c hostinfo.Context) []string {
	if !c.Relaxed || c.VMNested {
		return nil
	}
	var out []string
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		for _, m := range d.Machines {
			if m.IsPrivileged(d) {
				out = append(out, fmt.Sprintf("machine %q (domain %q): privileged container without VM isolation, allowed by relaxed mode", m.Name, d.Name))
			}
		}
	}
	return out
}

func sharedGPU(spec *model.Specification) []string {
	if spec.Global.GPUPolicyOrDefault() != "shared" {
		return nil
	}
	gpus := spec.GPUMachines()
	if len(gpus) <= 1 {
		return nil
	}
	names := make([]string, len(gpus))
	for i, m := range gpus {
		names[i] = m.Name
	}
	return []string{fmt.Sprintf("gpu_policy shared: %d instances share the GPU without isolation (%s)", len(gpus), strings.Join(names, ", "))}
}

func disabledReferences(spec *model.Specification) []string {
	var out []string
	for i, p := range spec.NetworkPolicies {
		for _, ep := range []struct{ field, value string }{{"from", p.From}, {"to", p.To}} {
			if d, ok := spec.Domains[ep.value]; ok && !d.IsEnabled() {
				out = append(out, fmt.Sprintf("network_policies[%d]: %s references disabled domain %q", i, ep.field, d.Name))
			}
		}
	}
	return out
}

func unreachableAI(spec *model.Specification) []string {
	var out []string
	for _, m := range spec.Machines() {
		for _, role := range ExposedAIRoles {
			if !m.HasRole(role) {
				continue
			}
			reached := false
			for _, p := range spec.NetworkPolicies {
				if p.Reaches(m.Name, m.Domain) {
					reached = true
					break
				}
			}
			if !reached {
				out = append(out, fmt.Sprintf("machine %q (domain %q): role %s is not reachable, no network policy targets it or its domain", m.Name, m.Domain, role))
			}
		}
	}
	return out
}

func subnetConflicts(spec *model.Specification, host []netip.Prefix) []string {
	if len(host) == 0 {
		return nil
	}
	zones := addressing.Compute(spec)
	var out []string
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		if !d.IsEnabled() {
			continue
		}
		prefix, ok := addressing.SubnetPrefix(spec, d, zones)
		if !ok {
			continue
		}
		network, err := addressing.Network(prefix)
		if err != nil {
			continue
		}
		for _, h := range host {
			if network.Overlaps(h) {
				out = append(out, fmt.Sprintf("domain %q: subnet %s overlaps host network %s", name, network, h))
			}
		}
	}
	return out
}

func overcommit(spec *model.Specification, host hostinfo.Resources) []string {
	if p := spec.Global.ResourcePolicy; p != nil && p.Overcommit.Value(false) {
		return nil
	}

	var cpus float64
	var memory uint64
	for _, m := range spec.EnabledMachines() {
		if v, ok := m.Config[resources.KeyCPU]; ok {
			if n, ok := resources.CPUCount(v); ok {
				cpus += n
			}
		}
		memory += resources.ParseMemory(m.Config[resources.KeyMemory])
	}

	var out []string
	if host.CPUs > 0 && cpus > float64(host.CPUs) {
		out = append(out, fmt.Sprintf("explicit limits.cpu total %g exceeds the %d host CPUs (set resource_policy.overcommit: true to silence)", cpus, host.CPUs))
	}
	if host.MemoryBytes > 0 && memory > host.MemoryBytes {
		out = append(out, fmt.Sprintf("explicit limits.memory total %s exceeds host memory %s (set resource_policy.overcommit: true to silence)",
			humanize.IBytes(memory), humanize.IBytes(host.MemoryBytes)))
	}
	return out
}
