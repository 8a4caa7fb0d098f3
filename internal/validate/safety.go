package validate

import (
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Policy values checked here.
const (
	GPUPolicyExclusive = "exclusive"
	GPUPolicyShared    = "shared"
	AIAccessExclusive  = "exclusive"
)

func init() {
	Register(Rule{Name: "gpu", Check: checkGPU})
	Register(Rule{Name: "privileged", Check: checkPrivileged})
	Register(Rule{Name: "ai-access", Check: checkAIAccess})
}

func checkGPU(spec *model.Specification, _ Options, r *Report) {
	if spec.Global.GPUPolicyOrDefault() != GPUPolicyExclusive {
		return
	}
	gpus := spec.GPUMachines()
	if len(gpus) <= 1 {
		return
	}
	names := make([]string, len(gpus))
	for i, m := range gpus {
		names[i] = m.Name
	}
	r.Addf("gpu_policy exclusive allows one GPU instance, found %d: %s (set gpu_policy: shared to allow sharing)",
		len(gpus), strings.Join(names, ", "))
}

// checkPrivileged rejects privileged containers unless an ancestor VM
// isolates them from the physical host, or relaxed mode is active.
func checkPrivileged(spec *model.Specification, opts Options, r *Report) {
	if opts.Context.VMNested || opts.Context.Relaxed {
		return
	}
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		for _, m := range d.Machines {
			if m.IsPrivileged(d) {
				r.Addf("%s: privileged container without VM isolation; use type vm or run inside a VM", machineRef(m))
			}
		}
	}
}

func checkAIAccess(spec *model.Specification, _ Options, r *Report) {
	g := spec.Global
	if g.AIAccessPolicyOrDefault() != AIAccessExclusive {
		return
	}

	switch def := g.AIAccessDefault; {
	case def == "":
		r.Addf("global: ai_access_policy exclusive requires ai_access_default")
	case def == model.AIToolsDomain:
		r.Addf("global: ai_access_default cannot be %q itself", model.AIToolsDomain)
	default:
		if _, ok := spec.Domains[def]; !ok {
			r.Addf("global: ai_access_default %q is not a defined domain", def)
		}
	}

	tools, ok := spec.Domains[model.AIToolsDomain]
	if !ok {
		r.Addf("global: ai_access_policy exclusive requires a domain named %q", model.AIToolsDomain)
		return
	}

	targeting := 0
	for _, p := range spec.NetworkPolicies {
		if p.To == tools.Name || tools.Machine(p.To) != nil {
			targeting++
		}
	}
	if targeting > 1 {
		r.Addf("global: ai_access_policy exclusive allows one network policy to %q, found %d", model.AIToolsDomain, targeting)
	}
}
