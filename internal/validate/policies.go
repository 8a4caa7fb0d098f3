package validate

import (
	"fmt"

	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Port bounds for network policies.
const (
	MinPort = 1
	MaxPort = 65535
)

func init() {
	Register(Rule{Name: "network-policies", Check: checkNetworkPolicies})
}

func policyRef(i int, p model.NetworkPolicy) string {
	if p.Description != "" {
		return fmt.Sprintf("network_policies[%d] (%s)", i, p.Description)
	}
	return fmt.Sprintf("network_policies[%d]", i)
}

func checkNetworkPolicies(spec *model.Specification, _ Options, r *Report) {
	for i, p := range spec.NetworkPolicies {
		where := policyRef(i, p)

		for _, ep := range []struct{ field, value string }{{"from", p.From}, {"to", p.To}} {
			switch {
			case ep.value == "":
				r.Addf("%s: %s is required", where, ep.field)
			case !spec.IsKnownEndpoint(ep.value):
				r.Addf("%s: %s %q is not a known domain, machine or %q", where, ep.field, ep.value, model.HostEndpoint)
			}
		}

		checkEnum(r, where, "protocol", p.Protocol, model.ProtocolTCP, model.ProtocolUDP)

		if raw, bad := p.Ports.Malformed(); bad {
			r.Addf("%s: ports must be \"all\" or a list of port numbers, got %q", where, raw)
		}
		for _, port := range p.Ports.List {
			if v, ok := port.Get(); !ok || v < MinPort || v > MaxPort {
				r.Addf("%s: port %q must be an integer in [%d,%d]", where, port.Raw(), MinPort, MaxPort)
			}
		}
	}
}
