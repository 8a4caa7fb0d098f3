package model

// Network policy protocols.
const (
	ProtocolTCP = "tcp"
	ProtocolUDP = "udp"
)

// NetworkPolicy allows traffic between two endpoints. Endpoints are domain
// names, machine names or HostEndpoint.
type NetworkPolicy struct {
	Description   string `yaml:"description"`
	From          string `yaml:"from"`
	To            string `yaml:"to"`
	Ports         Ports  `yaml:"ports"`
	Protocol      string `yaml:"protocol"`
	Bidirectional Flag   `yaml:"bidirectional"`
}

// ProtocolOrDefault returns the protocol, defaulting to tcp.
func (p NetworkPolicy) ProtocolOrDefault() string {
	if p.Protocol == "" {
		return ProtocolTCP
	}
	return p.Protocol
}

// Reaches reports whether the policy grants access to the machine, either
// by naming it or its domain. Bidirectional policies count in both directions.
func (p NetworkPolicy) Reaches(machine, domain string) bool {
	if p.To == machine || p.To == domain {
		return true
	}
	if p.Bidirectional.Value(false) {
		return p.From == machine || p.From == domain
	}
	return false
}
