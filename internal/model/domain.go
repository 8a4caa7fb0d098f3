package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TrustLevel classifies a domain's isolation requirements.
type TrustLevel string

const (
	TrustAdmin       TrustLevel = "admin"
	TrustTrusted     TrustLevel = "trusted"
	TrustSemiTrusted TrustLevel = "semi-trusted"
	TrustUntrusted   TrustLevel = "untrusted"
	TrustDisposable  TrustLevel = "disposable"
)

// TrustLevels lists every trust level in zone order.
var TrustLevels = []TrustLevel{TrustAdmin, TrustTrusted, TrustSemiTrusted, TrustUntrusted, TrustDisposable}

// Valid reports whether t is one of the known trust levels.
func (t TrustLevel) Valid() bool {
	for _, l := range TrustLevels {
		if t == l {
			return true
		}
	}
	return false
}

// Domain groups machines that share a trust level and a subnet.
type Domain struct {
	Name        string             `yaml:"-"`
	Description string             `yaml:"description"`
	TrustLevel  TrustLevel         `yaml:"trust_level"`
	SubnetID    Int                `yaml:"subnet_id"`
	Enabled     Flag               `yaml:"enabled"`
	Ephemeral   Flag               `yaml:"ephemeral"`
	AIProvider  string             `yaml:"ai_provider"`
	AISanitize  Scalar             `yaml:"ai_sanitize"`
	Profiles    map[string]Profile `yaml:"profiles"`
	Machines    MachineList        `yaml:"machines"`
}

// Profile is a named Incus profile defined at domain level.
type Profile struct {
	Config  map[string]string            `yaml:"config,omitempty"`
	Devices map[string]map[string]string `yaml:"devices,omitempty"`
}

// Trust returns the trust level, defaulting to semi-trusted.
func (d *Domain) Trust() TrustLevel {
	if d.TrustLevel == "" {
		return TrustSemiTrusted
	}
	return d.TrustLevel
}

func (d *Domain) IsEnabled() bool   { return d.Enabled.Value(true) }
func (d *Domain) IsEphemeral() bool { return d.Ephemeral.Value(false) }

// Machine returns the named machine or nil.
func (d *Domain) Machine(name string) *Machine {
	for _, m := range d.Machines {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MachineList keeps machines in declaration order.
type MachineList []*Machine

func (l *MachineList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: machines must be a mapping of name to definition", n.Line)
	}
	out := make(MachineList, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		m := &Machine{}
		if val.ShortTag() != "!!null" {
			if err := val.Decode(m); err != nil {
				return fmt.Errorf("machine %s: %w", key.Value, err)
			}
		}
		m.Name = key.Value
		out = append(out, m)
	}
	*l = out
	return nil
}
