package validate

import (
	"net/netip"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Zone addressing constraints.
const (
	RequiredBaseOctet = 10
	MaxZoneBase       = 205
)

func init() {
	Register(Rule{Name: "addressing", Check: checkAddressing})
	Register(Rule{Name: "machine-ips", Check: checkMachineIPs})
}

func checkAddressing(spec *model.Specification, _ Options, r *Report) {
	zoneMode := spec.ZoneAddressing()
	if zoneMode {
		a := spec.Global.Addressing
		if a.BaseOctet.IsSet() {
			if v, ok := a.BaseOctet.Get(); !ok || v != RequiredBaseOctet {
				r.Addf("global.addressing: base_octet must be %d, got %q", RequiredBaseOctet, a.BaseOctet.Raw())
			}
		}
		if a.ZoneBase.IsSet() {
			if v, ok := a.ZoneBase.Get(); !ok || v < 0 || v > MaxZoneBase {
				r.Addf("global.addressing: zone_base must be an integer in [0,%d], got %q", MaxZoneBase, a.ZoneBase.Raw())
			}
		}
	}

	// Uniqueness is per trust zone in zone mode, global otherwise.
	seen := make(map[string]map[int]string)
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		where := domainRef(d)

		if !d.SubnetID.IsSet() {
			if !zoneMode {
				r.Addf("%s: subnet_id is required when global.addressing is not set", where)
			}
			continue
		}
		id, ok := d.SubnetID.Get()
		if !ok || id < 0 || id > addressing.MaxSeq {
			r.Addf("%s: subnet_id must be an integer in [0,%d], got %q", where, addressing.MaxSeq, d.SubnetID.Raw())
			continue
		}

		scope := ""
		if zoneMode {
			scope = string(d.Trust())
		}
		if seen[scope] == nil {
			seen[scope] = make(map[int]string)
		}
		if prev, dup := seen[scope][id]; dup {
			if zoneMode {
				r.Addf("%s: subnet_id %d already used by domain %q in zone %s", where, id, prev, scope)
			} else {
				r.Addf("%s: subnet_id %d already used by domain %q", where, id, prev)
			}
			continue
		}
		seen[scope][id] = name
	}

	if !zoneMode {
		return
	}
	zones := addressing.Compute(spec)
	for _, name := range spec.DomainNames() {
		z, ok := zones[name]
		if !ok {
			continue
		}
		if z.Seq > addressing.MaxSeq {
			r.Addf("domain %q: zone %s is full, sequence %d exceeds %d", name, spec.Domains[name].Trust(), z.Seq, addressing.MaxSeq)
		}
		if z.SecondOctet > 255 {
			r.Addf("domain %q: second octet %d is out of range", name, z.SecondOctet)
		}
	}
}

func checkMachineIPs(spec *model.Specification, _ Options, r *Report) {
	zones := addressing.Compute(spec)
	owner := make(map[netip.Addr]string)

	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		var network netip.Prefix
		var hasNetwork bool
		if prefix, ok := addressing.SubnetPrefix(spec, d, zones); ok {
			if n, err := addressing.Network(prefix); err == nil {
				network, hasNetwork = n, true
			}
		}

		for _, m := range d.Machines {
			if m.IP == "" {
				continue
			}
			addr, err := netip.ParseAddr(m.IP)
			if err != nil || !addr.Is4() {
				r.Addf("%s: ip %q is not a valid IPv4 address", machineRef(m), m.IP)
				continue
			}
			if prev, dup := owner[addr]; dup {
				r.Addf("%s: ip %s is already used by machine %q", machineRef(m), m.IP, prev)
			} else {
				owner[addr] = m.Name
			}
			if hasNetwork && !network.Contains(addr) {
				r.Addf("%s: ip %s is outside the domain subnet %s", machineRef(m), m.IP, network)
			}
		}
	}
}
