// Package addressing derives per-domain subnets and assigns static
// addresses to machines that do not declare one.
package addressing

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// Static host numbers live in [MinHost, MaxHost]; .100 and above belong to
// DHCP and are never assigned here.
const (
	MinHost     = 1
	MaxHost     = 99
	GatewayHost = 254
	MaxSeq      = 254
)

// ZoneOffsets maps trust levels to their second-octet offset from the zone base.
var ZoneOffsets = map[model.TrustLevel]int{
	model.TrustAdmin:       0,
	model.TrustTrusted:     10,
	model.TrustSemiTrusted: 20,
	model.TrustUntrusted:   40,
	model.TrustDisposable:  50,
}

// ErrAddressesExhausted is returned when a domain has no free static address.
var ErrAddressesExhausted = errors.New("ran out of static addresses")

// Zone is the addressing result for one domain.
type Zone struct {
	SecondOctet int
	Seq         int
}

// Compute groups domains by trust level and assigns each a sequence number
// inside its zone. Explicit subnet_id values are reserved first; the others
// take the lowest free numbers in alphabetical order. The result depends
// only on names, trust levels and explicit ids. Domains with an unknown
// trust level are left out. Returns nil when zone addressing is inactive.
func Compute(spec *model.Specification) map[string]Zone {
	if !spec.ZoneAddressing() {
		return nil
	}
	base := spec.Global.ZoneBase()

	groups := make(map[model.TrustLevel][]string)
	for name, d := range spec.Domains {
		trust := d.Trust()
		if _, ok := ZoneOffsets[trust]; !ok {
			continue
		}
		groups[trust] = append(groups[trust], name)
	}

	result := make(map[string]Zone, len(spec.Domains))
	for trust, names := range groups {
		sort.Strings(names)
		octet := base + ZoneOffsets[trust]

		reserved := make(map[int]bool)
		var auto []string
		for _, name := range names {
			if id, ok := spec.Domains[name].SubnetID.Get(); ok {
				reserved[id] = true
				result[name] = Zone{SecondOctet: octet, Seq: id}
				continue
			}
			auto = append(auto, name)
		}

		next := 0
		for _, name := range auto {
			for reserved[next] {
				next++
			}
			result[name] = Zone{SecondOctet: octet, Seq: next}
			reserved[next] = true
		}
	}
	return result
}

// SubnetPrefix returns the first three octets of the domain's /24, e.g.
// "10.120.3". In zone mode it comes from zones; otherwise it is
// base_subnet plus the explicit subnet_id.
func SubnetPrefix(spec *model.Specification, d *model.Domain, zones map[string]Zone) (string, bool) {
	if spec.ZoneAddressing() {
		z, ok := zones[d.Name]
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%d.%d.%d", spec.Global.BaseOctet(), z.SecondOctet, z.Seq), true
	}
	id, ok := d.SubnetID.Get()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s.%d", spec.Global.BaseSubnetOrDefault(), id), true
}

// CIDR returns the /24 network for a prefix.
func CIDR(prefix string) string {
	return prefix + ".0/24"
}

// Gateway returns the gateway address for a prefix.
func Gateway(prefix string) string {
	return fmt.Sprintf("%s.%d", prefix, GatewayHost)
}

// Network parses the /24 for a prefix.
func Network(prefix string) (netip.Prefix, error) {
	return netip.ParsePrefix(CIDR(prefix))
}

// HostNumber returns the last octet of ip when ip lies in prefix.
func HostNumber(ip, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(ip, prefix+".")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return n, true
}

// AutoAssignIPs gives every machine of d without an IP the lowest free
// host number in [MinHost, MaxHost], in declaration order.
func AutoAssignIPs(d *model.Domain, prefix string) error {
	used := make(map[int]bool)
	for _, m := range d.Machines {
		if n, ok := HostNumber(m.IP, prefix); ok {
			used[n] = true
		}
	}

	next := MinHost
	for _, m := range d.Machines {
		if m.IP != "" {
			continue
		}
		for next <= MaxHost && used[next] {
			next++
		}
		if next > MaxHost {
			return fmt.Errorf("domain %s: machine %s: %w in %s (.%d-.%d)",
				d.Name, m.Name, ErrAddressesExhausted, CIDR(prefix), MinHost, MaxHost)
		}
		m.IP = fmt.Sprintf("%s.%d", prefix, next)
		used[next] = true
	}
	return nil
}

// Enrich computes addressing and auto-assigns IPs in every domain whose
// subnet can be derived. Domains without one are left for the validator.
func Enrich(spec *model.Specification) (map[string]Zone, error) {
	zones := Compute(spec)
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		prefix, ok := SubnetPrefix(spec, d, zones)
		if !ok {
			continue
		}
		if err := AutoAssignIPs(d, prefix); err != nil {
			return zones, err
		}
	}
	return zones, nil
}
