package render

import (
	"strconv"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/util"
	"gopkg.in/yaml.v3"
)

// Protection markers written on every domain and machine file. A file
// carrying one with value false is never deleted as an orphan.
const (
	DomainEphemeralKey   = "domain_ephemeral"
	InstanceEphemeralKey = "instance_ephemeral"
)

// namer applies the nesting prefix to Incus object names.
type namer struct {
	prefix string
}

func newNamer(spec *model.Specification, c hostinfo.Context) namer {
	if !spec.Global.NestingPrefix.Value(true) {
		return namer{}
	}
	return namer{prefix: c.NamePrefix()}
}

func (n namer) name(s string) string { return n.prefix + s }

// allVars renders group_vars/all.yml.
func allVars(spec *model.Specification, n namer) *util.Mapping {
	g := spec.Global
	m := util.NewMapping().
		Set("project_name", spec.ProjectName).
		Set("ansible_connection", g.Connection()).
		Set("ansible_user", g.User()).
		Set("default_os_image", g.OSImage())

	if spec.ZoneAddressing() {
		m.Set("addressing_mode", "zone").
			SetInt("addressing_base_octet", g.BaseOctet()).
			SetInt("addressing_zone_base", g.ZoneBase())
	} else {
		m.Set("addressing_mode", "legacy").
			Set("addressing_base_subnet", g.BaseSubnetOrDefault())
	}

	m.Set("incus_name_prefix", n.prefix).
		Set("gpu_policy", g.GPUPolicyOrDefault()).
		Set("ai_access_policy", g.AIAccessPolicyOrDefault()).
		Set("ai_access_default", g.AIAccessDefault).
		Set("shared_volumes_base", g.SharedVolumesBaseOrDefault()).
		Set("persistent_data_base", g.PersistentDataBaseOrDefault())

	zones := addressing.Compute(spec)
	var domains []string
	for _, name := range spec.DomainNames() {
		if spec.Domains[name].IsEnabled() {
			domains = append(domains, name)
		}
	}
	m.SetStrings("enabled_domains", domains)
	m.SetNode("network_policies", policyNodes(spec, zones))
	return m
}

func policyNodes(spec *model.Specification, zones map[string]addressing.Zone) *yaml.Node {
	if len(spec.NetworkPolicies) == 0 {
		return nil
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, p := range spec.NetworkPolicies {
		item := util.NewMapping().
			Set("description", p.Description).
			Set("from", p.From).
			Set("from_cidr", endpointCIDR(spec, zones, p.From)).
			Set("to", p.To).
			Set("to_cidr", endpointCIDR(spec, zones, p.To)).
			SetNode("ports", portsNode(p.Ports)).
			Set("protocol", p.ProtocolOrDefault()).
			SetBool("bidirectional", p.Bidirectional.Value(false))
		seq.Content = append(seq.Content, item.Node())
	}
	return seq
}

// endpointCIDR resolves a policy endpoint to its network: a domain's /24,
// a machine's /32, or nothing for the host.
func endpointCIDR(spec *model.Specification, zones map[string]addressing.Zone, endpoint string) string {
	if d, ok := spec.Domains[endpoint]; ok {
		if prefix, ok := addressing.SubnetPrefix(spec, d, zones); ok {
			return addressing.CIDR(prefix)
		}
		return ""
	}
	if m, _ := spec.FindMachine(endpoint); m != nil && m.IP != "" {
		return m.IP + "/32"
	}
	return ""
}

func portsNode(p model.Ports) *yaml.Node {
	if !p.IsSet() || p.All {
		return util.Str("all")
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, port := range p.List {
		if v, ok := port.Get(); ok {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)})
		}
	}
	return seq
}

// domainVars renders group_vars/<domain>.yml.
func domainVars(spec *model.Specification, d *model.Domain, zones map[string]addressing.Zone, n namer) *util.Mapping {
	m := util.NewMapping().
		Set("domain_name", d.Name).
		Set("domain_description", d.Description).
		Set("domain_trust_level", string(d.Trust())).
		SetBool("domain_enabled", d.IsEnabled()).
		SetBool(DomainEphemeralKey, d.IsEphemeral()).
		Set("domain_network", n.name(hostinfo.BridgePrefix+d.Name))

	if prefix, ok := addressing.SubnetPrefix(spec, d, zones); ok {
		m.Set("domain_subnet", addressing.CIDR(prefix)).
			Set("domain_gateway", addressing.Gateway(prefix))
	}
	if z, ok := zones[d.Name]; ok {
		m.SetInt("domain_zone_seq", z.Seq)
	}

	m.Set("domain_ai_provider", d.AIProvider)
	if d.AISanitize.IsSet() {
		m.Set("domain_ai_sanitize", d.AISanitize.String())
	}

	profiles := util.NewMapping()
	for _, pname := range util.SortedKeys(d.Profiles) {
		p := d.Profiles[pname]
		body := util.NewMapping().
			Set("name", n.name(d.Name+"-"+pname)).
			SetStringMap("config", p.Config)
		devs := util.NewMapping()
		for _, dname := range util.SortedKeys(p.Devices) {
			devs.SetStringMap(dname, p.Devices[dname])
		}
		body.SetMapping("devices", devs)
		profiles.SetMapping(pname, body)
	}
	m.SetMapping("domain_profiles", profiles)
	return m
}

// hostVars renders host_vars/<machine>.yml.
func hostVars(spec *model.Specification, d *model.Domain, mc *model.Machine, zones map[string]addressing.Zone, n namer) *util.Mapping {
	osImage := mc.OSImage
	if osImage == "" {
		osImage = spec.Global.OSImage()
	}

	m := util.NewMapping().
		Set("instance_name", n.name(mc.Name)).
		Set("instance_description", mc.Description).
		Set("instance_domain", d.Name).
		Set("instance_type", mc.InstanceType()).
		Set("instance_os_image", osImage).
		SetBool(InstanceEphemeralKey, mc.IsEphemeral(d)).
		Set("instance_ip", mc.IP)
	if prefix, ok := addressing.SubnetPrefix(spec, d, zones); ok {
		m.Set("instance_gateway", addressing.Gateway(prefix))
	}
	m.Set("instance_network", n.name(hostinfo.BridgePrefix+d.Name))
	if mc.HasGPU() {
		m.SetBool("instance_gpu", true)
	}

	var profiles []string
	for _, p := range mc.Profiles {
		if _, ok := d.Profiles[p]; ok {
			profiles = append(profiles, n.name(d.Name+"-"+p))
		} else {
			profiles = append(profiles, p)
		}
	}
	m.SetStrings("instance_profiles", profiles).
		SetStringMap("instance_config", mc.Config)

	devices, _ := resources.MachineDevices(spec, mc)
	devs := util.NewMapping()
	for _, dev := range devices {
		devs.SetStringMap(dev.Name, dev.Props())
	}
	m.SetMapping("instance_devices", devs).
		SetStrings("instance_roles", mc.Roles)

	if v, ok := mc.BootAutostart.Bool(); ok {
		m.SetBool("instance_boot_autostart", v)
	}
	if v, ok := mc.BootPriority.Get(); ok {
		m.SetInt("instance_boot_priority", v)
	}
	m.Set("instance_snapshots_schedule", mc.SnapshotsSchedule).
		Set("instance_snapshots_expiry", mc.SnapshotsExpiry)
	return m
}

// inventory renders inventory/<domain>.yml in Ansible YAML inventory form.
func inventory(d *model.Domain, n namer) *util.Mapping {
	hosts := util.NewMapping()
	for _, mc := range d.Machines {
		hosts.SetMapping(mc.Name, util.NewMapping().Set("ansible_host", n.name(mc.Name)))
	}
	group := util.NewMapping()
	if hosts.Len() > 0 {
		group.SetMapping("hosts", hosts)
	} else {
		group.SetNode("hosts", &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle})
	}
	children := util.NewMapping().SetNode(d.Name, group.Node())
	return util.NewMapping().SetNode("all", util.NewMapping().SetNode("children", children.Node()).Node())
}
