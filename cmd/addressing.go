package cmd

import (
	"fmt"
	"strconv"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var addressingCmd = &cobra.Command{
	Use:     "addressing [infra.yml | infra/]",
	Aliases: []string{"plan"},
	Short:   "Show the derived subnets, addresses and resource limits",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runAddressing,
}

func init() {
	rootCmd.AddCommand(addressingCmd)
}

func runAddressing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	res, err := runPipeline(cmd.Context(), cfg, newProber(cfg))
	if err != nil {
		return err
	}
	spec := res.Spec

	fmt.Println()
	var domainRows [][]string
	for _, name := range spec.DomainNames() {
		d := spec.Domains[name]
		subnet, gateway, zone := "-", "-", "-"
		if prefix, ok := addressing.SubnetPrefix(spec, d, res.Zones); ok {
			subnet = addressing.CIDR(prefix)
			gateway = addressing.Gateway(prefix)
		}
		if z, ok := res.Zones[name]; ok {
			zone = fmt.Sprintf("%d/%d", z.SecondOctet, z.Seq)
		}
		enabled := "yes"
		if !d.IsEnabled() {
			enabled = ui.Dim("no")
		}
		domainRows = append(domainRows, []string{
			name, ui.Trust(d.Trust()), zone, subnet, gateway, strconv.Itoa(len(d.Machines)), enabled,
		})
	}
	fmt.Println(ui.Table([]string{"DOMAIN", "TRUST", "ZONE", "SUBNET", "GATEWAY", "MACHINES", "ENABLED"}, domainRows))

	var machineRows [][]string
	var totalMemory uint64
	for _, m := range spec.Machines() {
		mem := m.Config[resources.KeyMemory]
		if n := resources.ParseMemory(mem); n > 0 {
			totalMemory += n
			mem = humanize.IBytes(n)
		}
		machineRows = append(machineRows, []string{
			m.Name, m.Domain, m.InstanceType(), orDash(m.IP), orDash(m.Config[resources.KeyCPU]), orDash(mem),
		})
	}
	fmt.Println(ui.Table([]string{"MACHINE", "DOMAIN", "TYPE", "IP", "CPU", "MEMORY"}, machineRows))

	summary := fmt.Sprintf("%d machines, %s memory requested", len(machineRows), humanize.IBytes(totalMemory))
	if res.HostKnown {
		summary += fmt.Sprintf(", host has %d CPUs and %s", res.Host.CPUs, humanize.IBytes(res.Host.MemoryBytes))
	}
	fmt.Println(ui.Hint(summary))

	return res.report()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
