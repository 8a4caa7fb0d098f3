package wizard

import (
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/util"
	"github.com/charmbracelet/huh"
)

// Run executes the interactive wizard and returns the user's answers.
func Run(detection DetectionResult) (*WizardAnswers, error) {
	answers := &WizardAnswers{
		ProjectName:    detection.ProjectName,
		ZoneAddressing: true,
		GPUPolicy:      "exclusive",
		NestingPrefix:  true,
	}
	if answers.ProjectName == "" {
		answers.ProjectName = "lab"
	}

	var hints []string
	if detection.IncusAvailable {
		hints = append(hints, "incus client detected")
	} else {
		hints = append(hints, "incus not found in PATH (generation works without it)")
	}
	if detection.ExistingDir != "" {
		hints = append(hints, fmt.Sprintf("existing split layout: %s (%d domain files)", detection.ExistingDir, len(detection.DomainFiles)))
	}

	// Step 1: project and domains
	var selected []string
	desc := "Pick starter domains. Each becomes a subnet with its own trust level."
	if len(hints) > 0 {
		desc += "\n\nDetected:\n  " + strings.Join(hints, "\n  ")
	}

	options := make([]huh.Option[string], 0, len(Presets))
	for _, p := range Presets {
		label := fmt.Sprintf("%s (%s) - %s", p.Name, p.TrustLevel, p.Description)
		options = append(options, huh.NewOption(label, p.Name).Selected(p.Name == "admin" || p.Name == "pro"))
	}

	first := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&answers.ProjectName).
				Validate(validName),
			huh.NewMultiSelect[string]().
				Title("Which domains do you want?").
				Description(desc).
				Options(options...).
				Value(&selected),
		),
	)
	if err := first.Run(); err != nil {
		return nil, err
	}

	// Step 2: one machine list per domain
	machines := make(map[string]*string, len(selected))
	var groups []*huh.Group
	for _, p := range Presets {
		if !contains(selected, p.Name) {
			continue
		}
		value := strings.Join(p.Machines, ", ")
		machines[p.Name] = &value
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Machines in %s", p.Name)).
				Description("Comma-separated names").
				Value(machines[p.Name]),
		))
	}

	// Step 3: layout and addressing
	layout := "single"
	groups = append(groups, huh.NewGroup(
		huh.NewSelect[string]().
			Title("File layout").
			Options(
				huh.NewOption("Single file (infra.yml)", "single"),
				huh.NewOption("Split directory (infra/base.yml + infra/domains/)", "split"),
			).
			Value(&layout),
		huh.NewConfirm().
			Title("Derive subnets from trust levels (zone addressing)?").
			Value(&answers.ZoneAddressing),
		huh.NewSelect[string]().
			Title("GPU policy").
			Options(
				huh.NewOption("Exclusive - one GPU instance at a time", "exclusive"),
				huh.NewOption("Shared - several instances, no isolation", "shared"),
			).
			Value(&answers.GPUPolicy),
		huh.NewConfirm().
			Title("Prefix Incus names with the nesting level when nested?").
			Value(&answers.NestingPrefix),
	))

	if err := huh.NewForm(groups...).Run(); err != nil {
		return nil, err
	}

	answers.SplitLayout = layout == "split"
	for _, p := range Presets {
		ptr, ok := machines[p.Name]
		if !ok {
			continue
		}
		d := p
		d.Machines = splitNames(*ptr)
		answers.Domains = append(answers.Domains, d)
	}

	return answers, nil
}

func validName(s string) error {
	if !util.ValidName(s) {
		return fmt.Errorf("use lowercase letters, digits and hyphens (e.g. %s)", util.SanitizeName(s))
	}
	return nil
}

// splitNames parses a comma-separated list into valid machine names.
func splitNames(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		name := util.SanitizeName(part)
		if name == model.HostEndpoint || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
