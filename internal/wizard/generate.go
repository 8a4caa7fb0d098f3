package wizard

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ThomasCrouzet/domainforge/internal/loader"
	"github.com/ThomasCrouzet/domainforge/internal/model"
)

// WizardAnswers holds all user responses from the wizard.
type WizardAnswers struct {
	ProjectName string
	Domains     []DomainAnswer

	// ZoneAddressing derives subnets from trust levels; otherwise each
	// domain gets an explicit subnet_id under BaseSubnet.
	ZoneAddressing bool
	BaseSubnet     string

	// SplitLayout writes infra/base.yml plus one file per domain.
	SplitLayout bool

	GPUPolicy     string
	NestingPrefix bool
}

// DomainAnswer is one domain chosen in the wizard.
type DomainAnswer struct {
	Name        string
	TrustLevel  model.TrustLevel
	Description string
	Machines    []string
	SubnetID    int
}

// Presets offered by the wizard.
var Presets = []DomainAnswer{
	{Name: "admin", TrustLevel: model.TrustAdmin, Description: "Infrastructure management", Machines: []string{"admin-ctl"}},
	{Name: "pro", TrustLevel: model.TrustTrusted, Description: "Work environment", Machines: []string{"pro-dev"}},
	{Name: "perso", TrustLevel: model.TrustTrusted, Description: "Personal environment", Machines: []string{"perso-desktop"}},
	{Name: "homelab", TrustLevel: model.TrustSemiTrusted, Description: "Self-hosted services", Machines: []string{"homelab-web"}},
	{Name: "ai-tools", TrustLevel: model.TrustTrusted, Description: "Shared AI services", Machines: []string{"ai-ollama"}},
	{Name: "sandbox", TrustLevel: model.TrustDisposable, Description: "Throwaway experiments", Machines: []string{"sandbox-box"}},
}

const baseTemplate = `# domainforge infrastructure specification
project_name: {{ .ProjectName }}

global:
{{- if .ZoneAddressing }}
  addressing:
    base_octet: 10
    zone_base: 100
{{- else }}
  base_subnet: "{{ .BaseSubnet }}"
{{- end }}
  default_os_image: {{ .OSImage }}
  default_connection: {{ .Connection }}
  default_user: {{ .User }}
  gpu_policy: {{ .GPUPolicy }}
  nesting_prefix: {{ .NestingPrefix }}
{{- if .DomainBlocks }}

domains:
{{- range .DomainBlocks }}
{{ . }}
{{- end }}
{{- end }}

network_policies: []
`

const domainTemplate = `{{ .Name }}:
  description: {{ printf "%q" .Description }}
  trust_level: {{ .TrustLevel }}
{{- if .SubnetID }}
  subnet_id: {{ .SubnetID }}
{{- end }}
  machines:
{{- range .Machines }}
    {{ . }}:
      type: lxc
      roles: [base_system]
{{- end }}
`

var (
	baseTmpl   = template.Must(template.New("base").Parse(baseTemplate))
	domainTmpl = template.Must(template.New("domain").Parse(domainTemplate))
)

type baseData struct {
	WizardAnswers
	OSImage      string
	Connection   string
	User         string
	DomainBlocks []string
}

// prepare fills in defaults and legacy subnet ids.
func prepare(answers WizardAnswers) WizardAnswers {
	if answers.BaseSubnet == "" {
		answers.BaseSubnet = model.DefaultBaseSubnet
	}
	if answers.GPUPolicy == "" {
		answers.GPUPolicy = "exclusive"
	}
	domains := make([]DomainAnswer, len(answers.Domains))
	copy(domains, answers.Domains)
	for i := range domains {
		if domains[i].TrustLevel == "" {
			domains[i].TrustLevel = model.TrustSemiTrusted
		}
		domains[i].SubnetID = 0
		if !answers.ZoneAddressing {
			domains[i].SubnetID = i + 1
		}
	}
	answers.Domains = domains
	return answers
}

// GenerateBase renders the base specification. In single-file layout it
// includes every domain.
func GenerateBase(answers WizardAnswers) (string, error) {
	answers = prepare(answers)
	data := baseData{
		WizardAnswers: answers,
		OSImage:       model.DefaultOSImage,
		Connection:    model.DefaultConnection,
		User:          model.DefaultUser,
	}
	if !answers.SplitLayout {
		for _, d := range answers.Domains {
			block, err := GenerateDomain(d)
			if err != nil {
				return "", fmt.Errorf("domain %s: %w", d.Name, err)
			}
			data.DomainBlocks = append(data.DomainBlocks, indent(strings.TrimRight(block, "\n"), "  "))
		}
	}

	var buf bytes.Buffer
	if err := baseTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateDomain renders one domain as a top-level mapping entry, the
// shape of a split-layout domain file.
func GenerateDomain(d DomainAnswer) (string, error) {
	var buf bytes.Buffer
	if err := domainTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Files returns every file to write, keyed by path relative to the
// working directory.
func Files(answers WizardAnswers) (map[string]string, error) {
	base, err := GenerateBase(answers)
	if err != nil {
		return nil, err
	}
	if !answers.SplitLayout {
		return map[string]string{"infra.yml": base}, nil
	}

	files := map[string]string{filepath.Join("infra", loader.BaseFile): base}
	for _, d := range prepare(answers).Domains {
		content, err := GenerateDomain(d)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.Name, err)
		}
		files[filepath.Join("infra", loader.DomainsDir, d.Name+".yml")] = content
	}
	return files, nil
}
