package wizard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasCrouzet/domainforge/internal/addressing"
	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/loader"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
	"github.com/ThomasCrouzet/domainforge/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnswers() WizardAnswers {
	return WizardAnswers{
		ProjectName:    "lab",
		ZoneAddressing: true,
		NestingPrefix:  true,
		Domains: []DomainAnswer{
			{Name: "admin", TrustLevel: model.TrustAdmin, Description: `Ops "core"`, Machines: []string{"admin-ctl"}},
			{Name: "pro", TrustLevel: model.TrustTrusted, Description: "Work", Machines: []string{"pro-dev", "pro-desk"}},
		},
	}
}

func TestGenerateBaseZone(t *testing.T) {
	out, err := GenerateBase(sampleAnswers())
	require.NoError(t, err)

	assert.Contains(t, out, "project_name: lab")
	assert.Contains(t, out, "  addressing:\n    base_octet: 10\n    zone_base: 100")
	assert.Contains(t, out, "gpu_policy: exclusive")
	assert.Contains(t, out, "nesting_prefix: true")
	assert.Contains(t, out, "domains:\n  admin:\n")
	assert.Contains(t, out, `    description: "Ops \"core\""`)
	assert.Contains(t, out, "      pro-desk:\n        type: lxc")
	assert.NotContains(t, out, "subnet_id")
	assert.NotContains(t, out, "base_subnet")
}

func TestGenerateBaseLegacy(t *testing.T) {
	answers := sampleAnswers()
	answers.ZoneAddressing = false

	out, err := GenerateBase(answers)
	require.NoError(t, err)
	assert.Contains(t, out, `base_subnet: "10.100"`)
	assert.Contains(t, out, "    subnet_id: 1\n")
	assert.Contains(t, out, "    subnet_id: 2\n")
	assert.NotContains(t, out, "addressing:")
}

func TestGenerateDomain(t *testing.T) {
	out, err := GenerateDomain(DomainAnswer{Name: "pro", TrustLevel: model.TrustTrusted, Description: "Work", Machines: []string{"pro-dev"}, SubnetID: 3})
	require.NoError(t, err)
	assert.Equal(t, `pro:
  description: "Work"
  trust_level: trusted
  subnet_id: 3
  machines:
    pro-dev:
      type: lxc
      roles: [base_system]
`, out)
}

func TestFilesSplitLayout(t *testing.T) {
	answers := sampleAnswers()
	answers.SplitLayout = true

	files, err := Files(answers)
	require.NoError(t, err)
	require.Len(t, files, 3)

	base := files[filepath.Join("infra", "base.yml")]
	assert.NotContains(t, base, "domains:")
	assert.Contains(t, files[filepath.Join("infra", "domains", "pro.yml")], "pro:\n")
}

// The starter specification must load and validate cleanly in both layouts.
func TestGeneratedSpecIsValid(t *testing.T) {
	for _, split := range []bool{false, true} {
		for _, zone := range []bool{false, true} {
			answers := sampleAnswers()
			answers.SplitLayout = split
			answers.ZoneAddressing = zone

			dir := t.TempDir()
			files, err := Files(answers)
			require.NoError(t, err)
			for rel, content := range files {
				path := filepath.Join(dir, rel)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			}

			input := filepath.Join(dir, "infra.yml")
			if split {
				input = filepath.Join(dir, "infra")
			}
			spec, overrides, err := loader.Load(input)
			require.NoError(t, err)
			assert.Empty(t, overrides)
			assert.Len(t, spec.Domains, 2)

			_, err = addressing.Enrich(spec)
			require.NoError(t, err)
			resources.Enrich(spec, hostinfo.Resources{}, false)
			assert.Empty(t, validate.Run(spec, validate.Options{}), "split=%v zone=%v", split, zone)
		}
	}
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"pro-dev", "my-box"}, splitNames(" pro-dev, My Box,,pro-dev, host"))
	assert.Empty(t, splitNames(""))
}
