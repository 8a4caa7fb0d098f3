package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSingleFile(t *testing.T) {
	spec, overrides, err := Load("testdata/single.yml")
	require.NoError(t, err)
	assert.Empty(t, overrides)

	assert.Equal(t, "single", spec.ProjectName)
	perso, ok := spec.Domains["perso"]
	require.True(t, ok)
	assert.Equal(t, "perso", perso.Name)
	require.Len(t, perso.Machines, 2)
	assert.Equal(t, "perso-web", perso.Machines[0].Name)
	assert.Equal(t, "perso", perso.Machines[0].Domain)
}

func TestLoadSplitDirectory(t *testing.T) {
	spec, overrides, err := Load("testdata/split")
	require.NoError(t, err)

	assert.Equal(t, "lab", spec.ProjectName)
	assert.True(t, spec.ZoneAddressing())
	assert.ElementsMatch(t, []string{"admin", "pro"}, spec.DomainNames())

	// b-override.yml is read after a-pro.yml, so its definitions win.
	pro := spec.Domains["pro"]
	assert.Equal(t, model.TrustSemiTrusted, pro.TrustLevel)
	require.Len(t, pro.Machines, 1)
	assert.Equal(t, "vm", pro.Machines[0].Type)
	assert.Len(t, spec.Domains["admin"].Machines, 2)

	require.Len(t, overrides, 2)
	assert.Equal(t, "admin", overrides[0].Domain)
	assert.Equal(t, filepath.Join("testdata", "split", "domains", "b-override.yml"), overrides[0].File)
	assert.Equal(t, filepath.Join("testdata", "split", "base.yml"), overrides[0].Previous)
	assert.Equal(t, "pro", overrides[1].Domain)
	assert.Equal(t, filepath.Join("testdata", "split", "domains", "a-pro.yml"), overrides[1].Previous)

	// policies.yml replaces the base list instead of appending.
	require.Len(t, spec.NetworkPolicies, 1)
	assert.Equal(t, "pro", spec.NetworkPolicies[0].From)
}

func TestLoadMissingBase(t *testing.T) {
	_, _, err := Load("testdata/nobase")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBaseFile))

	var ferr *FileError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, filepath.Join("testdata", "nobase", "base.yml"), ferr.Path)
}

func TestLoadMissingPath(t *testing.T) {
	_, _, err := Load("testdata/does-not-exist")
	assert.Error(t, err)
}

func TestLoadBrokenYAML(t *testing.T) {
	_, _, err := Load("testdata/broken.yml")
	require.Error(t, err)

	var ferr *FileError
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.Error(), "parsing yaml")
}

func TestMergeIsPure(t *testing.T) {
	base := model.NewSpecification()
	base.Domains["a"] = &model.Domain{TrustLevel: model.TrustAdmin}
	base.NetworkPolicies = []model.NetworkPolicy{{From: "a", To: "host"}}

	files := []DomainFile{
		{Path: "one.yml", Domains: map[string]*model.Domain{"b": {}}},
		{Path: "two.yml", Domains: map[string]*model.Domain{"a": {TrustLevel: model.TrustTrusted}, "b": nil}},
	}

	spec, overrides := Merge(base, "base.yml", files, nil)
	assert.Equal(t, model.TrustTrusted, spec.Domains["a"].TrustLevel)
	require.NotNil(t, spec.Domains["b"])
	assert.Equal(t, "b", spec.Domains["b"].Name)
	assert.Equal(t, []Override{
		{Domain: "a", File: "two.yml", Previous: "base.yml"},
		{Domain: "b", File: "two.yml", Previous: "one.yml"},
	}, overrides)

	// Without a policies file the base list is kept.
	assert.Len(t, spec.NetworkPolicies, 1)

	// A policies file without the key keeps it too.
	spec, _ = Merge(spec, "base.yml", nil, &PolicyFile{Path: "policies.yml"})
	assert.Len(t, spec.NetworkPolicies, 1)

	spec, _ = Merge(spec, "base.yml", nil, &PolicyFile{NetworkPolicies: []model.NetworkPolicy{}})
	assert.Empty(t, spec.NetworkPolicies)
}

func TestLoadPoliciesFileWithoutKey(t *testing.T) {
	dir := t.TempDir()
	base := `project_name: lab
domains:
  admin:
    trust_level: admin
network_policies:
  - from: admin
    to: host
    ports: all
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, BaseFile), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PoliciesFile), []byte("# policies live in base.yml for now\n"), 0o644))

	spec, _, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, spec.NetworkPolicies, 1)
	assert.Equal(t, "admin", spec.NetworkPolicies[0].From)

	require.NoError(t, os.WriteFile(filepath.Join(dir, PoliciesFile), []byte("network_policies: []\n"), 0o644))
	spec, _, err = Load(dir)
	require.NoError(t, err)
	assert.Empty(t, spec.NetworkPolicies)
}
