package ui

import (
	"testing"

	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatError(t *testing.T) {
	out := FormatError("cannot load", "infra.yml: no such file", "run domainforge init")
	assert.Contains(t, out, "cannot load")
	assert.Contains(t, out, "infra.yml: no such file")
	assert.Contains(t, out, "run domainforge init")
}

func TestTrustKnowsEveryLevel(t *testing.T) {
	for _, l := range model.TrustLevels {
		_, ok := trustColors[l]
		assert.True(t, ok, l)
		assert.Contains(t, Trust(l), string(l))
	}
	assert.Equal(t, "friendly", Trust("friendly"))
}

func TestTable(t *testing.T) {
	out := Table([]string{"DOMAIN", "SUBNET"}, [][]string{{"pro", "10.110.2.0/24"}})
	assert.Contains(t, out, "DOMAIN")
	assert.Contains(t, out, "10.110.2.0/24")
}
