package ui

import (
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// trustColors follow the zone layout, from most to least trusted.
var trustColors = map[model.TrustLevel]lipgloss.Color{
	model.TrustAdmin:       "#DC2626",
	model.TrustTrusted:     "#16A34A",
	model.TrustSemiTrusted: "#CA8A04",
	model.TrustUntrusted:   "#EA580C",
	model.TrustDisposable:  "#6B7280",
}

// Trust renders a trust level in its colour.
func Trust(t model.TrustLevel) string {
	c, ok := trustColors[t]
	if !ok {
		return string(t)
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(t))
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return boldStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
