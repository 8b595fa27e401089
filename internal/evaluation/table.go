// In file: internal/evaluation/table.go
package evaluation

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable lays the responses out in one bordered row, one column per
// variant, each wrapped to width characters.
func RenderTable(labels, responses []string, width int) string {
	if width <= 0 {
		width = DefaultColumnWidth
	}
	// Style widths include the horizontal padding.
	headerStyle := lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Width(width+2).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Width(width+2).Padding(0, 1)

	row := make([]string, len(labels))
	copy(row, responses)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(labels...).
		Row(row...).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
