package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("5")).
	Padding(0, 1)

// Table renders rows as aligned columns. Widths are measured in terminal
// cells, so wide runes in names line up.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(widths)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(runewidth.FillRight(cell, w))
			}
		}
		b.WriteString("\n")
	}

	writeRow(header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Truncate shortens s to at most width cells
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// Box draws a rounded border around content, unless colors are disabled
func Box(content string) string {
	if !colorsEnabled() {
		return content
	}
	return boxStyle.Render(content)
}

// PrintTable prints a table in a box
func PrintTable(header []string, rows [][]string) {
	printf("%s\n", Box(Table(header, rows)))
}
