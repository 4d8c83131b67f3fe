// Package table renders rows as a terminal table backed by lipgloss
package table

import (
	"fmt"
	"io"
	"os"
	"strings"

	// Packages
	lipgloss "github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	truncate "github.com/muesli/reflow/truncate"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Data is implemented by sources rendered as a table
type Data interface {
	// Header returns the column header labels
	Header() []string

	// Len returns the number of rows
	Len() int

	// Row returns the cell values for row i, or nil to skip the row.
	// Wrap a value in Bold{} to render it in bold.
	Row(i int) []any
}

// Bold wraps a cell value so that it is rendered in bold
type Bold struct{ Value any }

///////////////////////////////////////////////////////////////////////////////
// STYLES

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cellStyle   = lipgloss.NewStyle()
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Write renders the data to w. When w is a terminal the table is
// constrained to the terminal width.
func Write(w io.Writer, data Data) error {
	_, err := fmt.Fprintln(w, Render(data, width(w)))
	return err
}

// Render renders the data as a string. Columns wrap when the natural width
// exceeds maxWidth, and zero means no limit.
func Render(data Data, maxWidth int) string {
	t := lgtable.New().
		Headers(data.Header()...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Wrap(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i := range data.Len() {
		row := data.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatCell(v)
		}
		t.Row(cells...)
	}

	result := t.Render()
	if maxWidth > 0 && widest(result) > maxWidth {
		t.Width(maxWidth)
		result = t.Render()
	}
	return result
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// Truncate shortens s to max cells, collapsing newlines and appending "…"
// if truncated. Escape sequences do not count towards the width.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max <= 0 || lipgloss.Width(s) <= max {
		return s
	}
	return truncate.StringWithTail(s, uint(max), "…")
}

// FormatCell converts a value to a display string, with "-" for empty values
func FormatCell(v any) string {
	if v == nil {
		return "-"
	}
	switch val := v.(type) {
	case Bold:
		return boldStyle.Render(FormatCell(val.Value))
	case string:
		if val == "" {
			return "-"
		}
		return val
	case bool:
		if val {
			return "yes"
		}
		return "-"
	case int:
		if val == 0 {
			return "-"
		}
		return fmt.Sprint(val)
	default:
		s := fmt.Sprint(val)
		if s == "" {
			return "-"
		}
		return s
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
		return cols
	}
	return 0
}

func widest(s string) int {
	result := 0
	for _, line := range strings.Split(s, "\n") {
		result = max(result, lipgloss.Width(line))
	}
	return result
}
