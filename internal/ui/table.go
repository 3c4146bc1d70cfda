package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/egeskov/localenv/internal/status"
	"github.com/fatih/color"
)

// MissingURL is shown when an environment's host could not be resolved
const MissingURL = "-"

var (
	upLabel    = color.New(color.FgGreen, color.Bold).SprintFunc()
	downLabel  = color.New(color.FgRed).SprintFunc()
	errorLabel = color.New(color.FgYellow).SprintFunc()
	urlLabel   = color.New(color.FgHiCyan).SprintFunc()
)

// RenderTable writes the Name | Status | URL table for statuses, in order.
func RenderTable(w io.Writer, statuses []status.EnvironmentStatus) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Status", "URL").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})

	for _, st := range statuses {
		t.Row(string(st.ID), FormatState(st.State), FormatURL(st.PrimaryURL))
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

// FormatState colours the status label
func FormatState(s status.State) string {
	switch s {
	case status.StateUp:
		return upLabel(s.String())
	case status.StateError:
		return errorLabel(s.String())
	default:
		return downLabel(s.String())
	}
}

// FormatURL returns url as a clickable terminal link. When colour output is
// disabled the plain URL is returned, since such terminals rarely support links.
func FormatURL(url string) string {
	if url == "" {
		return MissingURL
	}
	if color.NoColor {
		return url
	}
	return ansi.SetHyperlink(url) + urlLabel(url) + ansi.ResetHyperlink()
}
