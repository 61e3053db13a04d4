// internal/tui/styles.go
//
// Shared lipgloss styles for the picker, progress output and run summary.

package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Success renders s in the success colour.
func Success(s string) string { return successStyle.Render(s) }

// Failure renders s in the failure colour.
func Failure(s string) string { return failureStyle.Render(s) }

// Muted renders s dimmed.
func Muted(s string) string { return mutedStyle.Render(s) }
