// Package tui shows the show in progress in the terminal.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorPrimary   = lipgloss.Color("#EC4899") // Pink
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorCrown     = lipgloss.Color("#F59E0B") // Amber

	colorSuccess = lipgloss.Color("#10B981") // Green
	colorError   = lipgloss.Color("#EF4444") // Red

	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerCellStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	cellStyle = lipgloss.NewStyle().
			Foreground(colorText)

	qualifiedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	eliminatedStyle = lipgloss.NewStyle().
			Foreground(colorError)

	crownStyle = lipgloss.NewStyle().
			Foreground(colorCrown).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)
