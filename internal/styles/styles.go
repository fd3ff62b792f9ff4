// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package styles holds the lipgloss styles used for terminal output.
// lipgloss drops colors when stdout is not a terminal, so styled text is
// safe to pipe.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// Palette
const (
	Red    = "#FF6188"
	Orange = "#FC9867"
	Green  = "#A9DC76"
	Cyan   = "#78DCE8"
	Purple = "#AB9DF2"
	Gray   = "#727072"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Gray))
	IDStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Purple))
)

// Completion labels the review outcome: 完了 when complete, 要追記 otherwise.
func Completion(complete bool) string {
	if complete {
		return SuccessStyle.Render("完了")
	}
	return WarningStyle.Render("要追記")
}

// RunStatus colors a history run status.
func RunStatus(s types.RunStatus) string {
	switch s {
	case types.RunApplied:
		return SuccessStyle.Render(string(s))
	case types.RunFailed:
		return ErrorStyle.Render(string(s))
	default:
		return WarningStyle.Render(string(s))
	}
}
