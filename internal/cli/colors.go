package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Color styles for consistent terminal output
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("99"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	URLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))

	PriceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// FormatSuccess formats a success message
func FormatSuccess(msg string) string {
	return SuccessStyle.Render("✅ " + msg)
}

// FormatError formats an error message
func FormatError(msg string) string {
	return ErrorStyle.Render("❌ " + msg)
}

// FormatWarning formats a warning message
func FormatWarning(msg string) string {
	return WarningStyle.Render("⚠️  " + msg)
}

// FormatInfo formats an informational message
func FormatInfo(msg string) string {
	return InfoStyle.Render("ℹ️  " + msg)
}
