package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor = lipgloss.Color("#F4A261")
	IncomeColor  = lipgloss.Color("#2A9D8F")
	ExpenseColor = lipgloss.Color("#E76F51")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	IncomeStyle = lipgloss.NewStyle().
			Foreground(IncomeColor)

	ExpenseStyle = lipgloss.NewStyle().
			Foreground(ExpenseColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ExpenseColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(IncomeColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// SummaryBoxStyle frames the income/expense/balance block.
	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
)

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}
