package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorGreen   = lipgloss.Color("#04B575")
	colorRed     = lipgloss.Color("#FF5F87")
	colorGold    = lipgloss.Color("#FFAF00")
	colorSubtle  = lipgloss.Color("#767676")
	colorBorder  = lipgloss.Color("#3C3C3C")
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1).Margin(0, 1)
	valueStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(colorGold)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)
)
