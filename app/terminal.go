package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/umputun/themer/app/theme"
)

// terminalView is the document a theme controller renders into on a terminal.
type terminalView struct {
	attr    string
	checked bool
}

func (v *terminalView) SetTheme(attr string)    { v.attr = attr }
func (v *terminalView) SetChecked(checked bool) { v.checked = checked }

var (
	darkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e5e7")).Background(lipgloss.Color("#1d1d21")).Padding(0, 1)
	lightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1c1c1e")).Background(lipgloss.Color("#f7f7f8")).Padding(0, 1)
)

// Render returns the status line, styled in the active theme's colours.
func (v *terminalView) Render() string {
	box := "[ ]"
	style := lightStyle
	if v.checked {
		box = "[x]"
		style = darkStyle
	}
	return style.Render(fmt.Sprintf("%s %s %s", box, theme.ControlID, v.attr))
}

// terminalPreference returns the system preference for the --system option.
// auto asks the terminal for its background colour.
func terminalPreference(mode string) theme.SystemPreference {
	switch mode {
	case "dark":
		return theme.SystemFunc(func() bool { return true })
	case "light":
		return theme.SystemFunc(func() bool { return false })
	default:
		return theme.SystemFunc(lipgloss.HasDarkBackground)
	}
}
