package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotsync/internal/models"
)

const (
	colorBrand = lipgloss.Color("#1DB954")
	colorOK    = lipgloss.Color("#04B575")
	colorErr   = lipgloss.Color("#E22134")
	colorWarn  = lipgloss.Color("#FFA42B")
	colorMuted = lipgloss.Color("#7F7F7F")
)

// palette holds the [lipgloss.Style] for each kind of text the views draw.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = palette{
	title: lipgloss.NewStyle().Foreground(colorBrand).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(colorOK).Bold(true),
	err:   lipgloss.NewStyle().Foreground(colorErr).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(colorWarn),
	help:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
}

// status returns the style a sync outcome is drawn in.
func (p palette) status(s models.RunStatus) lipgloss.Style {
	switch s {
	case models.RunSucceeded:
		return p.ok
	case models.RunPartial:
		return p.warn
	case models.RunFailed:
		return p.err
	default:
		return p.help
	}
}
