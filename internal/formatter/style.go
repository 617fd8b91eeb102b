package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mtfs/internal/tasks"
)

// Styles is the default palette for command output.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Error(s string) string { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Outcome colors a batch outcome: green when archived, orange when skipped, red when failed.
func (p *Palette) Outcome(o tasks.Outcome) string {
	switch o {
	case tasks.OutcomeArchived:
		return p.OK(string(o))
	case tasks.OutcomeUnchanged, tasks.OutcomeNotFound:
		return p.Warn(string(o))
	default:
		return p.Error(string(o))
	}
}
