package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/typegraph/internal/palette"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	renderer *lipgloss.Renderer

	Header1  lipgloss.Style
	Header2  lipgloss.Style
	TypeName lipgloss.Style
	Module   lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
}

// DefaultStyles returns the terminal styles bound to r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		renderer: r,
		Header1:  r.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("12")),
		Header2:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		TypeName: r.NewStyle().Bold(true),
		Module:   r.NewStyle().Foreground(lipgloss.Color("13")),
		Label:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:     r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header1:  plain,
		Header2:  plain,
		TypeName: plain,
		Module:   plain,
		Label:    plain,
		Muted:    plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Info:     plain,
	}
}

// Swatch renders text on the module colour with its inverted foreground.
// Plain styles return text unchanged.
func (s Styles) Swatch(c palette.Color, text string) string {
	if s.renderer == nil || c == "" {
		return text
	}
	return s.renderer.NewStyle().
		Background(lipgloss.Color(c.String())).
		Foreground(lipgloss.Color(c.Foreground().String())).
		Padding(0, 1).
		Render(text)
}
