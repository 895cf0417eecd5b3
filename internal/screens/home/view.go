package home

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/jzmstrjp/kikitori/internal/ui/theme"
)

func (h *HomeScreen) View(width, height int) string {
	sections := []string{
		theme.Title.Render("聞き取り — Kikitori"),
		theme.Subtitle.Render("English listening drills"),
		theme.Card.Render(h.menu.View()),
		theme.Hint.Render("Mode: " + h.mode.String() + "  (Tab to change)"),
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n\n"))
}
