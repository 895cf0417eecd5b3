package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jzmstrjp/kikitori/internal/ui/theme"
)

// MenuItem is one row in a picker menu. Badge, when set, is evaluated at
// render time so rows can carry live values; the course picker uses it for
// streak counts, which change while the screen stays mounted.
type MenuItem struct {
	Label    string
	Badge    func() string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical picker. The cursor skips disabled rows and stops at
// the ends of the list.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	for i, item := range items {
		if !item.Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		m.Selected = m.step(-1)
	case "down", "j":
		m.Selected = m.step(1)
	case "enter":
		item := m.Items[m.Selected]
		if item.Action != nil && !item.Disabled {
			return m, item.Action()
		}
	}

	return m, nil
}

// step returns the index of the nearest enabled item in direction dir, or
// the current selection when none exists.
func (m Menu) step(dir int) int {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	return m.Selected
}

// View renders the rows with the cursor marker, labels, and badges.
func (m Menu) View() string {
	badgeStyle := lipgloss.NewStyle().Foreground(theme.Accent)

	rows := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		var row string
		if i == m.Selected {
			row = theme.Selected.Render("  ▸ " + item.Label)
		} else {
			row = theme.Unselected.Render("    " + item.Label)
		}
		if item.Badge != nil {
			if b := item.Badge(); b != "" {
				row += "  " + badgeStyle.Render(b)
			}
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}
