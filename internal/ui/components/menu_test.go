package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestMenuSkipsDisabledRows(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "first", Disabled: true},
		{Label: "second"},
		{Label: "third", Disabled: true},
		{Label: "fourth"},
	})

	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}

	m, _ = m.Update(keyPress(tea.KeyDown))
	if m.Selected != 3 {
		t.Errorf("down over disabled row: selected = %d, want 3", m.Selected)
	}

	m, _ = m.Update(keyPress(tea.KeyDown))
	if m.Selected != 3 {
		t.Errorf("down at end of list: selected = %d, want 3", m.Selected)
	}

	m, _ = m.Update(keyPress(tea.KeyUp))
	if m.Selected != 1 {
		t.Errorf("up over disabled row: selected = %d, want 1", m.Selected)
	}
}

func TestMenuBadgeRendersLiveValue(t *testing.T) {
	badge := ""
	m := NewMenu([]MenuItem{
		{Label: "Short & Easy", Badge: func() string { return badge }},
		{Label: "Quit"},
	})

	if view := m.View(); strings.Contains(view, "🔥") {
		t.Fatalf("empty badge should not render, got %q", view)
	}

	badge = "🔥 3"
	if view := m.View(); !strings.Contains(view, "🔥 3") {
		t.Errorf("badge missing from view: %q", view)
	}
}

func TestMenuEnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{
		{Label: "go", Action: func() tea.Cmd {
			return func() tea.Msg { ran = true; return nil }
		}},
	})

	_, cmd := m.Update(keyPress(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command from enter")
	}
	cmd()
	if !ran {
		t.Error("action did not run")
	}
}
