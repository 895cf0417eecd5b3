package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jzmstrjp/kikitori/internal/quiz"
	"github.com/jzmstrjp/kikitori/internal/ui/theme"
)

// OptionList renders one item's shuffled answer choices and tracks the
// learner's cursor. Selection is reported to the caller; the component does
// no evaluation of its own.
type OptionList struct {
	Set      quiz.OptionSet
	Selected int
	Revealed bool // answer revealed: highlight correct/chosen
	Chosen   int  // index actually submitted (valid once Revealed)
	Locked   bool // input gate: ignore keys while audio is busy
}

// NewOptionList creates an OptionList over a shuffled set.
func NewOptionList(set quiz.OptionSet) OptionList {
	return OptionList{Set: set, Selected: 0, Chosen: -1}
}

// Update handles cursor movement. Submission is handled by the screen via
// Selected, so the busy gate stays in one place.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.Revealed || o.Locked {
		return o, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if o.Selected > 0 {
			o.Selected--
		}
	case "down", "j":
		if o.Selected < len(o.Set.Options)-1 {
			o.Selected++
		}
	}
	return o, nil
}

// Reveal marks the list as answered with the given chosen index.
func (o OptionList) Reveal(chosen int) OptionList {
	o.Revealed = true
	o.Chosen = chosen
	return o
}

// View renders the option list.
func (o OptionList) View() string {
	labels := []string{"1", "2", "3", "4", "5", "6"}

	var s string
	for i, opt := range o.Set.Options {
		label := "?"
		if i < len(labels) {
			label = labels[i]
		}
		prefix := "  "
		if i == o.Selected && !o.Revealed {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)

		switch {
		case o.Revealed && i == o.Set.CorrectIndex:
			s += theme.Correct.Render(line) + "\n"
		case o.Revealed && i == o.Chosen:
			s += theme.Incorrect.Render(line) + "\n"
		case o.Revealed:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == o.Selected:
			s += theme.Selected.Render(line) + "\n"
		default:
			s += theme.Unselected.Render(line) + "\n"
		}
	}
	return s
}
