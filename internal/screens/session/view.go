package session

import (
	"fmt"

	"charm.land/lipgloss/v2"

	sess "github.com/jzmstrjp/kikitori/internal/session"
	"github.com/jzmstrjp/kikitori/internal/settings"
	"github.com/jzmstrjp/kikitori/internal/ui/components"
	"github.com/jzmstrjp/kikitori/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	var body string

	switch {
	case s.errMsg != "":
		body = theme.Incorrect.Render(s.errMsg) + "\n\n" +
			theme.Hint.Render("Press any key to go back")

	case s.priming:
		body = s.spin.View() + " " + theme.Hint.Render("Fetching problems…")

	default:
		body = s.viewPhase()
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)
}

func (s *SessionScreen) viewPhase() string {
	switch p := s.machine.Phase().(type) {
	case sess.Idle:
		return theme.Title.Render("Ready to listen?") + "\n\n" +
			theme.Hint.Render("Press Enter to start")

	case sess.Presenting:
		return s.viewScene(p.Item.SceneLabel, false) + "\n\n" +
			theme.Hint.Render("♪ Listening…")

	case sess.SceneReady:
		return s.viewScene(p.Item.SceneLabel, true) + "\n\n" +
			theme.Hint.Render("♪ Listening…")

	case sess.Quiz:
		prompt := theme.Subtitle.Render("What did they say?")
		if s.opts.Sequencer.Busy() {
			prompt = theme.Hint.Render("♪ Playing…")
		}
		return s.viewScene(p.Item.SceneLabel, s.sceneReady) + "\n\n" +
			prompt + "\n\n" + s.options.View()

	case sess.Correct:
		lines := theme.Correct.Render("✓ Correct!") + "\n\n" +
			theme.Body.Render(p.Item.Sentence) + "\n" +
			theme.Subtitle.Render(p.Item.Translation) + "\n\n" +
			theme.Hint.Render(fmt.Sprintf("🔥 Streak: %d", p.Streak))
		if p.Milestone {
			lines += "\n" + theme.Selected.Render(shareBanner(p.Streak))
		}
		return lines + "\n\n" + components.NewButton("Next", true, nil).View()

	case sess.Incorrect:
		return theme.Incorrect.Render("✗ Not quite") + "\n\n" +
			s.options.View() + "\n" +
			components.NewButton("Try again", true, nil).View()

	case sess.Exhausted:
		return theme.Title.Render("That's everything!") + "\n\n" +
			theme.Subtitle.Render("No more problems in this course right now.") + "\n" +
			theme.Hint.Render("Come back later, or pick another course.")
	}
	return ""
}

// viewScene renders the scene card. The image itself lives in a browser-less
// terminal, so the card shows the scene label; a spinner-ish marker shows
// while the asset is still resolving.
func (s *SessionScreen) viewScene(label string, ready bool) string {
	if label == "" {
		label = "(a scene unfolds)"
	}
	marker := ""
	if !ready {
		marker = " " + theme.Hint.Render("…")
	}
	return theme.Card.Render("🖼  " + label + marker)
}

func shareBanner(streak int) string {
	return fmt.Sprintf("★ %d in a row! Next goal: %d", streak, settings.NextShareMilestone(streak))
}
