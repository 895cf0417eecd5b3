package home

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/jzmstrjp/kikitori/internal/config"
	"github.com/jzmstrjp/kikitori/internal/router"
	"github.com/jzmstrjp/kikitori/internal/screen"
	sess "github.com/jzmstrjp/kikitori/internal/session"
	"github.com/jzmstrjp/kikitori/internal/settings"
	"github.com/jzmstrjp/kikitori/internal/source"
	"github.com/jzmstrjp/kikitori/internal/ui/components"
	"github.com/jzmstrjp/kikitori/internal/ui/layout"
)

// SessionBuilder constructs a ready-to-run session screen for a course and
// mode. cmd/play.go supplies it with the real client, cache, and audio wiring
// so the home screen never touches those directly.
type SessionBuilder func(course config.Course, mode sess.Mode) screen.Screen

// HomeScreen is the course picker shown on launch.
type HomeScreen struct {
	menu         components.Menu
	courses      []config.Course
	store        *settings.Store
	buildSession SessionBuilder
	mode         sess.Mode
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a HomeScreen over the configured courses. mode is the initial
// session mode; Tab cycles it.
func New(courses []config.Course, store *settings.Store, mode sess.Mode, build SessionBuilder) *HomeScreen {
	h := &HomeScreen{
		courses:      courses,
		store:        store,
		buildSession: build,
		mode:         mode,
	}

	items := make([]components.MenuItem, 0, len(courses)+1)
	for _, course := range courses {
		course := course
		items = append(items, components.MenuItem{
			Label: course.Label,
			Badge: func() string {
				if streak := h.streakFor(course); streak > 0 {
					return fmt.Sprintf("🔥 %d", streak)
				}
				return ""
			},
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: h.buildSession(course, h.mode)}
				}
			},
		})
	}
	items = append(items, components.MenuItem{
		Label:  "Quit",
		Action: func() tea.Cmd { return tea.Quit },
	})

	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Courses"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑/↓", Description: "Choose course"},
		{Key: "Tab", Description: "Mode: " + h.mode.String()},
		{Key: "Enter", Description: "Start"},
		{Key: "Q", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "tab":
			h.mode = nextMode(h.mode)
			return h, nil
		case "q":
			return h, tea.Quit
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// streakFor reads the persisted streak for a course, for the picker badges.
func (h *HomeScreen) streakFor(course config.Course) int {
	filter := source.Filter{Difficulty: course.Difficulty, Length: course.Length}
	return h.store.Streak(context.Background(), filter.CourseID())
}

func nextMode(m sess.Mode) sess.Mode {
	switch m {
	case sess.ModeStandard:
		return sess.ModeImmersion
	case sess.ModeImmersion:
		return sess.ModeRapid
	default:
		return sess.ModeStandard
	}
}
