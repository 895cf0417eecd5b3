package session

import (
	"context"
	"errors"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/audio"
	"github.com/jzmstrjp/kikitori/internal/queue"
	"github.com/jzmstrjp/kikitori/internal/quiz"
	"github.com/jzmstrjp/kikitori/internal/router"
	"github.com/jzmstrjp/kikitori/internal/screen"
	sess "github.com/jzmstrjp/kikitori/internal/session"
	"github.com/jzmstrjp/kikitori/internal/settings"
	"github.com/jzmstrjp/kikitori/internal/ui/components"
	"github.com/jzmstrjp/kikitori/internal/ui/layout"
	"github.com/jzmstrjp/kikitori/internal/ui/theme"
)

// DefaultAutoAdvance is the rapid-mode feedback dwell before the next item.
const DefaultAutoAdvance = 1500 * time.Millisecond

// Fetcher resolves a remote asset to a local file; satisfied by media.Cache.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Options carries the injected collaborators for a SessionScreen.
type Options struct {
	Machine     *sess.Machine
	Manager     *queue.Manager
	Sequencer   *audio.Sequencer
	Cache       Fetcher
	Store       *settings.Store
	Mode        sess.Mode
	AutoAdvance time.Duration
	Log         *zap.Logger
}

// SessionScreen implements screen.Screen for an active listening session.
// All session semantics live in the phase machine; the screen only
// translates key presses and async completions into machine transitions.
type SessionScreen struct {
	opts    Options
	machine *sess.Machine

	spin    spinner.Model
	options components.OptionList
	priming bool
	errMsg  string

	// sceneReady mirrors the machine's scene state for rendering only.
	sceneReady bool
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates a SessionScreen with injected dependencies.
func New(opts Options) *SessionScreen {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.AutoAdvance == 0 {
		opts.AutoAdvance = DefaultAutoAdvance
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Hint

	return &SessionScreen{
		opts:    opts,
		machine: opts.Machine,
		spin:    sp,
		priming: true,
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(s.primeQueue(), s.spin.Tick)
}

func (s *SessionScreen) Title() string {
	return "Session (" + s.opts.Mode.String() + ")"
}

// Close aborts any chain still playing when the screen leaves the stack, so
// audio never outlives the session it belongs to.
func (s *SessionScreen) Close() {
	s.opts.Sequencer.Abort()
}

// HeaderStreak reports the live streak for the header bar. Reads go through
// the settings store, so a write from another running instance shows up
// immediately.
func (s *SessionScreen) HeaderStreak() int {
	return s.opts.Store.Streak(context.Background(), s.machine.CourseID())
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" || s.priming {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}

	switch s.machine.Phase().(type) {
	case sess.Idle:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start listening"},
			{Key: "Esc", Description: "Back"},
		}
	case sess.Presenting, sess.SceneReady:
		return []layout.KeyHint{{Key: "…", Description: "Listening"}}
	case sess.Quiz:
		return []layout.KeyHint{
			{Key: "1-4", Description: "Answer"},
			{Key: "Enter", Description: "Submit"},
			{Key: "P", Description: "Play again"},
			{Key: "I", Description: "Image on/off"},
			{Key: "A", Description: "Reply language"},
		}
	case sess.Correct:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "P", Description: "Play again"},
		}
	case sess.Incorrect:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Try again"},
			{Key: "P", Description: "Play again"},
		}
	default:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionPrimedMsg:
		return s.handlePrimed(msg)

	case sceneLoadedMsg:
		return s.handleSceneLoaded(msg)

	case chainDoneMsg:
		return s.handleChainDone(msg)

	case autoAdvanceMsg:
		if c, ok := s.machine.Phase().(sess.Correct); ok && c.Item.ID == msg.ItemID {
			return s.advance()
		}
		return s, nil

	case spinner.TickMsg:
		if !s.priming {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if _, ok := s.machine.Phase().(sess.Quiz); ok {
		var cmd tea.Cmd
		s.options, cmd = s.options.Update(msg)
		return s, cmd
	}

	return s, nil
}

// primeQueue blocks on the very first batch fetch — the only network wait
// the learner ever sees.
func (s *SessionScreen) primeQueue() tea.Cmd {
	return func() tea.Msg {
		return sessionPrimedMsg{Err: s.opts.Manager.Prime(context.Background())}
	}
}

func (s *SessionScreen) handlePrimed(msg sessionPrimedMsg) (screen.Screen, tea.Cmd) {
	s.priming = false
	if msg.Err != nil {
		s.opts.Log.Warn("initial batch fetch failed", zap.Error(msg.Err))
		s.errMsg = "Could not load problems. Check your connection and try again."
		return s, nil
	}
	// Wait in Idle for the explicit start gesture; audio must not play
	// without one.
	return s, nil
}

func (s *SessionScreen) handleSceneLoaded(msg sceneLoadedMsg) (screen.Screen, tea.Cmd) {
	if item, ok := s.currentItemID(); !ok || item != msg.ItemID {
		return s, nil // stale: the session has moved on
	}
	if msg.Err != nil {
		s.opts.Log.Debug("scene asset failed, using label fallback", zap.Error(msg.Err))
	}
	s.sceneReady = true
	_ = s.machine.SceneLoaded()
	return s, nil
}

func (s *SessionScreen) handleChainDone(msg chainDoneMsg) (screen.Screen, tea.Cmd) {
	if item, ok := s.currentItemID(); !ok || item != msg.ItemID {
		return s, nil
	}
	if err := s.machine.AudioDone(); err != nil {
		return s, nil // e.g. replay finished while already in quiz
	}
	if p, ok := s.machine.Phase().(sess.Quiz); ok {
		s.options = components.NewOptionList(p.Options)
	}
	return s, nil
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.priming {
		return s, nil
	}

	switch phase := s.machine.Phase().(type) {
	case sess.Idle:
		if key == "enter" || key == "space" {
			if err := s.machine.Start(); err != nil {
				return s, nil // queue already empty: machine went Exhausted
			}
			return s, s.beginScene()
		}

	case sess.Quiz:
		// The busy gate: no answers while the chain is still playing.
		if s.opts.Sequencer.Busy() {
			return s, nil
		}
		switch key {
		case "1", "2", "3", "4", "5", "6":
			idx := int(key[0] - '1')
			if idx < len(phase.Options.Options) {
				return s.submitAnswer(idx)
			}
		case "enter":
			return s.submitAnswer(s.options.Selected)
		case "p":
			return s, s.playChain()
		case "i":
			ctx := context.Background()
			hidden := s.opts.Store.ImageHidden(ctx, s.machine.CourseID())
			s.opts.Store.SetImageHidden(ctx, s.machine.CourseID(), !hidden)
			return s, nil
		case "a":
			ctx := context.Background()
			native := s.opts.Store.NativeReplyEnabled(ctx, s.machine.CourseID())
			s.opts.Store.SetNativeReplyEnabled(ctx, s.machine.CourseID(), !native)
			return s, nil
		}
		var cmd tea.Cmd
		s.options, cmd = s.options.Update(msg)
		return s, cmd

	case sess.Correct:
		switch key {
		case "enter", "n":
			return s.advance()
		case "p":
			return s, s.playChain()
		}

	case sess.Incorrect:
		switch key {
		case "enter", "r":
			if err := s.machine.Retry(); err == nil {
				// Same layout, fresh cursor, selection unlocked.
				s.options = components.NewOptionList(phase.Options)
			}
			return s, nil
		case "p":
			return s, s.playChain()
		}
	}

	return s, nil
}

func (s *SessionScreen) submitAnswer(idx int) (screen.Screen, tea.Cmd) {
	correct, err := s.machine.Answer(context.Background(), idx)
	if err != nil {
		return s, nil
	}
	s.options = s.options.Reveal(idx)

	if correct && s.opts.Mode == sess.ModeRapid {
		itemID, _ := s.currentItemID()
		return s, tea.Tick(s.opts.AutoAdvance, func(time.Time) tea.Msg {
			return autoAdvanceMsg{ItemID: itemID}
		})
	}
	return s, nil
}

func (s *SessionScreen) advance() (screen.Screen, tea.Cmd) {
	if err := s.machine.Next(context.Background()); err != nil {
		if errors.Is(err, queue.ErrExhausted) {
			return s, nil // Exhausted phase renders the dead-end view
		}
		return s, nil
	}
	s.sceneReady = false
	return s, s.beginScene()
}

// beginScene kicks off the two async legs of a presentation: resolving the
// scene asset and playing the audio chain. They complete in either order.
func (s *SessionScreen) beginScene() tea.Cmd {
	return tea.Batch(s.loadScene(), s.playChain())
}

// loadScene resolves the scene image through the media cache. Items without
// an image — including those whose image an admin cleared after fetch — and
// sessions with images hidden resolve immediately to the label fallback.
func (s *SessionScreen) loadScene() tea.Cmd {
	p, ok := s.machine.Phase().(sess.Presenting)
	if !ok {
		return nil
	}
	item := p.Item

	ctx := context.Background()
	if !item.HasImage() ||
		s.opts.Mode == sess.ModeImmersion ||
		s.opts.Store.ImageHidden(ctx, s.machine.CourseID()) {
		return func() tea.Msg { return sceneLoadedMsg{ItemID: item.ID} }
	}

	return func() tea.Msg {
		_, err := s.opts.Cache.Fetch(context.Background(), item.ImageURL)
		return sceneLoadedMsg{ItemID: item.ID, Err: err}
	}
}

// playChain resolves the current chain to local files and plays it. The
// sequencer's busy gate makes a second invocation a no-op, so a replay
// can never overlap a running chain.
//
// The item is captured here, on the update goroutine; the machine is never
// touched from inside the closure, which runs on a command goroutine while
// the update loop may be writing the phase. The reply-language setting is
// still read at playback time — the settings store is safe to share.
func (s *SessionScreen) playChain() tea.Cmd {
	item, ok := s.currentItem()
	if !ok {
		return nil
	}
	courseID := s.machine.CourseID()

	return func() tea.Msg {
		ctx := context.Background()
		urls := item.AudioChain(s.opts.Store.NativeReplyEnabled(ctx, courseID))

		clips := make([]string, 0, len(urls))
		for _, u := range urls {
			path, err := s.opts.Cache.Fetch(ctx, u)
			if err != nil {
				// One bad asset must not block the session.
				s.opts.Log.Warn("audio asset unavailable, skipping", zap.String("url", u), zap.Error(err))
				continue
			}
			clips = append(clips, path)
		}

		if !s.opts.Sequencer.PlayChainWait(ctx, clips) {
			return nil // already busy: swallow, the running chain will report
		}
		return chainDoneMsg{ItemID: item.ID}
	}
}

func (s *SessionScreen) currentItem() (quiz.Item, bool) {
	switch p := s.machine.Phase().(type) {
	case sess.Presenting:
		return p.Item, true
	case sess.SceneReady:
		return p.Item, true
	case sess.Quiz:
		return p.Item, true
	case sess.Correct:
		return p.Item, true
	case sess.Incorrect:
		return p.Item, true
	default:
		return quiz.Item{}, false
	}
}

func (s *SessionScreen) currentItemID() (string, bool) {
	item, ok := s.currentItem()
	return item.ID, ok
}
