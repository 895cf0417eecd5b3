package session

import "github.com/jzmstrjp/kikitori/internal/quiz"

// Phase is the discriminated state of one session round. Each variant
// carries exactly the fields that are valid in that phase, so code can never
// read quiz options before they exist or a streak outside feedback.
type Phase interface {
	// Name returns the phase name for logs and errors.
	Name() string

	isPhase()
}

// Idle is the initial phase. The session waits for an explicit start
// gesture before any audio plays.
type Idle struct{}

// Presenting means the scene media of Item is revealing and the audio chain
// is playing or about to play.
type Presenting struct {
	Item quiz.Item
}

// SceneReady means the visual asset finished loading while the audio chain
// may still be running.
type SceneReady struct {
	Item quiz.Item
}

// Quiz means the learner is choosing among shuffled options for Item.
type Quiz struct {
	Item    quiz.Item
	Options quiz.OptionSet
}

// Correct is the per-round terminal phase after a right answer.
type Correct struct {
	Item quiz.Item
	// Streak is the persisted consecutive-correct count after this answer.
	Streak int
	// Milestone is true when Streak sits on a shareable milestone.
	Milestone bool
}

// Incorrect is the per-round terminal phase after a wrong answer. It keeps
// the same option set so a retry shows the layout the learner already saw.
type Incorrect struct {
	Item    quiz.Item
	Options quiz.OptionSet
}

// Exhausted is the terminal session phase: an advance was requested but the
// queue had no further item.
type Exhausted struct{}

func (Idle) Name() string       { return "idle" }
func (Presenting) Name() string { return "presenting-scene" }
func (SceneReady) Name() string { return "scene-ready" }
func (Quiz) Name() string       { return "quiz" }
func (Correct) Name() string    { return "correct" }
func (Incorrect) Name() string  { return "incorrect" }
func (Exhausted) Name() string  { return "exhausted" }

func (Idle) isPhase()       {}
func (Presenting) isPhase() {}
func (SceneReady) isPhase() {}
func (Quiz) isPhase()       {}
func (Correct) isPhase()    {}
func (Incorrect) isPhase()  {}
func (Exhausted) isPhase()  {}
