package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/queue"
	"github.com/jzmstrjp/kikitori/internal/quiz"
	"github.com/jzmstrjp/kikitori/internal/settings"
)

// ItemQueue is the slice of the prefetch queue manager the machine consumes.
type ItemQueue interface {
	Front() (quiz.Item, bool)
	Advance(ctx context.Context) (quiz.Item, error)
	MaybeRefill(ctx context.Context)
}

// InvalidTransitionError reports a trigger fired in a phase that does not
// accept it.
type InvalidTransitionError struct {
	From    string
	Trigger string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s in phase %s", e.Trigger, e.From)
}

// Machine drives one learner through present → answer → feedback → advance,
// repeatedly, until the queue runs out. It owns pop-front on the queue and
// the streak writes on the settings store; it performs no I/O of its own
// beyond those two collaborators.
//
// Machine is not safe for concurrent use. The update loop owns it; command
// goroutines must capture the item they need before leaving that goroutine
// and read only the settings store afterwards.
type Machine struct {
	ID       string
	queue    ItemQueue
	store    *settings.Store
	courseID string
	log      *zap.Logger

	phase   Phase
	shuffle func(correct string, distractors []string) quiz.OptionSet
}

// NewMachine creates a Machine in the Idle phase.
func NewMachine(q ItemQueue, store *settings.Store, courseID string, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		ID:       uuid.New().String(),
		queue:    q,
		store:    store,
		courseID: courseID,
		log:      log,
		phase:    Idle{},
		shuffle:  quiz.Shuffle,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// CourseID returns the settings namespace this session runs under.
func (m *Machine) CourseID() string {
	return m.courseID
}

// Start begins the session on an explicit user gesture (audio must not play
// without one). Idle → Presenting with the queue front; an already-empty
// queue goes straight to Exhausted.
func (m *Machine) Start() error {
	if _, ok := m.phase.(Idle); !ok {
		return &InvalidTransitionError{From: m.phase.Name(), Trigger: "start"}
	}
	item, ok := m.queue.Front()
	if !ok {
		m.phase = Exhausted{}
		return queue.ErrExhausted
	}
	m.phase = Presenting{Item: item}
	return nil
}

// SceneLoaded records that the visual asset resolved. Presenting →
// SceneReady. Redundant calls after the quiz began are ignored: the image
// race is harmless once options are showing.
func (m *Machine) SceneLoaded() error {
	switch p := m.phase.(type) {
	case Presenting:
		m.phase = SceneReady{Item: p.Item}
		return nil
	case SceneReady, Quiz, Correct, Incorrect:
		return nil
	default:
		return &InvalidTransitionError{From: m.phase.Name(), Trigger: "scene-loaded"}
	}
}

// AudioDone fires when the utterance+reply chain completed. It shuffles a
// fresh option set for the presentation and enters Quiz. Valid from either
// Presenting or SceneReady, since audio and image resolve in either order.
func (m *Machine) AudioDone() error {
	var item quiz.Item
	switch p := m.phase.(type) {
	case Presenting:
		item = p.Item
	case SceneReady:
		item = p.Item
	default:
		return &InvalidTransitionError{From: m.phase.Name(), Trigger: "audio-done"}
	}
	m.phase = Quiz{Item: item, Options: m.shuffle(item.Translation, item.Distractors)}
	return nil
}

// Answer evaluates the selected option index. The streak write is
// synchronous with the transition, so a crash right after answering can
// neither lose nor double-count it.
func (m *Machine) Answer(ctx context.Context, selected int) (bool, error) {
	p, ok := m.phase.(Quiz)
	if !ok {
		return false, &InvalidTransitionError{From: m.phase.Name(), Trigger: "answer"}
	}

	if quiz.Evaluate(selected, p.Options.CorrectIndex) {
		streak := m.store.IncrementStreak(ctx, m.courseID)
		m.phase = Correct{
			Item:      p.Item,
			Streak:    streak,
			Milestone: settings.IsShareMilestone(streak),
		}
		return true, nil
	}

	m.store.ResetStreak(ctx, m.courseID)
	m.phase = Incorrect{Item: p.Item, Options: p.Options}
	return false, nil
}

// Retry re-enters the quiz for the same item with the same option set —
// the learner should recognize the layout, so no reshuffle.
func (m *Machine) Retry() error {
	p, ok := m.phase.(Incorrect)
	if !ok {
		return &InvalidTransitionError{From: m.phase.Name(), Trigger: "retry"}
	}
	m.phase = Quiz{Item: p.Item, Options: p.Options}
	return nil
}

// Next pops the queue and presents the following item. Correct → Presenting,
// or Exhausted when the queue has nothing left (fails closed, no crash).
func (m *Machine) Next(ctx context.Context) error {
	if _, ok := m.phase.(Correct); !ok {
		return &InvalidTransitionError{From: m.phase.Name(), Trigger: "next"}
	}
	item, err := m.queue.Advance(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrExhausted) {
			m.log.Info("queue exhausted, ending session", zap.String("session", m.ID))
			m.phase = Exhausted{}
			return err
		}
		return err
	}
	m.phase = Presenting{Item: item}
	return nil
}

