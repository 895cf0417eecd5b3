package audio

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sequencer plays an ordered chain of clips strictly one after another.
// Clip k+1 starts only after clip k's playback returns — never on a timer —
// so ordering holds even under variable decode latency. A single busy flag
// is true from the start of the first clip until the chain ends or is
// aborted; the UI uses it to gate interaction and prevent double-submission.
//
// A clip that errors is treated as ended: the chain skips to the next clip
// (or completes, if it was the last), so one bad asset can never hang the
// session or leave the busy gate stuck.
type Sequencer struct {
	player Player
	log    *zap.Logger

	mu     sync.Mutex
	busy   bool
	cancel context.CancelFunc
}

// NewSequencer creates a Sequencer over the given player.
func NewSequencer(player Player, log *zap.Logger) *Sequencer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequencer{player: player, log: log}
}

// Busy reports whether a chain is currently playing.
func (s *Sequencer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// PlayChain starts playing clips in order and invokes done exactly once when
// the chain ends naturally. It returns false without doing anything if a
// chain is already playing (re-invocation while busy is a no-op) or the
// chain is empty — an empty chain still fires done so callers can treat
// "nothing to play" and "finished playing" uniformly.
func (s *Sequencer) PlayChain(ctx context.Context, clips []string, done func()) bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return false
	}
	if len(clips) == 0 {
		s.mu.Unlock()
		if done != nil {
			done()
		}
		return true
	}

	ctx, cancel := context.WithCancel(ctx)
	s.busy = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, clips, done)
	return true
}

// PlayChainWait plays the chain and blocks until it completes or the context
// is cancelled. Returns false if the sequencer was busy.
func (s *Sequencer) PlayChainWait(ctx context.Context, clips []string) bool {
	ch := make(chan struct{})
	if !s.PlayChain(ctx, clips, func() { close(ch) }) {
		return false
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
	return true
}

// Abort stops the current chain, if any, and releases the busy gate.
// The done callback of an aborted chain never fires.
func (s *Sequencer) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Sequencer) run(ctx context.Context, clips []string, done func()) {
	for _, clip := range clips {
		if ctx.Err() != nil {
			break
		}
		if err := s.player.Play(ctx, clip); err != nil && ctx.Err() == nil {
			// Degrade gracefully: a failed clip counts as ended.
			s.log.Warn("clip playback failed, skipping", zap.String("clip", clip), zap.Error(err))
		}
	}

	aborted := ctx.Err() != nil

	// Release the gate before the completion callback so the callback may
	// immediately start the next chain.
	s.mu.Lock()
	s.busy = false
	s.cancel = nil
	s.mu.Unlock()

	if !aborted && done != nil {
		done()
	}
}
