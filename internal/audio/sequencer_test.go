package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakePlayer records playback order and can fail or block per clip.
type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	failOn  map[string]bool
	blockOn map[string]chan struct{} // Play waits on the channel before returning
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{failOn: make(map[string]bool), blockOn: make(map[string]chan struct{})}
}

func (p *fakePlayer) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	p.played = append(p.played, path)
	block := p.blockOn[path]
	fail := p.failOn[path]
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("decode error")
	}
	return nil
}

func (p *fakePlayer) playedClips() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	copy(out, p.played)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never became true")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestChainPlaysInOrder(t *testing.T) {
	p := newFakePlayer()
	seq := NewSequencer(p, nil)

	var doneCount atomic.Int32
	ok := seq.PlayChain(context.Background(), []string{"a.mp3", "b.mp3"}, func() {
		doneCount.Add(1)
	})
	if !ok {
		t.Fatal("PlayChain returned false on idle sequencer")
	}

	waitFor(t, func() bool { return doneCount.Load() == 1 })

	got := p.playedClips()
	if len(got) != 2 || got[0] != "a.mp3" || got[1] != "b.mp3" {
		t.Errorf("played %v, want [a.mp3 b.mp3]", got)
	}
	if seq.Busy() {
		t.Error("busy should be false after chain completes")
	}
	// A beat later the callback still fired exactly once.
	time.Sleep(20 * time.Millisecond)
	if doneCount.Load() != 1 {
		t.Errorf("done fired %d times, want 1", doneCount.Load())
	}
}

func TestSecondClipWaitsForFirst(t *testing.T) {
	p := newFakePlayer()
	gate := make(chan struct{})
	p.blockOn["a.mp3"] = gate
	seq := NewSequencer(p, nil)

	seq.PlayChain(context.Background(), []string{"a.mp3", "b.mp3"}, nil)

	waitFor(t, func() bool { return len(p.playedClips()) == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := p.playedClips(); len(got) != 1 {
		t.Fatalf("clip b started before clip a ended: %v", got)
	}
	if !seq.Busy() {
		t.Error("busy should be true while the first clip plays")
	}

	close(gate)
	waitFor(t, func() bool { return len(p.playedClips()) == 2 })
}

func TestBusyReinvokeIsNoop(t *testing.T) {
	p := newFakePlayer()
	gate := make(chan struct{})
	p.blockOn["a.mp3"] = gate
	seq := NewSequencer(p, nil)

	seq.PlayChain(context.Background(), []string{"a.mp3"}, nil)
	waitFor(t, func() bool { return seq.Busy() })

	if seq.PlayChain(context.Background(), []string{"x.mp3"}, nil) {
		t.Error("PlayChain should be a no-op while busy")
	}
	close(gate)
	waitFor(t, func() bool { return !seq.Busy() })

	for _, c := range p.playedClips() {
		if c == "x.mp3" {
			t.Error("rejected chain must not play")
		}
	}
}

func TestErroredClipIsSkipped(t *testing.T) {
	p := newFakePlayer()
	p.failOn["a.mp3"] = true
	seq := NewSequencer(p, nil)

	var done atomic.Bool
	seq.PlayChain(context.Background(), []string{"a.mp3", "b.mp3"}, func() { done.Store(true) })
	waitFor(t, func() bool { return done.Load() })

	got := p.playedClips()
	if len(got) != 2 || got[1] != "b.mp3" {
		t.Errorf("played %v, want the chain to continue past the bad clip", got)
	}
}

func TestErroredLastClipReleasesBusy(t *testing.T) {
	p := newFakePlayer()
	p.failOn["only.mp3"] = true
	seq := NewSequencer(p, nil)

	var done atomic.Bool
	seq.PlayChain(context.Background(), []string{"only.mp3"}, func() { done.Store(true) })
	waitFor(t, func() bool { return done.Load() })
	if seq.Busy() {
		t.Error("busy must release even when the last clip errors")
	}
}

func TestEmptyChainFiresDone(t *testing.T) {
	seq := NewSequencer(newFakePlayer(), nil)
	var done atomic.Bool
	if !seq.PlayChain(context.Background(), nil, func() { done.Store(true) }) {
		t.Fatal("empty chain should be accepted")
	}
	if !done.Load() {
		t.Error("done should fire synchronously for an empty chain")
	}
	if seq.Busy() {
		t.Error("empty chain must not leave the sequencer busy")
	}
}

func TestAbortReleasesGateWithoutDone(t *testing.T) {
	p := newFakePlayer()
	gate := make(chan struct{})
	p.blockOn["a.mp3"] = gate
	seq := NewSequencer(p, nil)

	var done atomic.Bool
	seq.PlayChain(context.Background(), []string{"a.mp3", "b.mp3"}, func() { done.Store(true) })
	waitFor(t, func() bool { return seq.Busy() })

	seq.Abort()
	waitFor(t, func() bool { return !seq.Busy() })
	time.Sleep(20 * time.Millisecond)
	if done.Load() {
		t.Error("done must not fire for an aborted chain")
	}
	if got := p.playedClips(); len(got) != 1 {
		t.Errorf("aborted chain kept playing: %v", got)
	}
}

func TestPlayChainWait(t *testing.T) {
	p := newFakePlayer()
	seq := NewSequencer(p, nil)
	if !seq.PlayChainWait(context.Background(), []string{"a.mp3", "b.mp3"}) {
		t.Fatal("PlayChainWait returned false on idle sequencer")
	}
	if got := p.playedClips(); len(got) != 2 {
		t.Errorf("played %v, want 2 clips", got)
	}
}
