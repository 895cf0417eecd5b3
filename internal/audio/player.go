package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Player plays one local audio file and returns when it ends. Implementations
// must treat ctx cancellation as an abort, not an error in the clip itself.
type Player interface {
	Play(ctx context.Context, path string) error
}

// SilentPlayer discards clips immediately. Used when no audio device is
// available so the rest of the session still works.
type SilentPlayer struct{}

func (SilentPlayer) Play(ctx context.Context, path string) error {
	return ctx.Err()
}

// sampleRate is the fixed speaker rate; clips at other rates are resampled.
const sampleRate = beep.SampleRate(44100)

var speakerOnce sync.Once

// BeepPlayer plays mp3/wav files through the system speaker via beep.
type BeepPlayer struct{}

// NewBeepPlayer creates a BeepPlayer, initializing the speaker on first use.
func NewBeepPlayer() (*BeepPlayer, error) {
	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}
	return &BeepPlayer{}, nil
}

// Play decodes and plays the file at path, blocking until the clip's ended
// event or ctx cancellation. Cancellation clears the speaker so no tail of
// the clip leaks into whatever comes next.
func (p *BeepPlayer) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode clip: %w", err)
	}
	defer streamer.Close()

	var stream beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		stream = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
