// Package audio plays short synthesized cues for round events: a new round,
// deaths, obstacle passes and jumps.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/baldhumanity/flappy-neat/course"
)

// Presenter implements course.Presenter by handing cue streamers to a sink.
type Presenter struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	volume float64
	play   func(beep.Streamer)
	close  func()
	closed bool
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithVolume sets the master volume in [0, 1]; 0 mutes every cue.
func WithVolume(v float64) Option {
	return func(p *Presenter) { p.volume = v }
}

// New returns a presenter that passes every cue to play.
func New(play func(beep.Streamer), opts ...Option) (*Presenter, error) {
	if play == nil {
		return nil, fmt.Errorf("audio: nil sink")
	}
	p := &Presenter{rate: SampleRate, volume: 1, play: play}
	for _, opt := range opts {
		opt(p)
	}
	if p.volume < 0 || p.volume > 1 {
		return nil, fmt.Errorf("audio: volume %.2f out of range [0, 1]", p.volume)
	}
	for c := range cueNotes {
		if _, err := Sound(c, p.rate, p.volume); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Open initializes the speaker and returns a presenter that mixes cues into it.
// Close must be called to release the audio device.
func Open(opts ...Option) (*Presenter, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)

	p, err := New(func(s beep.Streamer) {
		speaker.Lock()
		mixer.Add(s)
		speaker.Unlock()
	}, opts...)
	if err != nil {
		speaker.Close()
		return nil, err
	}
	p.close = func() {
		speaker.Lock()
		mixer.Clear()
		speaker.Unlock()
		speaker.Close()
	}
	return p, nil
}

// Present implements course.Presenter.
func (p *Presenter) Present(s course.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.volume == 0 {
		return
	}
	for _, c := range Cues(s) {
		// Cue tables are validated in New.
		if sound, err := Sound(c, p.rate, p.volume); err == nil {
			p.play(sound)
		}
	}
}

// Close stops playback. Further snapshots are ignored.
func (p *Presenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.close != nil {
		p.close()
	}
	return nil
}
