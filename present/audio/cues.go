package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"github.com/baldhumanity/flappy-neat/course"
)

// SampleRate is the rate every cue is synthesized at.
const SampleRate = beep.SampleRate(44100)

// Cue names one of the sounds played during a round.
type Cue int

const (
	CueNewRound Cue = iota
	CueDeath
	CuePass
	CueJump
)

func (c Cue) String() string {
	switch c {
	case CueNewRound:
		return "new-round"
	case CueDeath:
		return "death"
	case CuePass:
		return "pass"
	case CueJump:
		return "jump"
	}
	return fmt.Sprintf("cue(%d)", int(c))
}

// note is one sine tone of a cue.
type note struct {
	freq     float64
	duration time.Duration
}

const fadeTime = 5 * time.Millisecond

var cueNotes = map[Cue][]note{
	CueNewRound: {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 140 * time.Millisecond}},
	CueDeath:    {{220, 90 * time.Millisecond}, {110, 160 * time.Millisecond}},
	CuePass:     {{987.77, 70 * time.Millisecond}, {1318.51, 160 * time.Millisecond}},
	CueJump:     {{660, 35 * time.Millisecond}},
}

// cueGain is the relative loudness of each cue before the master volume.
var cueGain = map[Cue]float64{
	CueNewRound: 0.6,
	CueDeath:    0.8,
	CuePass:     0.7,
	CueJump:     0.25,
}

// Cues lists the cues a snapshot triggers, in playing order. A tick with
// any number of jumps plays a single jump cue.
func Cues(s course.Snapshot) []Cue {
	var cues []Cue
	if s.Events.NewRound {
		cues = append(cues, CueNewRound)
	}
	if s.Events.Deaths > 0 {
		cues = append(cues, CueDeath)
	}
	if s.Events.Passed {
		cues = append(cues, CuePass)
	}
	if s.Events.Jumps > 0 {
		cues = append(cues, CueJump)
	}
	return cues
}

// Sound synthesizes a fresh streamer for the cue. Streamers are single use.
func Sound(c Cue, rate beep.SampleRate, volume float64) (beep.Streamer, error) {
	notes, ok := cueNotes[c]
	if !ok {
		return nil, fmt.Errorf("unknown cue %v", c)
	}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tone, err := generators.SineTone(rate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize %v cue: %w", c, err)
		}
		total := rate.N(n.duration)
		parts = append(parts, newFade(beep.Take(total, tone), total, rate.N(fadeTime)))
	}
	return newVolume(beep.Seq(parts...), cueGain[c]*volume), nil
}

// Length returns the number of samples the cue lasts at the given rate.
func Length(c Cue, rate beep.SampleRate) int {
	n := 0
	for _, nt := range cueNotes[c] {
		n += rate.N(nt.duration)
	}
	return n
}

// fade ramps the first and last samples of a note to avoid clicks.
type fade struct {
	streamer beep.Streamer
	position int
	total    int
	ramp     int
}

func newFade(s beep.Streamer, total, ramp int) beep.Streamer {
	ramp = min(ramp, total/2)
	return &fade{streamer: s, total: total, ramp: ramp}
}

func (f *fade) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		if f.ramp > 0 {
			if f.position < f.ramp {
				gain = float64(f.position) / float64(f.ramp)
			}
			if left := f.total - f.position; left < f.ramp {
				gain = math.Max(0, float64(left)/float64(f.ramp))
			}
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.position++
	}
	return n, ok
}

func (f *fade) Err() error { return f.streamer.Err() }

// newVolume wraps s in a volume effect; log2(0) is -Inf so zero volume is silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
