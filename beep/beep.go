// Package beep plays short audible cues when recording starts, stops or
// fails.
package beep

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Enable() { disabled.Store(false) }

func Enabled() bool { return !disabled.Load() }

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// tick is an exponentially decaying sine, interleaved across channels.
func tick(freq, duration, volume, decay float64, channels int) []int16 {
	n := int(math.Round(float64(sampleRate) * duration))
	out := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		for c := 0; c < channels; c++ {
			out[i*channels+c] = s
		}
	}
	return out
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64, channels int) []int16 {
	b := tick(freq, beepDur, volume, decay, channels)
	gap := make([]int16, int(math.Round(float64(sampleRate)*gapDur))*channels)
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	out = append(out, b...)
	return out
}

// cues renders the three sounds. tail pads start/end ticks for outputs that
// need a minimum buffer fill.
func cues(channels int, tail float64) (start, end, fail []int16) {
	start = tick(startFreq, max(0.03, tail), startVolume, startDecay, channels)
	end = tick(endFreq, max(0.05, tail), endVolume, endDecay, channels)
	fail = doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay, channels)
	return start, end, fail
}

func toBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
