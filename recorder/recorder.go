// Package recorder turns a capture device into finished WAV artifacts, one
// per push-to-talk session.
package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"dictator/audio"
)

const (
	DefaultNormalization = 1000.0
	DefaultMinDuration   = 500 * time.Millisecond
)

var ErrAlreadyRecording = errors.New("recorder: already recording")

// DeviceError reports a capture stream that could not be opened or started.
type DeviceError struct {
	Op     string
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s (%s): %v", e.Op, e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Artifact is a finalized mono 16 kHz 16-bit WAV file. The consumer owns it
// and is responsible for deleting it.
type Artifact struct {
	Path     string
	Samples  int
	Duration time.Duration
}

type Option func(*Recorder)

func WithDevice(d *audio.DeviceInfo) Option {
	return func(r *Recorder) { r.device = d }
}

// WithNormalization sets the RMS value that maps to a full-scale level.
func WithNormalization(n float64) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.norm = n
		}
	}
}

func WithMinDuration(d time.Duration) Option {
	return func(r *Recorder) { r.minSamples = int(d.Seconds() * audio.SampleRate) }
}

func WithTempDir(dir string) Option {
	return func(r *Recorder) { r.tempDir = dir }
}

type Recorder struct {
	ctx        audio.Context
	device     *audio.DeviceInfo
	norm       float64
	minSamples int
	tempDir    string

	// stateMu serializes Start/Stop/SetDevice; never taken by the callback.
	stateMu sync.Mutex
	capture audio.CaptureDevice

	// bufMu guards frames. The callback holds it only for an append; Stop
	// takes it after the stream has stopped.
	bufMu   sync.Mutex
	frames  [][]int16
	stopped bool

	level atomic.Uint64
}

func New(ctx audio.Context, opts ...Option) *Recorder {
	r := &Recorder{
		ctx:     ctx,
		norm:    DefaultNormalization,
		tempDir: os.TempDir(),
	}
	WithMinDuration(DefaultMinDuration)(r)
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetDevice changes the input used by the next Start. nil selects the
// system default.
func (r *Recorder) SetDevice(d *audio.DeviceInfo) {
	r.stateMu.Lock()
	r.device = d
	r.stateMu.Unlock()
}

func (r *Recorder) DeviceName() string {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.device != nil {
		return r.device.Name
	}
	return "system default"
}

// Start opens a fresh capture stream and begins buffering. A failure leaves
// the recorder idle and is returned as a *DeviceError.
func (r *Recorder) Start() error {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	if r.capture != nil {
		return ErrAlreadyRecording
	}

	r.bufMu.Lock()
	r.frames = nil
	r.stopped = false
	r.bufMu.Unlock()
	r.level.Store(0)

	name := "system default"
	if r.device != nil {
		name = r.device.Name
	}

	capture, err := r.ctx.NewCapture(r.device, audio.DefaultCaptureConfig())
	if err != nil {
		return &DeviceError{Op: "open", Device: name, Err: err}
	}
	capture.SetCallback(r.onData)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return &DeviceError{Op: "start", Device: name, Err: err}
	}
	r.capture = capture
	return nil
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	n := len(data) / audio.BytesPerFrame
	if n == 0 {
		return
	}
	block := make([]int16, n)
	for i := range block {
		block[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	r.bufMu.Lock()
	if r.stopped {
		r.bufMu.Unlock()
		return
	}
	r.frames = append(r.frames, block)
	// stored under bufMu so it cannot land after Stop has zeroed it
	r.level.Store(math.Float64bits(RMSLevel(block, r.norm)))
	r.bufMu.Unlock()
}

// Level is the most recent block's normalized RMS in [0,1]. Safe to call
// from any goroutine.
func (r *Recorder) Level() float64 {
	return math.Float64frombits(r.level.Load())
}

// Recording reports whether a capture stream is open.
func (r *Recorder) Recording() bool {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.capture != nil
}

// Stop ends capture and finalizes the buffered audio. It returns a nil
// artifact when nothing was captured or the capture was shorter than the
// minimum duration. Calling Stop while idle is a no-op.
func (r *Recorder) Stop() (*Artifact, error) {
	r.stateMu.Lock()
	capture := r.capture
	r.capture = nil
	r.stateMu.Unlock()

	defer r.level.Store(0)

	if capture == nil {
		return nil, nil
	}
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	r.bufMu.Lock()
	r.stopped = true
	frames := r.frames
	r.frames = nil
	r.bufMu.Unlock()

	total := 0
	for _, f := range frames {
		total += len(f)
	}
	if total == 0 || total < r.minSamples {
		return nil, nil
	}

	samples := make([]int, 0, total)
	for _, f := range frames {
		for _, s := range f {
			samples = append(samples, int(s))
		}
	}

	path := filepath.Join(r.tempDir, "dictator-"+uuid.NewString()+".wav")
	if err := writeWAV(path, samples); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &Artifact{
		Path:     path,
		Samples:  total,
		Duration: time.Duration(total) * time.Second / audio.SampleRate,
	}, nil
}

func writeWAV(path string, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	enc := wav.NewEncoder(f, audio.SampleRate, audio.BitDepth, audio.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: audio.Channels, SampleRate: audio.SampleRate},
		Data:           samples,
		SourceBitDepth: audio.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return f.Close()
}

// RMSLevel returns sqrt(mean(s^2))/norm clamped to [0,1].
func RMSLevel(samples []int16, norm float64) float64 {
	if len(samples) == 0 || norm <= 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	level := math.Sqrt(sum/float64(len(samples))) / norm
	return min(level, 1.0)
}
