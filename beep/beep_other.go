//go:build !linux

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"dictator/log"
)

var (
	malgoCtx     *malgo.AllocatedContext
	device       *malgo.Device
	startSamples []byte
	endSamples   []byte
	errorSamples []byte
	soundOnce    sync.Once

	// read from the device callback
	playSamples atomic.Pointer[[]byte]
	playPos     atomic.Uint32
	playMu      sync.Mutex
)

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: dataCallback})
	return err
}

func initSound() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: audio context: %v", err)
		return
	}

	start, end, fail := cues(1, 0)
	startSamples, endSamples, errorSamples = toBytes(start), toBytes(end), toBytes(fail)

	if err := initDevice(); err != nil {
		log.Warnf("beep: playback device: %v", err)
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func dataCallback(out, _ []byte, frameCount uint32) {
	samples := playSamples.Load()
	if samples == nil {
		clear(out)
		return
	}

	pos := playPos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		playSamples.Store(nil)
		clear(out)
		return
	}

	n := min(frameCount*2, remaining)
	copy(out[:n], (*samples)[pos:pos+n])
	playPos.Store(pos + n)
	clear(out[n:])
}

func playBytes(samples []byte) {
	if malgoCtx == nil || len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	if device == nil {
		return
	}
	device.Stop()

	playPos.Store(0)
	playSamples.Store(&samples)

	if err := device.Start(); err != nil {
		// the device goes stale across sleep/wake; rebuild it once
		device.Uninit()
		if err := initDevice(); err != nil {
			device = nil
			playSamples.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			playSamples.Store(nil)
		}
	}
}

func play(samples *[]byte) {
	if !Enabled() {
		return
	}
	soundOnce.Do(initSound)
	playBytes(*samples)
}

func Init() { soundOnce.Do(initSound) }

func PlayStart() { play(&startSamples) }

func PlayEnd() { play(&endSamples) }

func PlayError() { play(&errorSamples) }
