package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-voice/core/audio"
)

type playbackDevice struct {
	device *malgo.Device

	pending []byte
	marks   []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

type playbackMark struct {
	position int
	reached  func()
}

func (c *playbackDevice) Init(audioContext *malgo.AllocatedContext, encodingInfo audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms
	config.Periods = 4

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: c.fill(bytesPerFrame),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	c.device = device
	return nil
}

func (c *playbackDevice) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("playback device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *playbackDevice) SendAudio(audio []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return fmt.Errorf("playback device not initialized")
	} else if !device.IsStarted() {
		return fmt.Errorf("playback device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = append(c.pending, audio...)
	return nil
}

// ClearBuffer drops queued audio and releases everyone waiting on a mark.
func (c *playbackDevice) ClearBuffer() {
	c.audioMu.Lock()
	marks := c.marks
	c.pending = nil
	c.marks = nil
	c.audioMu.Unlock()

	for _, mark := range marks {
		mark.reached()
	}
}

func (c *playbackDevice) AwaitMark() error {
	reached := make(chan struct{})

	c.audioMu.Lock()
	if len(c.pending) == 0 {
		c.audioMu.Unlock()
		return nil
	}
	c.marks = append(c.marks, playbackMark{
		position: len(c.pending),
		reached:  sync.OnceFunc(func() { close(reached) }),
	})
	c.audioMu.Unlock()

	<-reached
	return nil
}

func (c *playbackDevice) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.ClearBuffer()
	return nil
}

func (c *playbackDevice) fill(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := min(int(frameCount)*bytesPerFrame, len(pOutput))

		c.audioMu.Lock()
		n := copy(pOutput[:need], c.pending)
		c.pending = c.pending[n:]

		reached := 0
		for i := range c.marks {
			c.marks[i].position -= n
			if c.marks[i].position <= 0 {
				reached++
			}
		}
		passed := c.marks[:reached]
		c.marks = c.marks[reached:]
		c.audioMu.Unlock()

		for _, mark := range passed {
			go mark.reached()
		}
	}
}
