package miniaudio

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-voice/core/audio"
)

var (
	_ audio.Input  = (*Client)(nil)
	_ audio.Output = (*Client)(nil)
)

// Client drives the default capture and playback devices through miniaudio.
// Both directions use the same mono 16-bit encoding.
type Client struct {
	// audioContext is kept only so Close can release it
	audioContext *malgo.AllocatedContext
	encodingInfo audio.EncodingInfo

	playback playbackDevice
	capture  captureDevice
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		encodingInfo: audio.EncodingInfo{SampleRate: audio.DefaultSampleRate, Format: audio.EncodingLinear16},
	}

	if err := client.playback.Init(audioCtx, client.encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := client.playback.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.capture.Init(audioCtx, client.encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return &client, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return c.encodingInfo }

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.capture.Start(onAudio)
}

func (c *Client) StopCapture() error { return c.capture.Stop() }

func (c *Client) SendAudio(audio []byte) error { return c.playback.SendAudio(audio) }

func (c *Client) ClearBuffer() { c.playback.ClearBuffer() }

func (c *Client) AwaitMark() error { return c.playback.AwaitMark() }

func (c *Client) Close() error {
	var errs error
	if err := c.capture.Uninit(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := c.playback.Uninit(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.audioContext != nil {
		if err := c.audioContext.Uninit(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to uninitialize miniaudio context: %w", err))
		}
		c.audioContext.Free()
		c.audioContext = nil
	}
	return errs
}
