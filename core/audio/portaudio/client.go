package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-voice/core/audio"
)

var (
	_ audio.Input  = (*Client)(nil)
	_ audio.Output = (*Client)(nil)
)

// Client uses the blocking PortAudio API with separate input and output
// streams on the default devices.
type Client struct {
	bufferSize int

	inStream  *portaudio.Stream
	outStream *portaudio.Stream
	in        []int16
	out       []int16

	captureMu     sync.Mutex
	stopCapture   context.CancelFunc
	captureDone   chan struct{}
	outMu         sync.Mutex
	leftoverAudio []byte
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	client := &Client{
		bufferSize: bufferSize,
		in:         make([]int16, bufferSize),
		out:        make([]int16, bufferSize),
	}

	var err error
	if client.inStream, err = portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, client.in); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open portaudio input stream: %w", err)
	}
	if client.outStream, err = portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, client.out); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open portaudio output stream: %w", err)
	}
	if err := client.outStream.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start portaudio output stream: %w", err)
	}

	return client, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.stopCapture != nil {
		return nil
	}

	if err := c.inStream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio input stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.stopCapture = cancel
	c.captureDone = done

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.inStream.Read(); err != nil {
				logger.Warn("failed to read from portaudio stream", "error", err)
				continue
			}

			buffer := bytes.Buffer{}
			if err := binary.Write(&buffer, binary.LittleEndian, c.in); err != nil {
				continue
			}
			onAudio(buffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.stopCapture == nil {
		return nil
	}

	c.stopCapture()
	<-c.captureDone
	c.stopCapture = nil
	c.captureDone = nil

	if err := c.inStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio input stream: %w", err)
	}
	return nil
}

// SendAudio blocks until all complete buffers have been written; a trailing
// partial buffer is kept for the next call or AwaitMark.
func (c *Client) SendAudio(audio []byte) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	bufferBytes := c.bufferSize * 2
	pending := append(c.leftoverAudio, audio...)
	for len(pending) >= bufferBytes {
		if err := c.write(pending[:bufferBytes]); err != nil {
			c.leftoverAudio = nil
			return err
		}
		pending = pending[bufferBytes:]
	}
	c.leftoverAudio = append([]byte(nil), pending...)

	return nil
}

func (c *Client) ClearBuffer() {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	c.leftoverAudio = nil
}

// AwaitMark pads and writes the trailing partial buffer.
func (c *Client) AwaitMark() error {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if len(c.leftoverAudio) == 0 {
		return nil
	}

	padded := make([]byte, c.bufferSize*2)
	copy(padded, c.leftoverAudio)
	c.leftoverAudio = nil
	return c.write(padded)
}

func (c *Client) write(chunk []byte) error {
	if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, c.out); err != nil {
		return fmt.Errorf("failed to decode audio chunk: %w", err)
	}
	if err := c.outStream.Write(); err != nil {
		return fmt.Errorf("failed to write to portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	var errs error
	if err := c.StopCapture(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.inStream != nil {
		if err := c.inStream.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if c.outStream != nil {
		if err := c.outStream.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if err := portaudio.Terminate(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}
