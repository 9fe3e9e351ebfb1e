package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/cbegin/fxcorpus-go/internal/audio"
)

// paStream is one blocking portaudio stream shared by a source and/or sink
// endpoint. It is stopped and released when the last endpoint closes.
type paStream struct {
	stream   *portaudio.Stream
	in, out  []float32
	channels int
	frames   int

	mu    sync.Mutex
	users int
}

// openPortaudio opens a blocking stream on the named devices. A nil name
// leaves that direction unused; an empty name selects the host default.
func openPortaudio(inName, outName *string, cfg audio.DeviceConfig) (*paStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	s, err := openStream(inName, outName, cfg)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

func openStream(inName, outName *string, cfg audio.DeviceConfig) (*paStream, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	infos := make([]Info, len(devs))
	for i, d := range devs {
		infos[i] = infoOf(d)
	}

	var params portaudio.StreamParameters
	s := &paStream{channels: cfg.Channels, frames: cfg.BlockSize}
	var args []interface{}
	if inName != nil {
		dev, err := resolve(devs, infos, *inName, true)
		if err != nil {
			return nil, err
		}
		params.Input = portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		}
		s.in = make([]float32, cfg.Channels*cfg.BlockSize)
		args = append(args, s.in)
	}
	if outName != nil {
		dev, err := resolve(devs, infos, *outName, false)
		if err != nil {
			return nil, err
		}
		params.Output = portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowOutputLatency,
		}
		s.out = make([]float32, cfg.Channels*cfg.BlockSize)
		args = append(args, s.out)
	}
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.BlockSize

	if err := portaudio.IsFormatSupported(params, args...); err != nil {
		return nil, fmt.Errorf("unsupported stream format (%d Hz, %d ch, block %d): %w",
			cfg.SampleRate, cfg.Channels, cfg.BlockSize, err)
	}
	stream, err := portaudio.OpenStream(params, args...)
	if err != nil {
		return nil, fmt.Errorf("error opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("error starting stream: %w", err)
	}
	s.stream = stream
	if inName != nil {
		s.users++
	}
	if outName != nil {
		s.users++
	}
	return s, nil
}

func resolve(devs []*portaudio.DeviceInfo, infos []Info, name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}
	i, err := match(infos, name, input)
	if err != nil {
		return nil, err
	}
	return devs[i], nil
}

func (s *paStream) checkShape(b *audio.Buffer) error {
	if b.Channels() != s.channels || b.Frames() != s.frames {
		return fmt.Errorf("block shape %s does not match stream (%d ch, %d frames)", b.Shape(), s.channels, s.frames)
	}
	return nil
}

func (s *paStream) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == 0 {
		return nil
	}
	s.users--
	if s.users > 0 {
		return nil
	}
	err := errors.Join(s.stream.Stop(), s.stream.Close())
	portaudio.Terminate()
	return err
}

type paSource struct{ s *paStream }

func (p paSource) ReadBlock(dst *audio.Buffer) error {
	if err := p.s.checkShape(dst); err != nil {
		return err
	}
	err := p.s.stream.Read()
	if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return err
	}
	dst.Deinterleave(p.s.in)
	if err != nil {
		return audio.ErrInputOverflow
	}
	return nil
}

func (p paSource) Close() error { return p.s.release() }

type paSink struct{ s *paStream }

func (p paSink) WriteBlock(src *audio.Buffer) error {
	if err := p.s.checkShape(src); err != nil {
		return err
	}
	src.Interleave(p.s.out)
	err := p.s.stream.Write()
	if errors.Is(err, portaudio.OutputUnderflowed) {
		return audio.ErrOutputUnderflow
	}
	return err
}

func (p paSink) Close() error { return p.s.release() }
