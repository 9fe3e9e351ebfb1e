package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cbegin/fxcorpus-go/internal/audio"
)

// Opener opens the input/output pair described by a DeviceConfig.
type Opener struct {
	Log logrus.FieldLogger
}

func (o *Opener) log() logrus.FieldLogger {
	if o.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return o.Log
}

// Open returns ready-to-use endpoints. Hardware endpoints on both sides
// share one duplex portaudio stream.
func (o *Opener) Open(cfg audio.DeviceConfig) (audio.Source, audio.Sink, error) {
	if cfg.Channels <= 0 || cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, nil, fmt.Errorf("invalid stream format: %d ch, %d Hz, block %d", cfg.Channels, cfg.SampleRate, cfg.BlockSize)
	}
	if err := CheckFeedback(cfg.InputDevice, cfg.OutputDevice, cfg.AllowFeedback); err != nil {
		return nil, nil, err
	}
	log := o.log().WithFields(logrus.Fields{
		"input":       cfg.InputDevice,
		"output":      cfg.OutputDevice,
		"channels":    cfg.Channels,
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
	})

	path, fileIn := IsFile(cfg.InputDevice)
	monitorOut := IsMonitor(cfg.OutputDevice)

	if !fileIn && !monitorOut {
		s, err := openPortaudio(&cfg.InputDevice, &cfg.OutputDevice, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("opened duplex stream")
		return paSource{s}, paSink{s}, nil
	}

	var src audio.Source
	if fileIn {
		f, err := OpenFile(path, cfg)
		if err != nil {
			return nil, nil, err
		}
		src = f
	} else {
		s, err := openPortaudio(&cfg.InputDevice, nil, cfg)
		if err != nil {
			return nil, nil, err
		}
		src = paSource{s}
	}

	var sink audio.Sink
	if monitorOut {
		m, err := audio.NewMonitor(cfg.SampleRate, cfg.BlockSize)
		if err != nil {
			return nil, nil, errors.Join(err, src.Close())
		}
		sink = m
	} else {
		s, err := openPortaudio(nil, &cfg.OutputDevice, cfg)
		if err != nil {
			return nil, nil, errors.Join(err, src.Close())
		}
		sink = paSink{s}
	}
	log.Debug("opened stream endpoints")
	return src, sink, nil
}
