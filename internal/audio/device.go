package audio

import "errors"

// Transient device conditions. A read that reports ErrInputOverflow still
// delivered a full block; a write that reports ErrOutputUnderflow was still
// accepted. Neither ends a stream.
var (
	ErrInputOverflow   = errors.New("audio: input overflowed")
	ErrOutputUnderflow = errors.New("audio: output underflowed")
)

// DeviceConfig selects a device pair and the block format exchanged with it.
type DeviceConfig struct {
	InputDevice   string
	OutputDevice  string
	Channels      int
	SampleRate    int
	BlockSize     int
	AllowFeedback bool
}

// Source produces fixed-size blocks of captured audio.
type Source interface {
	// ReadBlock blocks until dst is filled with the next block.
	ReadBlock(dst *Buffer) error
	Close() error
}

// Sink consumes fixed-size blocks of audio.
type Sink interface {
	// WriteBlock blocks until the device has accepted src.
	WriteBlock(src *Buffer) error
	Close() error
}

// IsTransient reports whether err is a recoverable xrun condition.
func IsTransient(err error) bool {
	return errors.Is(err, ErrInputOverflow) || errors.Is(err, ErrOutputUnderflow)
}
