package fxcorpus

import (
	"github.com/cbegin/fxcorpus-go/internal/wavio"
)

// Codec loads and saves whole audio files.
type Codec interface {
	Load(path string) (*Buffer, error)
	Save(path string, buf *Buffer) error
}

// Output encodings understood by WAVCodec.
const (
	FormatPCM16   = string(wavio.PCM16)
	FormatPCM24   = string(wavio.PCM24)
	FormatPCM32   = string(wavio.PCM32)
	FormatFloat32 = string(wavio.Float32)
)

// WAVCodec reads PCM WAV files and writes WAV in Format (default pcm16).
type WAVCodec struct {
	Format string
}

func (c WAVCodec) Load(path string) (*Buffer, error) {
	buf, _, err := wavio.Read(path)
	return buf, err
}

func (c WAVCodec) Save(path string, buf *Buffer) error {
	enc := wavio.PCM16
	if c.Format != "" {
		var err error
		if enc, err = wavio.ParseEncoding(c.Format); err != nil {
			return err
		}
	}
	return wavio.Write(path, buf, enc)
}
