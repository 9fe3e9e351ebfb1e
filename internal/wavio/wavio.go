// Package wavio reads and writes WAV files as planar float32 buffers.
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/fxcorpus-go/internal/audio"
)

var (
	ErrInvalidFile = errors.New("invalid WAV file format")
	ErrEmptyFile   = errors.New("WAV file contains no samples")
)

const formatPCM = 1

// Info describes a decoded file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Encoding selects the sample format written to disk.
type Encoding string

const (
	PCM16   Encoding = "pcm16"
	PCM24   Encoding = "pcm24"
	PCM32   Encoding = "pcm32"
	Float32 Encoding = "float32"
)

// ParseEncoding accepts the names of the Encoding constants.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case PCM16, PCM24, PCM32, Float32:
		return e, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (expected pcm16|pcm24|pcm32|float32)", s)
	}
}

// EncodingForBitDepth returns the PCM encoding matching a source bit depth,
// falling back to PCM16.
func EncodingForBitDepth(bits int) Encoding {
	switch bits {
	case 24:
		return PCM24
	case 32:
		return PCM32
	default:
		return PCM16
	}
}

func (e Encoding) bitDepth() int {
	switch e {
	case PCM24:
		return 24
	case PCM32, Float32:
		return 32
	default:
		return 16
	}
}

// getAudioDivisor returns the full-scale value for a PCM bit depth.
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}

// Read decodes a whole PCM WAV file.
func Read(path string) (*audio.Buffer, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, Info{}, ErrInvalidFile
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, Info{}, fmt.Errorf("unsupported WAV audio format %d", dec.WavAudioFormat)
	}
	divisor, err := getAudioDivisor(int(dec.BitDepth))
	if err != nil {
		return nil, Info{}, err
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, Info{}, fmt.Errorf("error reading WAV data: %w", err)
	}

	nch := int(dec.NumChans)
	if nch <= 0 {
		return nil, Info{}, ErrInvalidFile
	}
	frames := len(pcm.Data) / nch
	if frames == 0 {
		return nil, Info{}, ErrEmptyFile
	}
	buf := audio.NewBuffer(nch, frames, int(dec.SampleRate))
	for i, v := range pcm.Data[:frames*nch] {
		buf.Data[i%nch][i/nch] = float32(v) / divisor
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   nch,
		BitDepth:   int(dec.BitDepth),
		Frames:     frames,
	}
	return buf, info, nil
}

// Write encodes buf to path. A partially written file is removed on error.
func Write(path string, buf *audio.Buffer, enc Encoding) (err error) {
	if buf.Channels() == 0 || buf.SampleRate <= 0 {
		return fmt.Errorf("cannot write buffer with shape %s", buf.Shape())
	}
	if enc == Float32 {
		return os.WriteFile(path, EncodeFloat32(buf), 0o644)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	bits := enc.bitDepth()
	nch := buf.Channels()
	e := wav.NewEncoder(out, buf.SampleRate, bits, nch, formatPCM)
	if err := e.Write(&goaudio.IntBuffer{
		Data:           quantize(buf, bits),
		Format:         &goaudio.Format{SampleRate: buf.SampleRate, NumChannels: nch},
		SourceBitDepth: bits,
	}); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}
	return e.Close()
}

// quantize interleaves buf into clipped integer samples.
func quantize(buf *audio.Buffer, bits int) []int {
	full := math.Ldexp(1, bits-1)
	nch := buf.Channels()
	out := make([]int, nch*buf.Frames())
	for c, ch := range buf.Data {
		for i, s := range ch {
			v := math.Round(float64(s) * full)
			if v > full-1 {
				v = full - 1
			} else if v < -full {
				v = -full
			}
			out[i*nch+c] = int(v)
		}
	}
	return out
}
