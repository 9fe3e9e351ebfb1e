package wavio

import (
	"encoding/binary"
	"math"

	"github.com/cbegin/fxcorpus-go/internal/audio"
)

// EncodeFloat32 renders buf as an IEEE float WAV file image (format tag 3).
// go-audio's encoder only writes integer PCM.
func EncodeFloat32(buf *audio.Buffer) []byte {
	channels := buf.Channels()
	frames := buf.Frames()
	dataSize := frames * channels * 4
	byteRate := buf.SampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	off := 44
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(buf.Data[c][i]))
			off += 4
		}
	}
	return out
}
