package device

import (
	"fmt"

	"github.com/cbegin/fxcorpus-go/internal/audio"
	"github.com/cbegin/fxcorpus-go/internal/wavio"
)

// FileSource plays a WAV file as if it were a capture device, looping at
// the end. File channels are mapped onto the stream's channels by index
// modulo the file's channel count.
type FileSource struct {
	data *audio.Buffer
	pos  int
}

// OpenFile loads path for use as an input at the given stream format.
func OpenFile(path string, cfg audio.DeviceConfig) (*FileSource, error) {
	buf, info, err := wavio.Read(path)
	if err != nil {
		return nil, err
	}
	if info.SampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("%s is %d Hz, stream wants %d Hz", path, info.SampleRate, cfg.SampleRate)
	}
	return &FileSource{data: buf}, nil
}

func (f *FileSource) ReadBlock(dst *audio.Buffer) error {
	n := f.data.Frames()
	fch := f.data.Channels()
	frames := dst.Frames()
	for written := 0; written < frames; {
		chunk := min(frames-written, n-f.pos)
		for c := range dst.Data {
			copy(dst.Data[c][written:written+chunk], f.data.Data[c%fch][f.pos:f.pos+chunk])
		}
		written += chunk
		f.pos += chunk
		if f.pos == n {
			f.pos = 0
		}
	}
	return nil
}

func (f *FileSource) Close() error { return nil }
