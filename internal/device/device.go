// Package device opens audio endpoints for streaming: portaudio hardware,
// looping WAV files standing in for an input, and the ebiten monitor sink.
package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

const (
	// FilePrefix marks an input name as a WAV file path.
	FilePrefix = "file:"
	// MonitorName selects the ebiten monitor as the output.
	MonitorName = "monitor"
)

var (
	ErrNoDevice = errors.New("no such audio device")
	ErrFeedback = errors.New("input and output are the same device; enable feedback to allow it")
)

// Info describes one audio endpoint.
type Info struct {
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

func (i Info) IsInput() bool  { return i.MaxInputChannels > 0 }
func (i Info) IsOutput() bool { return i.MaxOutputChannels > 0 }

// List enumerates the devices portaudio can see.
func List() ([]Info, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, infoOf(d))
	}
	return out, nil
}

func infoOf(d *portaudio.DeviceInfo) Info {
	return Info{
		Name:              d.Name,
		MaxInputChannels:  d.MaxInputChannels,
		MaxOutputChannels: d.MaxOutputChannels,
		DefaultSampleRate: d.DefaultSampleRate,
	}
}

// FirstInput returns the name of the first capture-capable device.
func FirstInput(devs []Info) (string, bool) {
	for _, d := range devs {
		if d.IsInput() {
			return d.Name, true
		}
	}
	return "", false
}

// FirstOutput returns the name of the first playback-capable device.
func FirstOutput(devs []Info) (string, bool) {
	for _, d := range devs {
		if d.IsOutput() {
			return d.Name, true
		}
	}
	return "", false
}

// IsFile reports whether name refers to a WAV file and returns its path.
func IsFile(name string) (string, bool) {
	return strings.CutPrefix(name, FilePrefix)
}

// IsMonitor reports whether name selects the monitor sink.
func IsMonitor(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), MonitorName)
}

// CheckFeedback rejects a hardware input/output pair that names the same
// device unless allow is set. File inputs and the monitor never loop back.
func CheckFeedback(input, output string, allow bool) error {
	if allow {
		return nil
	}
	if _, ok := IsFile(input); ok || IsMonitor(output) {
		return nil
	}
	if input != "" && strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(output)) {
		return fmt.Errorf("%w: %q", ErrFeedback, input)
	}
	return nil
}

// match picks a device by exact name, falling back to a unique
// case-insensitive substring match. An empty name selects the default.
func match(devs []Info, name string, input bool) (int, error) {
	usable := func(d Info) bool {
		if input {
			return d.IsInput()
		}
		return d.IsOutput()
	}
	for i, d := range devs {
		if d.Name == name && usable(d) {
			return i, nil
		}
	}
	found := -1
	needle := strings.ToLower(name)
	for i, d := range devs {
		if !usable(d) || !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("device name %q is ambiguous (%q, %q)", name, devs[found].Name, d.Name)
		}
		found = i
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %q", ErrNoDevice, name)
	}
	return found, nil
}
