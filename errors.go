package fxcorpus

import (
	"errors"
	"fmt"
)

var (
	ErrLoad          = errors.New("load failed")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrDevice        = errors.New("device error")
	ErrWrite         = errors.New("write failed")
	ErrOutOfRange    = errors.New("parameter out of range")
	ErrMissingParam  = errors.New("missing parameter")

	// ErrRunnerUsed is returned by a second StreamRunner.Run call.
	ErrRunnerUsed = errors.New("stream runner already used")
)

// LoadError means a source file could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string        { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error        { return e.Err }
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ShapeMismatchError means a stage changed the channel count, frame count
// or sample rate of its buffer.
type ShapeMismatchError struct {
	Stage string
	Want  Shape
	Got   Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("stage %s: shape mismatch: want %s, got %s", e.Stage, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// DeviceError is an unrecoverable audio device failure.
type DeviceError struct {
	Op     string // open, read, write or close
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("device %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("device %s %q: %v", e.Op, e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error        { return e.Err }
func (e *DeviceError) Is(target error) bool { return target == ErrDevice }

// WriteError means an output file or the corpus could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string        { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error        { return e.Err }
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// OutOfRangeError names a parameter outside its declared range.
type OutOfRangeError struct {
	Key      string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s = %g outside [%g, %g]", e.Key, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }
