package fxcorpus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	intaudio "github.com/cbegin/fxcorpus-go/internal/audio"
)

// StreamConfig selects the devices and block format of a live session.
type StreamConfig = intaudio.DeviceConfig

// InputDevice yields fixed-size blocks; OutputDevice accepts them.
type (
	InputDevice  = intaudio.Source
	OutputDevice = intaudio.Sink
)

// DeviceOpener opens an input/output pair for a session.
type DeviceOpener interface {
	Open(cfg StreamConfig) (InputDevice, OutputDevice, error)
}

// State is a StreamRunner lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateOpening
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StreamStats counts what happened during a session.
type StreamStats struct {
	Blocks           int64 // blocks written to the output
	ProcessingErrors int64 // blocks replaced by silence
	Xruns            int64 // input overflows and output underflows
	DeadlineMisses   int64 // blocks that took longer than one period to process
}

type StreamOption func(*streamOptions)

type streamOptions struct {
	log  logrus.FieldLogger
	hook func(from, to State)
}

func WithStreamLogger(log logrus.FieldLogger) StreamOption {
	return func(o *streamOptions) {
		o.log = log
	}
}

// WithStateHook observes every state transition. It runs on the goroutine
// that called Run.
func WithStateHook(hook func(from, to State)) StreamOption {
	return func(o *streamOptions) {
		o.hook = hook
	}
}

// StreamRunner pulls blocks from an input device, runs them through one
// chain and writes them to an output device until its context ends.
type StreamRunner struct {
	cfg    StreamConfig
	params ParameterSet
	opener DeviceOpener
	opts   streamOptions

	used  atomic.Bool
	state atomic.Int32

	blocks    atomic.Int64
	procErrs  atomic.Int64
	xruns     atomic.Int64
	deadlines atomic.Int64
}

func NewStreamRunner(cfg StreamConfig, params ParameterSet, opener DeviceOpener, opts ...StreamOption) *StreamRunner {
	o := streamOptions{log: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &StreamRunner{cfg: cfg, params: params, opener: opener, opts: o}
}

// State may be called from any goroutine.
func (r *StreamRunner) State() State { return State(r.state.Load()) }

func (r *StreamRunner) Stats() StreamStats {
	return StreamStats{
		Blocks:           r.blocks.Load(),
		ProcessingErrors: r.procErrs.Load(),
		Xruns:            r.xruns.Load(),
		DeadlineMisses:   r.deadlines.Load(),
	}
}

func (r *StreamRunner) transition(to State) {
	from := State(r.state.Swap(int32(to)))
	r.opts.log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("stream state")
	if r.opts.hook != nil {
		r.opts.hook(from, to)
	}
}

// Run opens the devices and processes blocks until ctx is cancelled or a
// device fails. Cancellation is checked between blocks: the block in
// flight is still written, nothing after it is. A clean stop returns nil.
func (r *StreamRunner) Run(ctx context.Context) error {
	if !r.used.CompareAndSwap(false, true) {
		return ErrRunnerUsed
	}
	cfg := r.cfg
	log := r.opts.log.WithFields(logrus.Fields{
		"input":       cfg.InputDevice,
		"output":      cfg.OutputDevice,
		"channels":    cfg.Channels,
		"sample_rate": cfg.SampleRate,
		"block_size":  cfg.BlockSize,
	})

	r.transition(StateOpening)
	if cfg.BlockSize <= 0 {
		r.transition(StateClosed)
		return fmt.Errorf("invalid block size %d", cfg.BlockSize)
	}
	chain, err := BuildChain(r.params, cfg.SampleRate, cfg.Channels)
	if err != nil {
		r.transition(StateClosed)
		return fmt.Errorf("build chain: %w", err)
	}
	if r.opener == nil {
		r.transition(StateClosed)
		return &DeviceError{Op: "open", Err: errors.New("no device opener")}
	}
	in, out, err := r.opener.Open(cfg)
	if err != nil {
		r.transition(StateClosed)
		return &DeviceError{Op: "open", Device: deviceLabel(cfg), Err: err}
	}

	r.transition(StateRunning)
	log.Info("processing live audio")
	runErr := r.loop(ctx, log, chain, in, out)

	r.transition(StateDraining)
	closeErr := errors.Join(in.Close(), out.Close())
	r.transition(StateClosed)

	if runErr != nil {
		log.WithError(runErr).Error("stream stopped")
		return runErr
	}
	if closeErr != nil {
		return &DeviceError{Op: "close", Device: deviceLabel(cfg), Err: closeErr}
	}
	log.WithFields(logrus.Fields{"blocks": r.blocks.Load(), "xruns": r.xruns.Load()}).Info("stream stopped")
	return nil
}

func (r *StreamRunner) loop(ctx context.Context, log logrus.FieldLogger, chain *Chain, in InputDevice, out OutputDevice) error {
	cfg := r.cfg
	blk := NewBuffer(cfg.Channels, cfg.BlockSize, cfg.SampleRate)
	period := time.Duration(float64(cfg.BlockSize) / float64(cfg.SampleRate) * float64(time.Second))

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := in.ReadBlock(blk); err != nil {
			if !intaudio.IsTransient(err) {
				return &DeviceError{Op: "read", Device: cfg.InputDevice, Err: err}
			}
			r.xruns.Add(1)
			log.WithError(err).Debug("input xrun")
		}

		start := time.Now()
		processed, err := chain.Apply(blk)
		if err != nil {
			r.procErrs.Add(1)
			log.WithError(err).Warn("block processing failed; writing silence")
			blk.Clear()
			processed = blk
		}
		if elapsed := time.Since(start); elapsed > period {
			r.deadlines.Add(1)
			log.WithFields(logrus.Fields{"elapsed": elapsed, "period": period}).Debug("missed block deadline")
		}

		if err := out.WriteBlock(processed); err != nil {
			if !intaudio.IsTransient(err) {
				return &DeviceError{Op: "write", Device: cfg.OutputDevice, Err: err}
			}
			r.xruns.Add(1)
			log.WithError(err).Debug("output xrun")
		}
		r.blocks.Add(1)
	}
}

func deviceLabel(cfg StreamConfig) string {
	return cfg.InputDevice + " -> " + cfg.OutputDevice
}
