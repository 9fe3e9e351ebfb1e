package fxcorpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
)

// Scale factors applied to the normalized distortion and delay parameters
// before the stages are configured.
const (
	DistortionDriveScale = 40.0 // distortion_gain 0..1 → drive 0..40 dB
	DelayTimeScale       = 0.5  // delay_time → seconds
)

// ParameterSet is one draw of every effect parameter.
type ParameterSet struct {
	ReverbRoomSize      float64 `json:"reverb_room_size"`
	DistortionGain      float64 `json:"distortion_gain"`
	DelayTime           float64 `json:"delay_time"`
	DelayMix            float64 `json:"delay_mix"`
	CompressorThreshold float64 `json:"compressor_threshold"`
	GainDB              float64 `json:"gain_db"`
	ChorusDepth         float64 `json:"chorus_depth"`
	ChorusRate          float64 `json:"chorus_rate"`
	ChorusMix           float64 `json:"chorus_mix"`
	PhaserRate          float64 `json:"phaser_rate"`
	HighpassCutoff      float64 `json:"highpass_cutoff"`
	LowpassCutoff       float64 `json:"lowpass_cutoff"`
	PitchShiftSemitones float64 `json:"pitch_shift_semitones"`
}

// ParamRange is the inclusive range of one parameter.
type ParamRange struct {
	Key      string
	Min, Max float64
}

// Ranges lists every parameter in sampling order.
var Ranges = []ParamRange{
	{"reverb_room_size", 0.1, 1.0},
	{"distortion_gain", 0, 1},
	{"delay_time", 0.01, 1.0},
	{"delay_mix", 0.1, 1.0},
	{"compressor_threshold", -40, 0},
	{"gain_db", -12, 12},
	{"chorus_depth", 0.1, 0.8},
	{"chorus_rate", 0.1, 2.0},
	{"chorus_mix", 0.1, 0.6},
	{"phaser_rate", 0.1, 0.8},
	{"highpass_cutoff", 20, 1000},
	{"lowpass_cutoff", 2000, 10000},
	{"pitch_shift_semitones", -8, 8},
}

// Field is a named parameter value.
type Field struct {
	Key   string
	Value float64
}

// Fields returns the parameters in the order of Ranges.
func (p ParameterSet) Fields() []Field {
	ptrs := p.fieldPtrs()
	out := make([]Field, len(ptrs))
	for i, v := range ptrs {
		out[i] = Field{Key: Ranges[i].Key, Value: *v}
	}
	return out
}

func (p *ParameterSet) fieldPtrs() []*float64 {
	return []*float64{
		&p.ReverbRoomSize,
		&p.DistortionGain,
		&p.DelayTime,
		&p.DelayMix,
		&p.CompressorThreshold,
		&p.GainDB,
		&p.ChorusDepth,
		&p.ChorusRate,
		&p.ChorusMix,
		&p.PhaserRate,
		&p.HighpassCutoff,
		&p.LowpassCutoff,
		&p.PitchShiftSemitones,
	}
}

// Validate reports the first parameter outside its range. NaN is never in
// range.
func (p ParameterSet) Validate() error {
	for i, f := range p.Fields() {
		r := Ranges[i]
		if !(f.Value >= r.Min && f.Value <= r.Max) {
			return &OutOfRangeError{Key: r.Key, Value: f.Value, Min: r.Min, Max: r.Max}
		}
	}
	return nil
}

// DriveDB is the distortion drive after scaling.
func (p ParameterSet) DriveDB() float64 { return p.DistortionGain * DistortionDriveScale }

// DelaySeconds is the delay time after scaling.
func (p ParameterSet) DelaySeconds() float64 { return p.DelayTime * DelayTimeScale }

// DefaultLiveParams is the example set used for live processing when no
// parameter file is given.
func DefaultLiveParams() ParameterSet {
	return ParameterSet{
		ReverbRoomSize:      0.5,
		DistortionGain:      0.2,
		DelayTime:           0.4,
		DelayMix:            0.3,
		CompressorThreshold: -20,
		GainDB:              6,
		ChorusDepth:         0.4,
		ChorusRate:          1.0,
		ChorusMix:           0.5,
		PhaserRate:          0.5,
		HighpassCutoff:      500,
		LowpassCutoff:       5000,
		PitchShiftSemitones: -2,
	}
}

// LoadParams reads a single parameter set from a JSON file and validates it.
func LoadParams(path string) (ParameterSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParameterSet{}, err
	}
	var ps ParameterSet
	if err := decodeRecord(raw, &ps); err != nil {
		return ParameterSet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ps.Validate(); err != nil {
		return ParameterSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// decodeRecord decodes one flat JSON object into dst. Every parameter key
// must appear exactly once and keys dst does not know are rejected.
func decodeRecord(data []byte, dst any) error {
	seen, err := objectKeys(data)
	if err != nil {
		return err
	}
	for _, r := range Ranges {
		if !seen[r.Key] {
			return fmt.Errorf("%w %q", ErrMissingParam, r.Key)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// objectKeys lists the top-level keys of a JSON object, failing on
// duplicates.
func objectKeys(data []byte) (map[string]bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if seen[key] {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return seen, nil
}

// Save writes p as indented JSON.
func (p ParameterSet) Save(path string) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(raw, '\n'))
}

// RandSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Sampler draws ParameterSets from a RandSource. A Sampler is not safe for
// concurrent use; give each goroutine its own.
type Sampler struct {
	src RandSource
}

// NewSampler panics if src is nil.
func NewSampler(src RandSource) *Sampler {
	if src == nil {
		panic("fxcorpus: NewSampler called with nil RandSource")
	}
	return &Sampler{src: src}
}

// NewSeededSampler returns a deterministic PCG-backed sampler.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample draws each parameter uniformly from its range.
func (s *Sampler) Sample() ParameterSet {
	var ps ParameterSet
	for i, v := range ps.fieldPtrs() {
		r := Ranges[i]
		x := r.Min + s.src.Float64()*(r.Max-r.Min)
		*v = min(max(x, r.Min), r.Max)
	}
	return ps
}

// fileSeed derives a per-file seed so a file's parameters do not depend on
// processing order.
func fileSeed(seed uint64, filename string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(filename))
	return seed ^ h.Sum64()
}
