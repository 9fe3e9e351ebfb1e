package fxcorpus

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cbegin/fxcorpus-go/internal/wavio"
)

// DefaultCorpusFile is the corpus filename used when BatchConfig.CorpusPath
// is empty. It is placed in the output directory.
const DefaultCorpusFile = "effect_params.json"

// BatchConfig describes one batch run.
type BatchConfig struct {
	SourceDir    string
	OutputDir    string
	CorpusPath   string // default OutputDir/effect_params.json
	Extension    string // default ".wav", matched case-insensitively
	OutputPrefix string // default "processed_"
	Workers      int    // default 1
	Seed         uint64 // 0 draws fresh parameters every run
	OutputFormat string // pcm16, pcm24, pcm32 or float32; default pcm16
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Extension == "" {
		c.Extension = ".wav"
	}
	if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = "processed_"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.CorpusPath == "" && c.OutputDir != "" {
		c.CorpusPath = filepath.Join(c.OutputDir, DefaultCorpusFile)
	}
	if c.OutputFormat == "" {
		c.OutputFormat = FormatPCM16
	}
	return c
}

// Validate checks the configuration before any file is touched.
func (c BatchConfig) Validate() error {
	c = c.withDefaults()
	if c.SourceDir == "" {
		return errors.New("source directory is required")
	}
	info, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", c.SourceDir)
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if _, err := wavio.ParseEncoding(c.OutputFormat); err != nil {
		return err
	}
	return nil
}

// FileResult is the outcome for one source file.
type FileResult struct {
	Filename   string
	OutputPath string // empty unless the output was written
	Params     ParameterSet
	Err        error
	Duration   time.Duration
}

// BatchReport summarizes a run. Results are in directory order.
type BatchReport struct {
	Processed  int
	Failed     int
	Results    []FileResult
	CorpusPath string
}

type BatchOption func(*batchOptions)

type batchOptions struct {
	samplers func(filename string) *Sampler
	codec    Codec
	log      logrus.FieldLogger
	progress func(FileResult)
}

// WithSamplerFactory overrides how each file's sampler is created.
func WithSamplerFactory(f func(filename string) *Sampler) BatchOption {
	return func(o *batchOptions) {
		o.samplers = f
	}
}

// WithCodec replaces the WAV codec.
func WithCodec(c Codec) BatchOption {
	return func(o *batchOptions) {
		o.codec = c
	}
}

func WithLogger(log logrus.FieldLogger) BatchOption {
	return func(o *batchOptions) {
		o.log = log
	}
}

// WithProgress installs a callback invoked once per finished file. It is
// called from worker goroutines.
func WithProgress(f func(FileResult)) BatchOption {
	return func(o *batchOptions) {
		o.progress = f
	}
}

// BatchRunner applies a freshly sampled chain to every file in a directory.
type BatchRunner struct {
	cfg  BatchConfig
	opts batchOptions
}

func NewBatchRunner(cfg BatchConfig, opts ...BatchOption) *BatchRunner {
	cfg = cfg.withDefaults()
	o := batchOptions{
		codec: WAVCodec{Format: cfg.OutputFormat},
		log:   discardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.samplers == nil {
		o.samplers = defaultSamplers(cfg.Seed)
	}
	return &BatchRunner{cfg: cfg, opts: o}
}

func defaultSamplers(seed uint64) func(string) *Sampler {
	if seed == 0 {
		return func(string) *Sampler {
			return NewSampler(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		}
	}
	return func(name string) *Sampler {
		return NewSeededSampler(fileSeed(seed, name))
	}
}

// Run processes every matching file. Per-file failures are recorded in the
// report and do not stop the run. The returned error is non-nil only for a
// setup failure, a corpus write failure or cancellation; in the last two
// cases the report is still returned.
func (r *BatchRunner) Run(ctx context.Context) (*BatchReport, error) {
	cfg := r.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	files, err := r.SourceFiles()
	if err != nil {
		return nil, err
	}
	log := r.opts.log.WithFields(logrus.Fields{"source": cfg.SourceDir, "output": cfg.OutputDir})
	log.WithFields(logrus.Fields{"files": len(files), "workers": cfg.Workers}).Info("starting batch")

	corpus := NewCorpus()
	results := make([]FileResult, len(files))
	done := make([]bool, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, name := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := r.processFile(name, corpus)
			results[i] = res
			done[i] = true
			if r.opts.progress != nil {
				r.opts.progress(res)
			}
			return nil
		})
	}
	g.Wait()

	report := &BatchReport{CorpusPath: cfg.CorpusPath}
	for i, res := range results {
		if !done[i] {
			continue
		}
		report.Results = append(report.Results, res)
		if res.Err != nil {
			report.Failed++
		} else {
			report.Processed++
		}
	}

	if err := corpus.Save(cfg.CorpusPath); err != nil {
		log.WithError(err).Error("failed to save corpus")
		return report, err
	}
	log.WithFields(logrus.Fields{
		"processed": report.Processed,
		"failed":    report.Failed,
		"corpus":    cfg.CorpusPath,
	}).Info("batch finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// SourceFiles lists the files Run would process, sorted by name.
func (r *BatchRunner) SourceFiles() ([]string, error) {
	cfg := r.cfg
	entries, err := os.ReadDir(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	sameDir := filepath.Clean(cfg.SourceDir) == filepath.Clean(cfg.OutputDir)
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), cfg.Extension) {
			continue
		}
		// Earlier outputs written into the source directory are not inputs.
		if sameDir && strings.HasPrefix(name, cfg.OutputPrefix) {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

func (r *BatchRunner) processFile(name string, corpus *Corpus) FileResult {
	start := time.Now()
	res := FileResult{Filename: name, Params: r.opts.samplers(name).Sample()}
	log := r.opts.log.WithField("file", name)

	srcPath := filepath.Join(r.cfg.SourceDir, name)
	outPath := filepath.Join(r.cfg.OutputDir, r.cfg.OutputPrefix+name)
	out, err := ProcessFile(res.Params, srcPath, outPath, r.opts.codec)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		switch {
		case errors.Is(err, ErrLoad):
			log.WithError(err).Warn("skipping unreadable file")
		case errors.Is(err, ErrWrite):
			log.WithError(err).Error("failed to write output")
		default:
			log.WithError(err).Error("effect chain failed")
		}
		return res
	}
	res.OutputPath = outPath
	corpus.Append(name, res.Params)
	log.WithFields(logrus.Fields{
		"output":   outPath,
		"frames":   out.Frames(),
		"channels": out.Channels(),
		"elapsed":  res.Duration.Round(time.Millisecond),
	}).Info("processed file")
	return res
}
