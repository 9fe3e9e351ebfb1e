package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/sirupsen/logrus"

	fxcorpus "github.com/cbegin/fxcorpus-go"
	"github.com/cbegin/fxcorpus-go/internal/cli"
	"github.com/cbegin/fxcorpus-go/internal/device"
	"github.com/cbegin/fxcorpus-go/internal/ui"
)

var (
	version = "0.1.0"
)

type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface
type CLI struct {
	Version   versionFlag `short:"v" help:"Show version information"`
	LogLevel  string      `default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string      `default:"text" enum:"text,json" help:"Log format (text, json)"`

	Batch   BatchCmd   `cmd:"" help:"Apply a random effect chain to every file in a directory"`
	Live    LiveCmd    `cmd:"" help:"Run one effect chain on a live input"`
	Devices DevicesCmd `cmd:"" help:"List audio devices"`
	Sample  SampleCmd  `cmd:"" help:"Draw one random parameter set"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("fxcorpus"),
		kong.Description("Randomized audio effect chains for corpus generation and live play"),
		kong.UsageOnError(),
		kong.DefaultEnvars("FXCORPUS"),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	logger, err := newLogger(cliArgs.LogLevel, cliArgs.LogFormat)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if err := ctx.Run(logger); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func newLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

type BatchCmd struct {
	Source  string `short:"s" required:"" type:"existingdir" help:"Directory of source WAV files"`
	Output  string `short:"o" required:"" type:"path" help:"Directory for processed files"`
	Corpus  string `type:"path" help:"Corpus JSON path (default OUTPUT/effect_params.json)"`
	Workers int    `short:"w" default:"1" help:"Files processed concurrently"`
	Seed    uint64 `help:"Base seed; 0 draws fresh parameters every run"`
	Format  string `default:"pcm16" enum:"pcm16,pcm24,pcm32,float32" help:"Output sample format"`
	Plain   bool   `help:"Log lines instead of the progress view"`
}

func (c *BatchCmd) Run(logger *logrus.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := fxcorpus.BatchConfig{
		SourceDir:    c.Source,
		OutputDir:    c.Output,
		CorpusPath:   c.Corpus,
		Workers:      c.Workers,
		Seed:         c.Seed,
		OutputFormat: c.Format,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	var (
		report *fxcorpus.BatchReport
		err    error
	)
	if !c.Plain && term.IsTerminal(os.Stdout.Fd()) {
		report, err = runBatchUI(ctx, cfg)
	} else {
		report, err = fxcorpus.NewBatchRunner(cfg, fxcorpus.WithLogger(logger)).Run(ctx)
	}
	if report == nil {
		return err
	}

	cli.PrintBatchSummary(os.Stdout, report, time.Since(start))
	return batchExit(logger, err)
}

// batchExit decides the command's result once a run has produced a
// report. An interrupted run and a corpus that could not be written are
// reported but still count as a completed run.
func batchExit(logger logrus.FieldLogger, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		logger.Warn("batch interrupted")
		return nil
	case errors.Is(err, fxcorpus.ErrWrite):
		cli.PrintError(err.Error())
		logger.WithError(err).Error("corpus not saved")
		return nil
	default:
		return err
	}
}

type batchResult struct {
	report *fxcorpus.BatchReport
	err    error
}

func runBatchUI(ctx context.Context, cfg fxcorpus.BatchConfig) (*fxcorpus.BatchReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files, err := fxcorpus.NewBatchRunner(cfg).SourceFiles()
	if err != nil {
		return nil, err
	}
	p := tea.NewProgram(ui.NewModel(files, max(cfg.Workers, 1), cancel))
	runner := fxcorpus.NewBatchRunner(cfg, fxcorpus.WithProgress(func(res fxcorpus.FileResult) {
		p.Send(ui.FileDoneMsg{Result: res})
	}))

	done := make(chan batchResult, 1)
	go func() {
		report, err := runner.Run(ctx)
		p.Send(ui.BatchDoneMsg{Report: report, Err: err})
		done <- batchResult{report, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	res := <-done
	return res.report, res.err
}

type LiveCmd struct {
	Input         string `short:"i" help:"Input device name, or file:PATH to loop a WAV file"`
	Output        string `short:"o" help:"Output device name, or 'monitor'"`
	Channels      int    `default:"1" help:"Channel count"`
	SampleRate    int    `default:"44100" help:"Sample rate in Hz"`
	BlockSize     int    `default:"1024" help:"Frames per block"`
	Params        string `type:"existingfile" help:"Parameter set JSON (default: the built-in live preset)"`
	AllowFeedback bool   `help:"Allow the same device for input and output"`
}

func (c *LiveCmd) Run(logger *logrus.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := fxcorpus.StreamConfig{
		InputDevice:   c.Input,
		OutputDevice:  c.Output,
		Channels:      c.Channels,
		SampleRate:    c.SampleRate,
		BlockSize:     c.BlockSize,
		AllowFeedback: c.AllowFeedback,
	}
	if err := defaultDevices(&cfg); err != nil {
		return err
	}

	params := fxcorpus.DefaultLiveParams()
	if c.Params != "" {
		var err error
		if params, err = fxcorpus.LoadParams(c.Params); err != nil {
			return err
		}
	}

	log := logger.WithField("component", "live")
	runner := fxcorpus.NewStreamRunner(cfg, params, &device.Opener{Log: log}, fxcorpus.WithStreamLogger(log))
	cli.PrintKV(os.Stdout, "Input", cfg.InputDevice)
	cli.PrintKV(os.Stdout, "Output", cfg.OutputDevice)
	cli.PrintKV(os.Stdout, "Format", fmt.Sprintf("%d ch @ %d Hz, %d frames", cfg.Channels, cfg.SampleRate, cfg.BlockSize))

	err := runner.Run(ctx)
	stats := runner.Stats()
	log.WithFields(logrus.Fields{
		"blocks":          stats.Blocks,
		"xruns":           stats.Xruns,
		"processing_errs": stats.ProcessingErrors,
		"deadline_misses": stats.DeadlineMisses,
	}).Info("stream closed")
	if err != nil {
		return err
	}
	fmt.Println(cli.OKStyle.Render("stopped"))
	return nil
}

// defaultDevices fills empty device names with the first hardware device of
// each direction.
func defaultDevices(cfg *fxcorpus.StreamConfig) error {
	if cfg.InputDevice != "" && cfg.OutputDevice != "" {
		return nil
	}
	devs, err := device.List()
	if err != nil {
		return err
	}
	if cfg.InputDevice == "" {
		name, ok := device.FirstInput(devs)
		if !ok {
			return fmt.Errorf("%w: no input device", device.ErrNoDevice)
		}
		cfg.InputDevice = name
	}
	if cfg.OutputDevice == "" {
		name, ok := device.FirstOutput(devs)
		if !ok {
			return fmt.Errorf("%w: no output device", device.ErrNoDevice)
		}
		cfg.OutputDevice = name
	}
	return nil
}

type DevicesCmd struct{}

func (c *DevicesCmd) Run(logger *logrus.Logger) error {
	devs, err := device.List()
	if err != nil {
		return err
	}
	logger.WithField("count", len(devs)).Debug("enumerated devices")
	printDevices(os.Stdout, "Input devices", devs, device.Info.IsInput)
	printDevices(os.Stdout, "Output devices", devs, device.Info.IsOutput)
	return nil
}

func printDevices(w io.Writer, title string, devs []device.Info, keep func(device.Info) bool) {
	fmt.Fprintln(w, cli.TitleStyle.Render(title))
	n := 0
	for _, d := range devs {
		if !keep(d) {
			continue
		}
		n++
		cli.PrintKV(w, d.Name, fmt.Sprintf("in %d / out %d, %.0f Hz", d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate))
	}
	if n == 0 {
		fmt.Fprintln(w, cli.KeyStyle.Render("  (none)"))
	}
}

type SampleCmd struct {
	Seed uint64 `help:"Seed; 0 draws a fresh set"`
	Out  string `type:"path" help:"Write the set as JSON instead of printing it"`
}

func (c *SampleCmd) Run(logger *logrus.Logger) error {
	sampler := fxcorpus.NewSeededSampler(c.Seed)
	if c.Seed == 0 {
		sampler = fxcorpus.NewSampler(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	ps := sampler.Sample()
	if c.Out == "" {
		cli.PrintParams(os.Stdout, ps)
		return nil
	}
	if err := ps.Save(c.Out); err != nil {
		return err
	}
	logger.WithField("path", c.Out).Info("saved parameter set")
	return nil
}
