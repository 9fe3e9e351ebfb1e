// Package ui provides the Bubbletea progress view for batch runs.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	fxcorpus "github.com/cbegin/fxcorpus-go"
)

// FileStatus is the processing state of one source file.
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusComplete
	StatusError
)

// FileProgress tracks one source file.
type FileProgress struct {
	Name       string
	OutputPath string
	Status     FileStatus
	Params     fxcorpus.ParameterSet
	Duration   time.Duration
	Error      error
}

// Model is the Bubbletea model for a batch run.
type Model struct {
	Files          []FileProgress
	index          map[string]int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	Workers   int
	StartTime time.Time
	Done      bool
	Aborted   bool
	Report    *fxcorpus.BatchReport
	Err       error

	// Cancel stops the batch when the user quits early.
	Cancel func()

	Width  int
	Height int
}

// NewModel creates a model with every file queued.
func NewModel(files []string, workers int, cancel func()) Model {
	m := Model{
		Files:      make([]FileProgress, len(files)),
		index:      make(map[string]int, len(files)),
		TotalFiles: len(files),
		Workers:    workers,
		StartTime:  time.Now(),
		Cancel:     cancel,
	}
	for i, name := range files {
		m.Files[i] = FileProgress{Name: name, Status: StatusQueued}
		m.index[name] = i
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.Cancel != nil {
				m.Cancel()
			}
			m.Aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case FileDoneMsg:
		res := msg.Result
		i, ok := m.index[res.Filename]
		if !ok {
			return m, nil
		}
		fp := &m.Files[i]
		fp.Params = res.Params
		fp.Duration = res.Duration
		fp.OutputPath = res.OutputPath
		fp.Error = res.Err
		if res.Err != nil {
			fp.Status = StatusError
			m.FailedFiles++
		} else {
			fp.Status = StatusComplete
			m.CompletedFiles++
		}

	case BatchDoneMsg:
		m.Done = true
		m.Report = msg.Report
		m.Err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.Done || m.Aborted {
		return renderFinal(m)
	}
	return renderProcessingView(m)
}
