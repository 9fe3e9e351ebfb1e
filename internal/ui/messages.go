package ui

import (
	fxcorpus "github.com/cbegin/fxcorpus-go"
)

// FileDoneMsg reports one finished file, successful or not.
type FileDoneMsg struct {
	Result fxcorpus.FileResult
}

// BatchDoneMsg ends the run.
type BatchDoneMsg struct {
	Report *fxcorpus.BatchReport
	Err    error
}
