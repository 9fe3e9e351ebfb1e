package fxcorpus

import (
	"io"

	"github.com/sirupsen/logrus"
)

// discardLogger is the default for components built without WithLogger.
func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
