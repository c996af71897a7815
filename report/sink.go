// Package report renders a harness report for people: a text table for the
// terminal and an HTML timing chart.
package report

import (
	"errors"

	"github.com/notargets/WeierKernel/bench"
)

// Sink consumes a finished report
type Sink interface {
	Write(rep *bench.Report) error
}

// WriteAll hands rep to every sink, continuing past failures
func WriteAll(rep *bench.Report, sinks ...Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Write(rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
