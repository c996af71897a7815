package bench

import (
	"github.com/notargets/WeierKernel/weierstrass"
)

// Row is the outcome of one configuration. Results are indexed in backend
// order: sequential, parallel, device.
type Row struct {
	Config  weierstrass.Config
	Results [3]Result
	Outcome Outcome
}

// Cells is the row shape handed to presentation sinks: the configuration
// label, one value/time cell per backend and the check verdict
func (r Row) Cells() []string {
	cells := make([]string, 0, len(r.Results)+2)
	cells = append(cells, r.Config.Label())
	for _, res := range r.Results {
		cells = append(cells, res.Cell())
	}
	return append(cells, r.Outcome.String())
}

// Report is the aggregate of a harness run
type Report struct {
	Backends []string
	Rows     []Row
}

// Headers names the columns of Cells
func (rep *Report) Headers() []string {
	headers := make([]string, 0, len(rep.Backends)+2)
	headers = append(headers, "config")
	headers = append(headers, rep.Backends...)
	return append(headers, "check")
}

// Passed reports whether every row validated
func (rep *Report) Passed() bool {
	for _, r := range rep.Rows {
		if r.Outcome != OK {
			return false
		}
	}
	return true
}

// Failures returns the rows that did not validate
func (rep *Report) Failures() []Row {
	var failed []Row
	for _, r := range rep.Rows {
		if r.Outcome != OK {
			failed = append(failed, r)
		}
	}
	return failed
}
