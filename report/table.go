package report

import (
	"fmt"
	"io"

	"github.com/notargets/WeierKernel/bench"
	"github.com/olekukonko/tablewriter"
)

// TableSink prints one row per configuration followed by a pass count
type TableSink struct {
	W io.Writer
}

func (s TableSink) Write(rep *bench.Report) error {
	table := tablewriter.NewWriter(s.W)
	table.SetHeader(rep.Headers())
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range rep.Rows {
		table.Append(row.Cells())
	}
	table.Render()

	passed := len(rep.Rows) - len(rep.Failures())
	_, err := fmt.Fprintf(s.W, "%d/%d configurations passed\n", passed, len(rep.Rows))
	return err
}
