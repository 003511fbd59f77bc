package reporter

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummaryTable prints the per-job batch summary as an aligned table
// (spec §4.8 "summarize"), grounded on the spindle manifest's use of
// go-pretty for its own batch status tables.
func RenderSummaryTable(results []JobResult) {
	if len(results) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"File", "Status", "Reduction"})
	for _, r := range results {
		reduction := "-"
		if r.Status == "COMPLETED" {
			reduction = formatPercent(r.Reduction)
		}
		t.AppendRow(table.Row{r.Filename, r.Status, reduction})
	}
	t.Render()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
