package bench

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var columns = []string{"variant", "op", "elements", "samples", "min", "mean", "max", "elem/s"}

// Print writes results as an aligned table.
func Print(w io.Writer, results []Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Variant.String(),
			string(r.Op),
			fmt.Sprint(r.Elements),
			fmt.Sprint(r.Samples),
			r.Min.String(),
			r.Mean.String(),
			r.Max.String(),
			fmt.Sprintf("%.3g", r.Throughput),
		})
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	bold := color.New(color.Bold)
	bold.Fprintln(w, formatRow(columns, widths))
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}
