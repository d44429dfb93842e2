package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/validate"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable draws rows under headers. Short rows are padded; cells past
// the header width are dropped.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	toRow := func(cells []string) table.Row {
		row := make(table.Row, len(headers))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		return row
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(toRow(headers))
	for _, cells := range rows {
		tw.AppendRow(toRow(cells))
	}
	return tw.Render()
}

// isTerminal reports whether w is an interactive terminal. Tables are only
// drawn for terminals; pipes get one tab-separated line per row.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// writeRows draws a table on a terminal and tab-separated lines otherwise.
func writeRows(cmd *cobra.Command, headers []string, rows [][]string) {
	out := cmd.OutOrStdout()
	if isTerminal(out) {
		fmt.Fprintln(out, renderTable(headers, rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

// blockingError is returned when a report holds blocking violations so the
// process exits non-zero after the report has been printed.
type blockingError struct {
	count int
}

func (e blockingError) Error() string {
	if e.count == 1 {
		return "1 blocking violation"
	}
	return fmt.Sprintf("%d blocking violations", e.count)
}

// writeReport prints one line per violation and returns a blockingError when
// the report does not pass.
func writeReport(cmd *cobra.Command, report validate.Report) error {
	out := cmd.OutOrStdout()
	for _, line := range report.Lines() {
		fmt.Fprintln(out, line)
	}
	if blocking := report.Blocking(); len(blocking) > 0 {
		return blockingError{count: len(blocking)}
	}
	return nil
}
