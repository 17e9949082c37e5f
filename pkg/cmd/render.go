package cmd

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// renderTable 输出圆角表格，rightCols 为右对齐的列号（从 1 开始）.
func renderTable(w io.Writer, headers []string, rows [][]string, rightCols ...int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}

		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(rightCols))
	for _, n := range rightCols {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}

	tw.SetColumnConfigs(configs)
	tw.Render()
}

// isTerminal w 是否为交互终端.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
