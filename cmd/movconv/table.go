package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one column of a history table.
type column struct {
	header string
	// numeric columns are right aligned and summed into the footer.
	numeric bool
	// maxWidth elides longer cells from the left so file names stay visible.
	maxWidth int
}

const ellipsis = "…"

// renderTable draws rows under cols. With totals set, a footer row sums the
// numeric columns.
func renderTable(title string, cols []column, rows [][]string, totals bool) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.header
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = elideLeft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	sums := make([]int, len(cols))
	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			r[i] = cell
			if cols[i].numeric {
				if n, err := strconv.Atoi(cell); err == nil {
					sums[i] += n
				}
			}
		}
		tw.AppendRow(r)
	}

	if totals && len(rows) > 1 {
		footer := make(table.Row, len(cols))
		footer[0] = "Total"
		for i := 1; i < len(cols); i++ {
			if cols[i].numeric {
				footer[i] = strconv.Itoa(sums[i])
			}
		}
		tw.AppendFooter(footer)
	}
	return tw.Render()
}

// elideLeft keeps the last maxLen runes of value, marking the cut.
func elideLeft(value string, maxLen int) string {
	runes := []rune(value)
	if maxLen <= 0 || len(runes) <= maxLen {
		return value
	}
	if maxLen == 1 {
		return ellipsis
	}
	return ellipsis + string(runes[len(runes)-maxLen+1:])
}
