package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
	// alignWrap is left aligned and soft-wrapped at wrapWidth.
	alignWrap
)

const wrapWidth = 60

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if i < len(aligns) {
			switch aligns[i] {
			case alignRight:
				cfg.Align = text.AlignRight
			case alignWrap:
				cfg.WidthMax = wrapWidth
				cfg.WidthMaxEnforcer = text.WrapSoft
			}
		}
		columnConfigs = append(columnConfigs, cfg)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
