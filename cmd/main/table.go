package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"image-recon/internal/reconcile/model"
	"image-recon/internal/reconcile/service"
)

// renderTable: первая колонка слева, числовые (numeric[i]) справа.
func renderTable(title string, headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

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

	right := make(map[int]bool, len(numeric))
	for _, n := range numeric {
		right[n] = true
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func summaryTable(s model.Summary, policy string) string {
	itoa := strconv.Itoa
	return renderTable("run summary", []string{"Counter", "Value"}, [][]string{
		{"policy", policy},
		{"processed", itoa(s.Processed)},
		{"proposed", itoa(s.Proposed)},
		{"succeeded", itoa(s.Succeeded)},
		{"failed", itoa(s.Failed)},
		{"skipped", itoa(s.Skipped)},
	}, 1)
}

func statsTable(st service.Stats) string {
	itoa := strconv.Itoa
	return renderTable("index", []string{"Bucket", "Size"}, [][]string{
		{"images", itoa(st.Images)},
		{"exact keys", itoa(st.ExactKeys)},
		{"filenames", itoa(st.Filenames)},
		{"normalized buckets", itoa(st.Buckets)},
		{"fuzzy scan keys", itoa(st.ScanKeys)},
		{"skipped paths", itoa(st.SkippedPaths)},
	}, 1)
}
