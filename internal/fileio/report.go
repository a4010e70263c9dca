package fileio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"image-recon/internal/reconcile/model"
)

// ReportHeader: фиксированные колонки отчёта.
var ReportHeader = []string{
	"jornada_id",
	"matched_roles",
	"missing_roles",
	"details",
	"status_images",
	"confidence_summary",
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// ReportRecords: строки отчёта как таблица (с заголовком).
func ReportRecords(rows []model.Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, ReportHeader)
	for _, r := range rows {
		missing := joinRoles(r.MissingRoles)
		conf := ""
		if r.HasRefs {
			conf = fmt.Sprintf("%.3f", r.Confidence)
		} else {
			missing = "all"
		}
		out = append(out, []string{
			r.JourneyID,
			joinRoles(r.MatchedRoles),
			missing,
			lineBreaks.Replace(strings.Join(r.Details, " | ")),
			string(r.Status),
			conf,
		})
	}
	return out
}

// WriteReport пишет отчёт одним заходом: .xlsx через excelize, иначе CSV.
func WriteReport(path string, rows []model.Row) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	records := ReportRecords(rows)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		if err := writeXLSX(path, records); err != nil {
			return fmt.Errorf("write xlsx report: %w", err)
		}
		return nil
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

func joinRoles(roles []model.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ";")
}
