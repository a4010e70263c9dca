package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ReadOptions: где в файле лежит таблица.
type ReadOptions struct {
	HeaderRow int    // строка заголовков (1-based)
	Sheet     string // лист xls/xlsx; пусто: первый
}

// ReadAnyMaps: выберет парсер по расширению и вернёт строки как срез map[header]value.
func ReadAnyMaps(r io.Reader, filename string, opt ReadOptions) ([]map[string]string, error) {
	if opt.HeaderRow <= 0 {
		opt.HeaderRow = 1
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, opt)
	case ".xls":
		return readXLS(r, opt)
	case ".csv", ".txt":
		return readCSV(r, opt.HeaderRow)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// pickHeader: берёт строку заголовков, срезает BOM и подставляет Column N для пустых.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = normalizeCell(strings.TrimPrefix(v, "\ufeff"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps: конвертирует AoA в []map по заголовкам, пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	var out []map[string]string
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c, h := range headers {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[h] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// normalizeCell: NBSP -> пробел, обрезка краёв.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	return strings.TrimSpace(s)
}
