package fileio

import (
	"fmt"

	"image-recon/internal/reconcile/model"
	"image-recon/internal/store"
)

// Варианты заголовков колонок при импорте.
const (
	colID          = "id|_id|doc_id|documento"
	colStoragePath = "storage_path|caminho"
	colPaths       = "paths|alt_paths|caminhos"
	colSHA256      = "sha256|hash"
	colThumbPrefix = "thumb_"
)

// ImportStats: сколько строк взято и сколько пропущено.
type ImportStats struct {
	Rows    int
	Skipped int
}

// ImageDocuments собирает документы imagens из строк таблицы.
// Строки без id пропускаются.
func ImageDocuments(recs []map[string]string, fields model.RoleFields) ([]store.Document, ImportStats, error) {
	var st ImportStats
	if len(recs) == 0 {
		return nil, st, nil
	}
	keys := resolveKeys(recs[0], colID, colStoragePath, colPaths, colSHA256)
	idKey, spKey, pathsKey, shaKey := keys[0], keys[1], keys[2], keys[3]
	if idKey == "" {
		return nil, st, fmt.Errorf("no id column (want %s)", colID)
	}

	docs := make([]store.Document, 0, len(recs))
	for _, rec := range recs {
		id := rec[idKey]
		if id == "" {
			st.Skipped++
			continue
		}
		data := map[string]any{}
		if v := rec[spKey]; spKey != "" && v != "" {
			data[model.FieldStoragePath] = v
		}
		if pathsKey != "" {
			if ps := splitMulti(rec[pathsKey]); len(ps) > 0 {
				data[model.FieldPaths] = toAny(ps)
			}
		}
		if v := rec[shaKey]; shaKey != "" && v != "" {
			data[model.FieldSHA256] = v
		}
		thumbs := map[string]any{}
		for _, role := range model.Roles {
			field := fields.Field(role)
			if k := resolveKey(rec, colThumbPrefix+field); k != "" && rec[k] != "" {
				thumbs[field] = rec[k]
			}
		}
		if len(thumbs) > 0 {
			data[model.FieldThumbs] = thumbs
		}
		docs = append(docs, store.Document{ID: id, Data: data})
		st.Rows++
	}
	return docs, st, nil
}

// JourneyDocuments собирает документы jornadas. Одна ссылка в ячейке
// пишется строкой, несколько списком, как в исторических данных.
func JourneyDocuments(recs []map[string]string, fields model.RoleFields) ([]store.Document, ImportStats, error) {
	var st ImportStats
	if len(recs) == 0 {
		return nil, st, nil
	}
	idKey := resolveKey(recs[0], colID)
	if idKey == "" {
		return nil, st, fmt.Errorf("no id column (want %s)", colID)
	}
	roleKeys := make(map[model.Role]string, len(model.Roles))
	for _, role := range model.Roles {
		roleKeys[role] = resolveKey(recs[0], fields.Field(role)+"|"+string(role))
	}

	docs := make([]store.Document, 0, len(recs))
	for _, rec := range recs {
		id := rec[idKey]
		if id == "" {
			st.Skipped++
			continue
		}
		refs := map[string]any{}
		for _, role := range model.Roles {
			k := roleKeys[role]
			if k == "" {
				continue
			}
			switch vals := splitMulti(rec[k]); len(vals) {
			case 0:
			case 1:
				refs[fields.Field(role)] = vals[0]
			default:
				refs[fields.Field(role)] = toAny(vals)
			}
		}
		data := map[string]any{}
		if len(refs) > 0 {
			data[model.FieldRefs] = refs
		}
		docs = append(docs, store.Document{ID: id, Data: data})
		st.Rows++
	}
	return docs, st, nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
