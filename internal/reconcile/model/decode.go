package model

import (
	"fmt"
	"strings"
)

// ImageFromDocument собирает ImageRecord из сырого документа коллекции imagens.
// Нестроковые элементы paths молча отбрасываются.
func ImageFromDocument(id string, data map[string]any) ImageRecord {
	rec := ImageRecord{
		ID:          id,
		StoragePath: asString(data[FieldStoragePath]),
		SHA256:      asString(data[FieldSHA256]),
	}
	if paths, ok := data[FieldPaths]; ok {
		rec.Paths = Strings(paths)
	}
	if th, ok := data[FieldThumbs].(map[string]any); ok {
		rec.Thumbs = make(map[string]string, len(th))
		for k, v := range th {
			if s := asString(v); s != "" {
				rec.Thumbs[k] = s
			}
		}
	}
	return rec
}

// JourneyFromDocument приводит поле ссылок к виду role -> []string.
// Берётся imagens, при его отсутствии: imagens_original.
func JourneyFromDocument(id string, data map[string]any, fields RoleFields) JourneyRecord {
	j := JourneyRecord{ID: id, Refs: make(map[Role][]string, len(Roles))}
	j.HasOriginal = data[FieldRefsOriginal] != nil

	raw, ok := data[FieldRefs].(map[string]any)
	if !ok {
		raw, ok = data[FieldRefsOriginal].(map[string]any)
	}
	if !ok {
		return j
	}
	j.HasRefs = true
	j.Raw = raw
	for _, r := range Roles {
		j.Refs[r] = Strings(raw[fields.Field(r)])
	}
	return j
}

// Strings: строка или список строк -> []string. Пустые значения пропускаются.
func Strings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}
