package service

import (
	"regexp"
	"strings"
)

// разделители токенов: _ - и любые пробелы
var reTokenSep = regexp.MustCompile(`[_\-\s\p{Z}]+`)

// хвостовые токены-«шум»: hex от 6 символов (сюда же попадают 6+ цифр)
var reVolatile = regexp.MustCompile(`^(?:[0-9a-fA-F]{6,}|\d{6,})$`)

// всё, что не [a-z0-9_], схлопывается в пробел
var reNonKey = regexp.MustCompile(`[^a-z0-9_]+`)

// Normalize превращает имя файла в ключ сравнения:
// "Foto_Depois-1699999999.JPG?alt=media" -> "foto_depois".
// Порядок токенов сохраняется, хвостовые хэши/таймстемпы отрезаются.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	// Один проход не идемпотентен для имён с пунктуацией ("a.b (1)" -> "a b_ 1"),
	// поэтому повторяем до неподвижной точки. Длина строки не растёт, цикл короткий.
	// Хэш за точкой ("x_ab.cdef12") на втором проходе тоже отрезается.
	out := normalizeOnce(name)
	for {
		next := normalizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func normalizeOnce(name string) string {
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	base := name
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		base = name[:dot]
	}

	tokens := reTokenSep.Split(base, -1)
	end := len(tokens)
	for end > 0 && looksVolatile(tokens[end-1]) {
		end--
	}

	s := strings.ToLower(strings.Join(tokens[:end], "_"))
	s = reNonKey.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func looksVolatile(tok string) bool {
	return tok != "" && reVolatile.MatchString(tok)
}
