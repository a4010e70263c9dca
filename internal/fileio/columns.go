package fileio

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey: нижний регистр, без диакритики ("Caminho Único" -> "caminho unico"),
// служебные символы -> пробел.
func normHeaderKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = reHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey ищет реальный ключ в записи по желаемому имени.
// Поддерживает варианты через "|" (например: "storage_path|caminho").
func resolveKey(rec map[string]string, want string) string {
	if k := exactKey(rec, want); k != "" {
		return k
	}
	return partialKey(rec, want, nil)
}

// resolveKeys разрешает несколько спецификаций сразу: колонка, точно
// совпавшая с одной из них, не уходит другой по частичному вхождению
// ("caminhos" принадлежит paths, а не storage_path|caminho).
func resolveKeys(rec map[string]string, wants ...string) []string {
	out := make([]string, len(wants))
	taken := make(map[string]bool, len(wants))
	for i, w := range wants {
		if k := exactKey(rec, w); k != "" && !taken[k] {
			out[i] = k
			taken[k] = true
		}
	}
	for i, w := range wants {
		if out[i] != "" {
			continue
		}
		if k := partialKey(rec, w, taken); k != "" {
			out[i] = k
			taken[k] = true
		}
	}
	return out
}

func splitAlts(want string) []string {
	var alts []string
	for _, a := range strings.Split(want, "|") {
		if a = strings.TrimSpace(a); a != "" {
			alts = append(alts, a)
		}
	}
	return alts
}

// exactKey: совпадение как есть, затем по нормализованному имени.
func exactKey(rec map[string]string, want string) string {
	alts := splitAlts(want)
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}
	best := ""
	for _, a := range alts {
		n := normHeaderKey(a)
		if n == "" {
			continue
		}
		for k := range rec {
			// при нескольких кандидатах: меньший ключ, чтобы не зависеть от порядка map
			if normHeaderKey(k) == n && (best == "" || k < best) {
				best = k
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

// partialKey: нормализованное имя входит в заголовок, длинное вхождение лучше.
// Ключи из skip не рассматриваются.
func partialKey(rec map[string]string, want string, skip map[string]bool) string {
	var nAlts []string
	for _, a := range splitAlts(want) {
		if n := normHeaderKey(a); n != "" {
			nAlts = append(nAlts, n)
		}
	}
	bestKey, bestScore := "", 0
	for k := range rec {
		if skip[k] {
			continue
		}
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		for _, n := range nAlts {
			if !strings.Contains(nk, n) {
				continue
			}
			if len(n) > bestScore || (len(n) == bestScore && k < bestKey) {
				bestScore, bestKey = len(n), k
			}
		}
	}
	return bestKey
}

// splitMulti делит ячейку со списком значений по ';' или переводу строки.
func splitMulti(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' || r == '\r' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
