package service

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity возвращает нормированную схожесть Левенштейна в [0..1]:
// 1 - dist/max(len). Считается по рунам, симметрична.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max(la, lb))
}
