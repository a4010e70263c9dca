package service

import (
	"strings"

	"image-recon/internal/reconcile/model"
)

// candidate: запись в бакете нормализованных имён.
type candidate struct {
	image    *model.ImageRecord
	filename string // исходное имя файла, давшее бакет
}

// scanKey: ключ без "/" для fuzzy-прохода, нормализация посчитана заранее.
type scanKey struct {
	key  string
	norm string
}

// Index: индекс по коллекции imagens. Строится один раз, дальше только чтение.
type Index struct {
	byID         map[string]*model.ImageRecord
	byExactKey   map[string]*model.ImageRecord // пути, альтернативные пути, sha256
	byFilename   map[string]*model.ImageRecord // последний записавший выигрывает
	byNormalized map[string][]candidate        // коллизии сохраняются

	// общий вид "ключ -> запись" (пути + имена файлов + хэши) в порядке
	// первой регистрации; по нему идёт ограниченный fuzzy-проход
	scan      map[string]*model.ImageRecord
	scanOrder []scanKey
	keyOrder  []string

	skipped int
}

// Stats: размеры индекса для логов и /index.
type Stats struct {
	Images       int `json:"images"`
	ExactKeys    int `json:"exactKeys"`
	Filenames    int `json:"filenames"`
	Buckets      int `json:"buckets"`
	ScanKeys     int `json:"scanKeys"`
	SkippedPaths int `json:"skippedPaths"`
}

// BuildIndex строит индекс. Битые пути пропускаются по одному,
// остальные пути той же записи регистрируются.
func BuildIndex(images []model.ImageRecord) *Index {
	recs := make([]model.ImageRecord, len(images))
	copy(recs, images)

	idx := &Index{
		byID:         make(map[string]*model.ImageRecord, len(recs)),
		byExactKey:   make(map[string]*model.ImageRecord, len(recs)*2),
		byFilename:   make(map[string]*model.ImageRecord, len(recs)),
		byNormalized: make(map[string][]candidate, len(recs)),
		scan:         make(map[string]*model.ImageRecord, len(recs)*2),
	}

	for i := range recs {
		rec := &recs[i]
		idx.byID[rec.ID] = rec

		for _, p := range rec.AllPaths() {
			fname, err := checkPath(p)
			if err != nil {
				idx.skipped++
				continue
			}
			idx.byExactKey[p] = rec
			idx.remember(p, rec)

			idx.byFilename[fname] = rec
			idx.remember(fname, rec)

			norm := Normalize(fname)
			idx.byNormalized[norm] = append(idx.byNormalized[norm], candidate{image: rec, filename: fname})
		}

		if h := strings.TrimSpace(rec.SHA256); h != "" {
			idx.byExactKey[h] = rec
			idx.remember(h, rec)
		}
	}
	return idx
}

func (idx *Index) remember(key string, rec *model.ImageRecord) {
	if _, ok := idx.scan[key]; !ok {
		idx.keyOrder = append(idx.keyOrder, key)
		if !strings.Contains(key, "/") {
			idx.scanOrder = append(idx.scanOrder, scanKey{key: key, norm: Normalize(key)})
		}
	}
	idx.scan[key] = rec
}

func (idx *Index) Stats() Stats {
	return Stats{
		Images:       len(idx.byID),
		ExactKeys:    len(idx.byExactKey),
		Filenames:    len(idx.byFilename),
		Buckets:      len(idx.byNormalized),
		ScanKeys:     len(idx.scanOrder),
		SkippedPaths: idx.skipped,
	}
}

// Keys: первые n ключей в порядке регистрации (n <= 0: все).
func (idx *Index) Keys(n int) []string {
	if n <= 0 || n > len(idx.keyOrder) {
		n = len(idx.keyOrder)
	}
	out := make([]string, n)
	copy(out, idx.keyOrder[:n])
	return out
}

// Image возвращает запись по идентификатору.
func (idx *Index) Image(id string) (model.ImageRecord, bool) {
	rec, ok := idx.byID[id]
	if !ok {
		return model.ImageRecord{}, false
	}
	return *rec, true
}
