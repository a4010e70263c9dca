package service

import (
	"fmt"
	"math"

	"image-recon/internal/reconcile/model"
)

const (
	ReasonPathExact        = "path_exact"
	ReasonFilenameExact    = "filename_exact"
	ReasonNormSingle       = "norm_filename_single"
	ReasonNormBucketBest   = "norm_filename_bucket_best"
	ReasonFuzzyBestPrefix  = "fuzzy_best_sim_"
	fuzzyScanLimit         = 300 // потолок просмотренных ключей на одну ссылку
	fuzzyMinSimilarity     = 0.75
	confidencePathExact    = 1.00
	confidenceFilename     = 0.95
	confidenceNormSingle   = 0.92
	confidenceNormBucketUp = 0.90
)

// Match прогоняет ссылку по стадиям: точный путь -> точное имя файла ->
// бакет нормализованного имени -> ограниченный fuzzy-проход.
// Первая сработавшая стадия выигрывает.
func (idx *Index) Match(ref string) (model.MatchResult, bool) {
	return idx.match(parseReference(ref))
}

func (idx *Index) match(q reference) (model.MatchResult, bool) {
	// (1) точный путь
	if q.path != "" {
		if img, ok := idx.byExactKey[q.path]; ok {
			return hit(img, confidencePathExact, ReasonPathExact, q.path), true
		}
	}

	// (2) точное имя файла
	if q.filename != "" {
		if img, ok := idx.byFilename[q.filename]; ok {
			return hit(img, confidenceFilename, ReasonFilenameExact, q.filename), true
		}
	}

	norm := Normalize(q.filename)
	if norm == "" {
		return model.MatchResult{}, false
	}

	// (3)/(4) бакет нормализованного имени
	switch hits := idx.byNormalized[norm]; {
	case len(hits) == 1:
		return hit(hits[0].image, confidenceNormSingle, ReasonNormSingle, hits[0].filename), true
	case len(hits) > 1:
		best, bestSim := 0, -1.0
		for i, h := range hits {
			if s := Similarity(Normalize(h.filename), norm); s > bestSim {
				best, bestSim = i, s
			}
		}
		conf := math.Min(confidenceNormBucketUp, 0.85*bestSim+0.07)
		return hit(hits[best].image, conf, ReasonNormBucketBest, hits[best].filename), true
	}

	// (5) fuzzy по ключам-именам
	return idx.fuzzy(norm)
}

func (idx *Index) fuzzy(norm string) (model.MatchResult, bool) {
	bestKey, bestSim := "", -1.0
	limit := min(fuzzyScanLimit, len(idx.scanOrder))
	for _, k := range idx.scanOrder[:limit] {
		if s := Similarity(k.norm, norm); s > bestSim {
			bestKey, bestSim = k.key, s
		}
	}
	if bestKey == "" || bestSim < fuzzyMinSimilarity {
		return model.MatchResult{}, false
	}
	reason := fmt.Sprintf("%s%.2f", ReasonFuzzyBestPrefix, bestSim)
	return hit(idx.scan[bestKey], 0.55+0.40*bestSim, reason, bestKey), true
}

func hit(img *model.ImageRecord, conf float64, reason, key string) model.MatchResult {
	return model.MatchResult{ImageID: img.ID, Confidence: conf, Reason: reason, Key: key}
}

// Probe: разбор ссылки по шагам, для inspect и /match.
type Probe struct {
	Reference   string             `json:"reference"`
	StoragePath string             `json:"storagePath,omitempty"`
	ParseError  string             `json:"parseError,omitempty"`
	Filename    string             `json:"filename"`
	Normalized  string             `json:"normalized"`
	Match       *model.MatchResult `json:"match,omitempty"`
}

func (idx *Index) Probe(ref string) Probe {
	q := parseReference(ref)
	p := Probe{Reference: ref, Filename: q.filename, Normalized: Normalize(q.filename)}
	if q.parsed {
		p.StoragePath = q.path
	} else if q.parseErr != nil {
		p.ParseError = q.parseErr.Error()
	}
	if m, ok := idx.match(q); ok {
		p.Match = &m
	}
	return p
}
