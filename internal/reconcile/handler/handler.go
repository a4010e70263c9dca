package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"image-recon/internal/metrics"
	"image-recon/internal/middleware"
	"image-recon/internal/reconcile/service"
	"image-recon/internal/utils"
)

const maxRefsPerRequest = 200

// Health: проверка живости.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IndexStats отдаёт размеры индекса и, по ?keys=N, первые N ключей.
func IndexStats(idx *service.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"stats": idx.Stats()}
		if n := utils.Atoi(r.URL.Query().Get("keys"), 0); n > 0 {
			body["keys"] = idx.Keys(n)
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// Match разбирает ссылки (?ref=…, можно несколько) против индекса.
// Только чтение: ничего не пишет в хранилище. rec может быть nil.
func Match(idx *service.Index, rec *metrics.Recorder, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.RequestIDFrom(r.Context())).Logger()

		refs := r.URL.Query()["ref"]
		if r.Method == http.MethodPost {
			var body struct {
				Refs []string `json:"refs"`
			}
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
				http.Error(w, "bad json body: "+err.Error(), http.StatusBadRequest)
				return
			}
			refs = append(refs, body.Refs...)
		}

		clean := refs[:0]
		for _, ref := range refs {
			if strings.TrimSpace(ref) != "" {
				clean = append(clean, ref)
			}
		}
		if len(clean) == 0 {
			http.Error(w, "missing ref", http.StatusBadRequest)
			return
		}
		if len(clean) > maxRefsPerRequest {
			http.Error(w, "too many refs", http.StatusRequestEntityTooLarge)
			return
		}

		probes := make([]service.Probe, 0, len(clean))
		matched := 0
		for _, ref := range clean {
			p := idx.Probe(ref)
			if p.Match != nil {
				matched++
				rec.Match(p.Match.Reason)
			}
			probes = append(probes, p)
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": probes})
		log.Info().
			Int("refs", len(probes)).
			Int("matched", matched).
			Dur("elapsed", time.Since(start)).
			Msg("match done")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
