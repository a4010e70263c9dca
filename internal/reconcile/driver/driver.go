package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"image-recon/internal/metrics"
	"image-recon/internal/reconcile/model"
	"image-recon/internal/reconcile/service"
	"image-recon/internal/store"
)

const (
	DefaultPageSize  = 200
	DefaultBatchSize = 200
)

// Result: строки отчёта в порядке обхода и счётчики.
type Result struct {
	Rows    []model.Row
	Summary model.Summary
}

// Driver проходит jornadas постранично и пишет сопоставления по политике.
type Driver struct {
	store   store.Store
	index   *service.Index
	opt     model.Options
	policy  service.Policy
	log     zerolog.Logger
	metrics *metrics.Recorder
}

// New: store и индекс передаются явно. rec может быть nil.
func New(st store.Store, idx *service.Index, opt model.Options, logger zerolog.Logger, rec *metrics.Recorder) *Driver {
	if opt.PageSize <= 0 {
		opt.PageSize = DefaultPageSize
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if limit := st.MaxBatch(); limit > 0 && opt.BatchSize > limit {
		opt.BatchSize = limit
	}
	if opt.Roles == nil {
		opt.Roles = model.DefaultRoleFields()
	}
	return &Driver{
		store:   st,
		index:   idx,
		opt:     opt,
		policy:  service.PolicyFrom(opt),
		log:     logger,
		metrics: rec,
	}
}

// Run обходит коллекцию до пустой страницы. Ошибка чтения страницы
// прерывает прогон; накопленные строки возвращаются вместе с ошибкой.
// Ошибки коммита пачек считаются и логируются, прогон продолжается.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	var res Result
	d.log.Info().
		Str("policy", d.policy.String()).
		Int("page_size", d.opt.PageSize).
		Int("batch_size", d.opt.BatchSize).
		Msg("migration pass started")

	after := ""
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		docs, err := d.store.Scan(ctx, model.CollectionJourneys, after, d.opt.PageSize)
		if err != nil {
			return res, fmt.Errorf("read page %d after %q: %w", page, after, err)
		}
		if len(docs) == 0 {
			break
		}

		var pending []store.Update
		for _, doc := range docs {
			after = doc.ID
			if u, ok := d.visit(doc, &res); ok {
				pending = append(pending, u)
				if len(pending) >= d.opt.BatchSize {
					d.flush(ctx, pending, &res.Summary)
					pending = nil
				}
			}
		}
		// остаток пачки не переносим на следующую страницу
		d.flush(ctx, pending, &res.Summary)

		d.metrics.Page(time.Since(start))
		d.log.Debug().
			Int("page", page).
			Int("docs", len(docs)).
			Str("last_id", after).
			Int("processed", res.Summary.Processed).
			Msg("page done")
	}

	d.log.Info().Interface("summary", res.Summary).Msg("migration pass finished")
	return res, nil
}

// visit сопоставляет один документ, добавляет строку отчёта и,
// если политика разрешает, возвращает обновление.
func (d *Driver) visit(doc store.Document, res *Result) (store.Update, bool) {
	res.Summary.Processed++
	j := model.JourneyFromDocument(doc.ID, doc.Data, d.opt.Roles)
	r := d.index.Resolve(j)
	res.Rows = append(res.Rows, r.Row)

	if !j.HasRefs {
		res.Summary.Skipped++
		d.metrics.Journey("skipped")
		return store.Update{}, false
	}
	d.metrics.Journey(string(r.Row.Status))
	for _, m := range r.Matches {
		d.metrics.Match(m.Reason)
	}
	if len(r.Matches) > 0 {
		d.metrics.Confidence(r.Row.Confidence)
	}

	if !d.policy.Authorize(r.Row.Confidence) {
		return store.Update{}, false
	}
	res.Summary.Proposed++
	d.metrics.Writes("proposed", 1)
	return store.Update{ID: j.ID, Set: d.updateFor(r)}, true
}

func (d *Driver) updateFor(r service.Resolution) map[string]any {
	set := map[string]any{
		model.FieldResolved: d.index.ResolvedRefs(r, d.opt.Roles),
		model.FieldStatus:   string(r.Row.Status),
	}
	if !r.Journey.HasOriginal {
		set[model.FieldRefsOriginal] = r.Journey.Raw
	}
	return set
}

func (d *Driver) flush(ctx context.Context, batch []store.Update, sum *model.Summary) {
	if len(batch) == 0 {
		return
	}
	n, err := d.store.Commit(ctx, model.CollectionJourneys, batch)
	failed := len(batch) - n
	sum.Succeeded += n
	sum.Failed += failed
	d.metrics.Writes("succeeded", n)
	d.metrics.Writes("failed", failed)
	if err != nil {
		d.log.Error().
			Err(err).
			Int("batch", len(batch)).
			Int("applied", n).
			Str("first_id", batch[0].ID).
			Msg("batch commit error")
		return
	}
	d.log.Debug().Int("batch", len(batch)).Msg("batch committed")
}
