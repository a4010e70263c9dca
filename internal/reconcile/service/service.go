package service

import (
	"fmt"

	"image-recon/internal/reconcile/model"
)

const detailNoRefs = "no imagens field"

// Resolution: итог сопоставления одного документа jornadas.
type Resolution struct {
	Journey model.JourneyRecord
	Matches map[model.Role]model.MatchResult
	Row     model.Row
}

// Resolve сверяет один документ: по каждой роли берём лучшую ссылку,
// считаем статус и среднюю уверенность. Индекс не меняется.
func (idx *Index) Resolve(j model.JourneyRecord) Resolution {
	res := Resolution{
		Journey: j,
		Matches: make(map[model.Role]model.MatchResult, len(model.Roles)),
		Row:     model.Row{JourneyID: j.ID, HasRefs: j.HasRefs},
	}
	if !j.HasRefs {
		res.Row.Details = []string{detailNoRefs}
		res.Row.Status = model.StatusMissing
		return res
	}

	var sum float64
	for _, role := range model.Roles {
		refs := j.Refs[role]
		if len(refs) == 0 {
			res.Row.MissingRoles = append(res.Row.MissingRoles, role)
			continue
		}

		var (
			best  model.MatchResult
			found bool
		)
		for _, ref := range refs {
			m, ok := idx.Match(ref)
			if ok && (!found || m.Confidence > best.Confidence) {
				best, found = m, true
			}
		}
		if !found {
			res.Row.MissingRoles = append(res.Row.MissingRoles, role)
			res.Row.Details = append(res.Row.Details, fmt.Sprintf("%s=>MISSING", role))
			continue
		}

		res.Matches[role] = best
		res.Row.MatchedRoles = append(res.Row.MatchedRoles, role)
		res.Row.Details = append(res.Row.Details,
			fmt.Sprintf("%s=>doc:%s conf:%.2f reason:%s", role, best.ImageID, best.Confidence, best.Reason))
		sum += best.Confidence
	}

	if n := len(res.Row.MatchedRoles); n > 0 {
		res.Row.Confidence = sum / float64(n)
	}
	res.Row.Status = status(len(res.Row.MatchedRoles), len(res.Row.MissingRoles))
	return res
}

func status(matched, missing int) model.Status {
	switch {
	case missing == 0:
		return model.StatusLinked
	case matched > 0:
		return model.StatusPartialLinked
	default:
		return model.StatusMissing
	}
}

// ResolvedRefs строит значение поля images_refs с ключами по полям ролей.
func (idx *Index) ResolvedRefs(res Resolution, fields model.RoleFields) map[string]any {
	out := make(map[string]any, len(res.Matches))
	for _, role := range model.Roles {
		m, ok := res.Matches[role]
		if !ok {
			continue
		}
		field := fields.Field(role)
		var thumb any
		if img, ok := idx.Image(m.ImageID); ok {
			if t, ok := img.Thumbs[field]; ok {
				thumb = t
			}
		}
		out[field] = map[string]any{
			"imagens_doc":  m.ImageID,
			"storage_path": m.Key,
			"confidence":   m.Confidence,
			"reason":       m.Reason,
			"thumb":        thumb,
			"original":     res.Journey.Refs[role],
		}
	}
	return out
}
