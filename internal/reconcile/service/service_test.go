package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-recon/internal/reconcile/model"
)

func journeyIndex() *Index {
	return BuildIndex([]model.ImageRecord{
		{ID: "i-antes", StoragePath: "jornadas/7/antes.jpg", Thumbs: map[string]string{"antes": "https://thumbs/antes.jpg"}},
		{ID: "i-durante", StoragePath: "jornadas/7/durante.jpg"},
		{ID: "i-depois", StoragePath: "jornadas/7/depois.jpg"},
	})
}

func journey(id string, before, during, after []string) model.JourneyRecord {
	return model.JourneyRecord{
		ID:      id,
		HasRefs: true,
		Refs: map[model.Role][]string{
			model.RoleBefore: before,
			model.RoleDuring: during,
			model.RoleAfter:  after,
		},
	}
}

func TestResolveLinked(t *testing.T) {
	res := journeyIndex().Resolve(journey("j1",
		[]string{"jornadas/7/antes.jpg"},
		[]string{"jornadas/7/durante.jpg"},
		[]string{"jornadas/7/depois.jpg"},
	))
	assert.Equal(t, model.StatusLinked, res.Row.Status)
	assert.Equal(t, model.Roles, res.Row.MatchedRoles)
	assert.Empty(t, res.Row.MissingRoles)
	assert.InDelta(t, 1.0, res.Row.Confidence, 1e-9)
	assert.Equal(t, "before=>doc:i-antes conf:1.00 reason:path_exact", res.Row.Details[0])
}

func TestResolvePartialLinked(t *testing.T) {
	res := journeyIndex().Resolve(journey("j2",
		[]string{"https://store/o/outra%2Fantes.jpg?token=a"},
		nil,
		[]string{"https://store/o/outra%2Fdepois.jpg?token=b"},
	))
	assert.Equal(t, model.StatusPartialLinked, res.Row.Status)
	assert.Equal(t, []model.Role{model.RoleBefore, model.RoleAfter}, res.Row.MatchedRoles)
	assert.Equal(t, []model.Role{model.RoleDuring}, res.Row.MissingRoles)
	assert.InDelta(t, 0.95, res.Row.Confidence, 1e-9)
	assert.Len(t, res.Row.Details, 2)
}

func TestResolveMissing(t *testing.T) {
	res := journeyIndex().Resolve(journey("j3",
		[]string{"nada.jpg"}, []string{"zzz.png"}, []string{"qqq.gif"},
	))
	assert.Equal(t, model.StatusMissing, res.Row.Status)
	assert.Empty(t, res.Row.MatchedRoles)
	assert.Equal(t, model.Roles, res.Row.MissingRoles)
	assert.Equal(t, 0.0, res.Row.Confidence)
	assert.Equal(t, []string{"before=>MISSING", "during=>MISSING", "after=>MISSING"}, res.Row.Details)
}

func TestResolveKeepsBestReferencePerRole(t *testing.T) {
	res := journeyIndex().Resolve(journey("j4",
		[]string{"nada.jpg", "x/antes.jpg", "jornadas/7/antes.jpg"},
		nil, nil,
	))
	m := res.Matches[model.RoleBefore]
	assert.Equal(t, ReasonPathExact, m.Reason)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, model.StatusPartialLinked, res.Row.Status)
}

func TestResolveNoReferenceField(t *testing.T) {
	res := journeyIndex().Resolve(model.JourneyRecord{ID: "j5"})
	assert.False(t, res.Row.HasRefs)
	assert.Equal(t, model.StatusMissing, res.Row.Status)
	assert.Equal(t, []string{"no imagens field"}, res.Row.Details)
	assert.Empty(t, res.Matches)
}

func TestResolvedRefs(t *testing.T) {
	idx := journeyIndex()
	res := idx.Resolve(journey("j6",
		[]string{"jornadas/7/antes.jpg"},
		[]string{"https://store/o/x%2Fdurante.jpg"},
		nil,
	))
	out := idx.ResolvedRefs(res, model.DefaultRoleFields())
	require.Len(t, out, 2)

	antes, ok := out["antes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "i-antes", antes["imagens_doc"])
	assert.Equal(t, "jornadas/7/antes.jpg", antes["storage_path"])
	assert.Equal(t, 1.0, antes["confidence"])
	assert.Equal(t, ReasonPathExact, antes["reason"])
	assert.Equal(t, "https://thumbs/antes.jpg", antes["thumb"])
	assert.Equal(t, []string{"jornadas/7/antes.jpg"}, antes["original"])

	durante := out["durante"].(map[string]any)
	assert.Equal(t, ReasonFilenameExact, durante["reason"])
	assert.Nil(t, durante["thumb"])

	assert.NotContains(t, out, "depois")
}
