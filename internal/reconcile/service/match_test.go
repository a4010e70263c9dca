package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-recon/internal/reconcile/model"
)

func testIndex() *Index {
	return BuildIndex([]model.ImageRecord{
		{ID: "img-depois", StoragePath: "jornadas/555/depois.jpg"},
		{ID: "img-foto", StoragePath: "jornadas/1/foto_abcdef123456.png"},
		{ID: "img-beach", StoragePath: "praia/sunset_beach.jpg", Paths: []string{"legacy/sunset_beach.jpeg"}},
		{ID: "img-hash", StoragePath: "hash/x.jpg", SHA256: "deadbeefcafe"},
	})
}

func TestMatchPathExact(t *testing.T) {
	idx := testIndex()
	m, ok := idx.Match("https://store/o/jornadas%2F555%2Fdepois.jpg?token=x")
	require.True(t, ok)
	assert.Equal(t, "img-depois", m.ImageID)
	assert.Equal(t, ReasonPathExact, m.Reason)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, "jornadas/555/depois.jpg", m.Key)
}

func TestMatchPlainPathAndHash(t *testing.T) {
	idx := testIndex()

	m, ok := idx.Match("legacy/sunset_beach.jpeg")
	require.True(t, ok)
	assert.Equal(t, "img-beach", m.ImageID)
	assert.Equal(t, ReasonPathExact, m.Reason)

	m, ok = idx.Match("deadbeefcafe")
	require.True(t, ok)
	assert.Equal(t, "img-hash", m.ImageID)
	assert.Equal(t, ReasonPathExact, m.Reason)
}

func TestMatchFilenameExact(t *testing.T) {
	m, ok := testIndex().Match("https://store/o/outra%2Fpasta%2Fdepois.jpg?token=y")
	require.True(t, ok)
	assert.Equal(t, "img-depois", m.ImageID)
	assert.Equal(t, ReasonFilenameExact, m.Reason)
	assert.Equal(t, 0.95, m.Confidence)
	assert.Equal(t, "depois.jpg", m.Key)
}

func TestMatchNormalizedSingle(t *testing.T) {
	m, ok := testIndex().Match("uploads/foto_1699999999.jpg")
	require.True(t, ok)
	assert.Equal(t, "img-foto", m.ImageID)
	assert.Equal(t, ReasonNormSingle, m.Reason)
	assert.Equal(t, 0.92, m.Confidence)
	assert.Equal(t, "foto_abcdef123456.png", m.Key)
}

func TestMatchNormalizedBucketBest(t *testing.T) {
	idx := BuildIndex([]model.ImageRecord{
		{ID: "first", StoragePath: "a/foto_abcdef1.png"},
		{ID: "second", StoragePath: "b/foto_1234567.jpg"},
	})
	m, ok := idx.Match("foto_999999.jpg")
	require.True(t, ok)
	assert.Equal(t, ReasonNormBucketBest, m.Reason)
	assert.Equal(t, "first", m.ImageID, "ties keep the first candidate")
	assert.InDelta(t, 0.90, m.Confidence, 1e-9)
}

func TestMatchFuzzy(t *testing.T) {
	m, ok := testIndex().Match("sunset_beah.jpg")
	require.True(t, ok)
	assert.Equal(t, "img-beach", m.ImageID)
	assert.Equal(t, "sunset_beach.jpg", m.Key)
	assert.Equal(t, "fuzzy_best_sim_0.92", m.Reason)
	assert.InDelta(t, 0.55+0.40*(1-1.0/12), m.Confidence, 1e-9)
}

func TestMatchFuzzyBelowCutoff(t *testing.T) {
	_, ok := testIndex().Match("zzz_qqq.jpg")
	assert.False(t, ok)
}

func TestMatchEmptyNormalizedName(t *testing.T) {
	_, ok := testIndex().Match("uploads/1699999999.jpg")
	assert.False(t, ok)
}

func TestMatchFuzzyScanIsCapped(t *testing.T) {
	build := func(fillers int) *Index {
		imgs := make([]model.ImageRecord, 0, fillers+1)
		for i := 0; i < fillers; i++ {
			imgs = append(imgs, model.ImageRecord{ID: fmt.Sprintf("f%d", i), StoragePath: fmt.Sprintf("f/filler%03d.jpg", i)})
		}
		return BuildIndex(append(imgs, model.ImageRecord{ID: "target", StoragePath: "p/sunset_beach.jpg"}))
	}

	m, ok := build(fuzzyScanLimit - 1).Match("sunset_beah.jpg")
	require.True(t, ok)
	assert.Equal(t, "target", m.ImageID)

	_, ok = build(fuzzyScanLimit).Match("sunset_beah.jpg")
	assert.False(t, ok, "keys past the scan limit are not considered")
}

func TestMatchStageOrder(t *testing.T) {
	// одна и та же запись доступна и по пути, и по имени: выигрывает путь
	idx := BuildIndex([]model.ImageRecord{
		{ID: "by-path", StoragePath: "x/depois.jpg"},
		{ID: "by-name", StoragePath: "y/depois.jpg"},
	})
	m, ok := idx.Match("x/depois.jpg")
	require.True(t, ok)
	assert.Equal(t, "by-path", m.ImageID)
	assert.Equal(t, ReasonPathExact, m.Reason)

	// по имени файла побеждает последний зарегистрированный
	m, ok = idx.Match("z/depois.jpg")
	require.True(t, ok)
	assert.Equal(t, "by-name", m.ImageID)
	assert.Equal(t, ReasonFilenameExact, m.Reason)
}

func TestProbe(t *testing.T) {
	idx := testIndex()

	p := idx.Probe("https://store/o/jornadas%2F555%2Fdepois.jpg?token=x")
	assert.Equal(t, "jornadas/555/depois.jpg", p.StoragePath)
	assert.Equal(t, "depois.jpg", p.Filename)
	assert.Equal(t, "depois", p.Normalized)
	assert.Empty(t, p.ParseError)
	require.NotNil(t, p.Match)
	assert.Equal(t, ReasonPathExact, p.Match.Reason)

	p = idx.Probe("nada.jpg")
	assert.Empty(t, p.StoragePath)
	assert.NotEmpty(t, p.ParseError)
	assert.Nil(t, p.Match)
}
