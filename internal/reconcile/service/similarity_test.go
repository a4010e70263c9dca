package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("foto", "foto"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "foto"))
	assert.Equal(t, 0.0, Similarity("foto", ""))
	assert.InDelta(t, 0.75, Similarity("foto", "fota"), 1e-9)
	assert.InDelta(t, 1-1.0/12, Similarity("sunset_beach", "sunset_beah"), 1e-9)
}

func TestSimilaritySymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"depois", "antes"},
		{"foto_obra", "foto"},
		{"ação", "acao"},
		{"a", "bcdef"},
	}
	for _, p := range pairs {
		ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0])
		assert.Equal(t, ab, ba, "%q vs %q", p[0], p[1])
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestSimilarityCountsRunes(t *testing.T) {
	// одна замена из четырёх рун, а не из байтов
	assert.InDelta(t, 0.75, Similarity("ação", "acão"), 1e-9)
}
