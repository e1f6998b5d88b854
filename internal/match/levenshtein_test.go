package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "The Matrix", "The Matrix", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "parasite", "", 0.0},
		{"completely different same length", "abc", "xyz", 0.0},
		{"single substitution", "kitten", "mitten", 5.0 / 6.0},
		{"insertion", "matrix", "matrixx", 6.0 / 7.0},
		{"half match", "mtrix", "the matrix", 0.5},
		{"unicode counted as runes", "amélie", "amelie", 5.0 / 6.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"parasite", "parasight"},
		{"", "something"},
		{"the godfather", "the godfather part ii"},
		{"heat", "het"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "similarity(%q,%q)", p[0], p[1])
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "completely different and much longer"},
		{"x", "y"},
		{"same", "same"},
		{"", ""},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
