package oracle

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Nop recognizes nothing.
type Nop struct{}

func (Nop) Recognize(context.Context, string) ([]Entity, error) { return nil, nil }

// Static returns a fixed list of entities for any text.
type Static []Entity

func (s Static) Recognize(context.Context, string) ([]Entity, error) {
	return append([]Entity(nil), s...), nil
}

const defaultHashDimensions = 256

// HashEmbedder is a deterministic embedder that hashes character trigrams of
// each lower-cased word into a fixed number of buckets. Identical texts map to
// identical vectors and texts sharing words score higher than unrelated ones.
type HashEmbedder struct {
	Dimensions int
}

func (h HashEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	dims := h.Dimensions
	if dims <= 0 {
		dims = defaultHashDimensions
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, dims)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
		})
		for _, w := range words {
			padded := "^" + w + "$"
			runes := []rune(padded)
			for j := 0; j+3 <= len(runes); j++ {
				vec[bucket(string(runes[j:j+3]), dims)]++
			}
			vec[bucket("w:"+w, dims)] += 2
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}

func bucket(s string, dims int) int {
	hash := fnv.New32a()
	hash.Write([]byte(s))
	return int(hash.Sum32() % uint32(dims))
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
