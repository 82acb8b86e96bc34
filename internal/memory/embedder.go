package memory

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Embedder turns text into a fixed-size vector for the similarity index.
type Embedder interface {
	Embed(text string) []float32
	Dims() uint64
}

// \w is ASCII-only in RE2; non-ASCII tokens fall out of the bag of words.
var embedTokenPattern = regexp.MustCompile(`\w+`)

// FeatureHashEmbedder is a deterministic bag-of-words embedder: each token is
// hashed into a bucket and the resulting vector is L2-normalized. It needs no
// model or network access, which keeps the qdrant index usable standalone;
// swap in a real embedding client for higher-quality retrieval.
type FeatureHashEmbedder struct {
	dims uint64
}

// NewFeatureHashEmbedder creates an embedder with the given dimensionality.
func NewFeatureHashEmbedder(dims uint64) *FeatureHashEmbedder {
	if dims == 0 {
		dims = 256
	}
	return &FeatureHashEmbedder{dims: dims}
}

func (e *FeatureHashEmbedder) Dims() uint64 { return e.dims }

func (e *FeatureHashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range embedTokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
