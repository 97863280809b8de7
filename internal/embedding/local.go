package embedding

import (
	"context"
	"math"
)

// LocalDimensions matches the primary provider family so local vectors fit
// the same storage schema.
const LocalDimensions = 1536

// LocalModel is the deterministic fallback embedder used when no remote
// provider credential is configured. It is a pure function of the input
// text: each rune's code point is folded into a fixed-size accumulator,
// position-salted so anagrams don't collide, and the result is
// L2-normalized. Not semantic — identical text retrieves itself exactly,
// which is all the no-credential mode promises — and it never fails, which
// makes it the designed recovery path rather than an error.
type LocalModel struct {
	dim int
}

// NewLocalModel creates the fallback embedder.
func NewLocalModel() *LocalModel {
	return &LocalModel{dim: LocalDimensions}
}

// Embed computes the pseudo-embedding for a single text. The empty string
// embeds to the zero vector.
func (m *LocalModel) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dim)
	if text == "" {
		return vec, nil
	}

	i := 0
	for _, r := range text {
		cp := int(r)
		vec[(i*31+cp)%m.dim] += 1.0
		vec[i%m.dim] += float32(cp) / 65536.0
		i++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		inv := float32(1 / norm)
		for j := range vec {
			vec[j] *= inv
		}
	}
	return vec, nil
}

// EmbedBatch computes pseudo-embeddings for a batch of texts.
func (m *LocalModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *LocalModel) Dimensions() int { return m.dim }
func (m *LocalModel) Name() string    { return ProviderLocal }
