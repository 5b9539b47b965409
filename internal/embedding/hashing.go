package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

const DefaultDimension = 384

const (
	unigramWeight = 1.0
	bigramWeight  = 0.6
	trigramWeight = 0.25
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#.]*[\p{L}\p{N}+#]|[\p{L}\p{N}]`)

// Hashing is a local encoder based on signed feature hashing of word
// unigrams, word bigrams and character trigrams. It needs no model files and
// is fully deterministic.
type Hashing struct {
	dim int
}

var (
	sharedOnce sync.Once
	shared     *Hashing
)

// Shared returns the process wide hashing encoder with the default dimension.
func Shared() *Hashing {
	sharedOnce.Do(func() {
		shared = NewHashing(DefaultDimension)
	})
	return shared
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Dimension() int {
	return h.dim
}

func (h *Hashing) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.EncodeOne(text)
	}
	return out, nil
}

// EncodeOne embeds a single text.
func (h *Hashing) EncodeOne(text string) []float32 {
	vec := make([]float32, h.dim)
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	for i, word := range words {
		h.add(vec, "w:"+word, unigramWeight)
		if i > 0 {
			h.add(vec, "b:"+words[i-1]+" "+word, bigramWeight)
		}

		padded := []rune("<" + word + ">")
		for j := 0; j+3 <= len(padded); j++ {
			h.add(vec, "c:"+string(padded[j:j+3]), trigramWeight)
		}
	}

	return Normalize(vec)
}

func (h *Hashing) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
