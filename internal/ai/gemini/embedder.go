package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/logger"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"
	embedBatchSize        = 100
)

// Embedder implements embedding.Encoder with the Gemini embedding API.
type Embedder struct {
	models     modelsAPI
	model      string
	dim        int
	maxRetries int
	logger     *zap.Logger
}

var _ embedding.Encoder = (*Embedder)(nil)

func NewEmbedder(client *genai.Client, opts Options, dimension int) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultEmbeddingModel
	}
	if dimension <= 0 {
		dimension = embedding.DefaultDimension
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Embedder{
		models:     client.Models,
		model:      model,
		dim:        dimension,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(opts.Logger, providerName, model),
	}, nil
}

func (e *Embedder) Dimension() int {
	return e.dim
}

// Encode embeds texts in batches. Blank texts are not sent and map to zero
// vectors. Returned vectors are normalised locally.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = make([]float32, e.dim)
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		contents := make([]*genai.Content, 0, len(batch))
		for _, idx := range batch {
			contents = append(contents, genai.NewContentFromText(texts[idx], genai.RoleUser))
		}

		config := &genai.EmbedContentConfig{
			TaskType:             "SEMANTIC_SIMILARITY",
			OutputDimensionality: genai.Ptr(int32(e.dim)),
		}

		var resp *genai.EmbedContentResponse
		err := withRetries(ctx, e.logger, e.maxRetries, "embed content", func() error {
			var err error
			resp, err = e.models.EmbedContent(ctx, e.model, contents, config)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}

		if resp == nil || len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", embeddingCount(resp), len(batch))
		}

		for k, idx := range batch {
			if resp.Embeddings[k] == nil {
				return nil, fmt.Errorf("gemini returned an empty embedding for text %d", idx)
			}
			values := resp.Embeddings[k].Values
			if len(values) != e.dim {
				return nil, fmt.Errorf("gemini returned embedding of dimension %d, expected %d", len(values), e.dim)
			}
			vec := make([]float32, e.dim)
			copy(vec, values)
			out[idx] = embedding.Normalize(vec)
		}

		e.logger.Debug("gemini embed batch", zap.Int("texts", len(batch)))
	}

	return out, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
