package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed rerank_prompt.md
var rerankPromptTemplate string

const (
	defaultMaxLogLength = 200
	maxDocumentRunes    = 1500
	maxQueryRunes       = 2000
)

// Reranker asks Gemini to order candidate postings for a candidate summary.
type Reranker struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Reranker = (*Reranker)(nil)

func NewReranker(generator contentGenerator, l *zap.Logger, maxLogLength int) *Reranker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Reranker{
		generator: generator,
		logger:    logger.WithCommonFields(l, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (r *Reranker) Rerank(ctx context.Context, query string, docs []ai.Document, topN int) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	prompt, err := buildRerankPrompt(query, docs, topN)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini rerank request",
		zap.Int("documents", len(docs)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini rerank response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	ranking, err := parseRanking(raw)
	if err != nil {
		return nil, err
	}

	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking, nil
}

func buildRerankPrompt(query string, docs []ai.Document, topN int) (string, error) {
	type promptDoc struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}

	payload := make([]promptDoc, 0, len(docs))
	for _, d := range docs {
		payload = append(payload, promptDoc{ID: d.ID, Text: sanitizeText(d.Text, maxDocumentRunes)})
	}

	docsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal rerank documents: %w", err)
	}

	template := rerankPromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{QUERY}}\n\nPostings:\n{{DOCUMENTS}}\n\nReturn {\"ranking\": [ids]} with at most {{TOP_N}} ids."
	}

	prompt := strings.ReplaceAll(template, "{{QUERY}}", sanitizeText(query, maxQueryRunes))
	prompt = strings.ReplaceAll(prompt, "{{DOCUMENTS}}", string(docsJSON))
	prompt = strings.ReplaceAll(prompt, "{{TOP_N}}", strconv.Itoa(topN))
	return prompt, nil
}

// sanitizeText collapses whitespace, neutralises bracketed role markers and
// caps the length in runes.
func sanitizeText(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return s
}

func parseRanking(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var items []any
	switch val := data.(type) {
	case map[string]any:
		list, ok := val["ranking"].([]any)
		if !ok {
			return nil, errors.New("gemini response has no ranking list")
		}
		items = list
	case []any:
		items = val
	default:
		return nil, errors.New("unexpected gemini response shape")
	}

	ranking := make([]string, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			item = obj["id"]
		}
		id := coerceString(item)
		if id == "" {
			return nil, errors.New("gemini ranking contains an empty id")
		}
		ranking = append(ranking, id)
	}

	return ranking, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
