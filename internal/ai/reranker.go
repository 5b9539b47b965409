// Package ai holds the provider independent contracts for language model
// backed collaborators.
package ai

import "context"

// Document is a candidate handed to a reranker. ID is opaque to the reranker
// and must be echoed back unchanged.
type Document struct {
	ID   string
	Text string
}

// Reranker orders documents by relevance to query. The result is a list of
// document ids, best first. Implementations may return fewer ids than
// documents; callers decide how to treat missing or unknown ids.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []Document, topN int) ([]string, error)
}

// Generator produces free text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
