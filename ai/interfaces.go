package ai

import "context"

// Embedder turns text into sentence embeddings.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText embeds a single query string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of record texts. The result holds one vector
	// per input, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider owns an Embedder and the client behind it.
type Provider interface {
	// Name identifies the embedding service in logs, e.g. "openai".
	Name() string

	// Embedder returns the provider's embedder.
	Embedder() Embedder

	// Close releases the client. The embedder must not be used afterwards.
	Close() error
}
