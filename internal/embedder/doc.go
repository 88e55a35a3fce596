// Package embedder generates vector embeddings for bookmark text and
// search queries.
//
// Three providers are available:
//   - openai: any OpenAI-compatible embeddings endpoint (OpenAI,
//     OpenRouter, Azure, vLLM) selected via base URL
//   - ollama: a local Ollama instance
//   - local: deterministic hash-derived vectors for offline use
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider: "openai",
//	    APIKey:   apiKey,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "title description content",
//	})
//
// # Input Bounds
//
// Text longer than MaxInputChars (32000) is truncated before the
// provider call; callers never receive an over-length error.
//
// # Caching and Retry
//
// Results are cached in an LRU keyed by the SHA-256 of the (truncated)
// input text. Remote providers retry transient failures with
// exponential backoff; context cancellation stops retrying immediately.
package embedder
