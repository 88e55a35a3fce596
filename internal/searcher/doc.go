// Package searcher implements multi-mode bookmark search.
//
// Three modes are supported:
//   - hybrid (default): vector similarity and category term matching,
//     fused with Reciprocal Rank Fusion
//   - semantic: vector similarity only
//   - keyword: category term matching only, no embedder required
//
// Responses are cached in an LRU cache keyed by a hash of the query,
// mode, owner, limit, and threshold, with per-request TTL.
package searcher
