package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// rrfConstant is the k value for Reciprocal Rank Fusion.
// RRF formula: RRF(d) = Σ 1/(k + rank(d))
const rrfConstant = 60.0

// searchSemantic performs vector similarity search using cosine similarity
func searchSemantic(ctx context.Context, db *sql.DB, userID string, queryVector []float32, threshold float64, limit int) ([]SemanticResult, error) {
	if limit <= 0 {
		return []SemanticResult{}, nil
	}

	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchSemanticOptimized(ctx, db, userID, queryVector, threshold, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchSemanticFallback(ctx, db, userID, queryVector, threshold, limit)
}

// searchSemanticOptimized uses the sqlite-vec extension for SQL-based similarity search
func searchSemanticOptimized(ctx context.Context, db *sql.DB, userID string, queryVector []float32, threshold float64, limit int) ([]SemanticResult, error) {
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity (1 - distance) so callers see one scale
	query := `
		SELECT
			b.id,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM bookmarks b
		INNER JOIN bookmark_embeddings e ON b.id = e.bookmark_id
		WHERE b.user_id = ?
		AND (1.0 - vec_distance_cosine(e.vector, ?)) >= ?
		ORDER BY similarity DESC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, queryVectorBlob, userID, queryVectorBlob, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]SemanticResult, 0, limit)
	for rows.Next() {
		var result SemanticResult
		if err := rows.Scan(&result.BookmarkID, &result.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// searchSemanticFallback computes cosine similarity in Go.
// Used when the sqlite-vec extension is not available (purego builds).
func searchSemanticFallback(ctx context.Context, db *sql.DB, userID string, queryVector []float32, threshold float64, limit int) ([]SemanticResult, error) {
	query := `
		SELECT b.id, e.vector
		FROM bookmarks b
		INNER JOIN bookmark_embeddings e ON b.id = e.bookmark_id
		WHERE b.user_id = ?
	`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]SemanticResult, 0, 256)
	for rows.Next() {
		var bookmarkID string
		var vectorBlob []byte
		if err := rows.Scan(&bookmarkID, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)
		if similarity < threshold {
			continue
		}

		candidates = append(candidates, SemanticResult{BookmarkID: bookmarkID, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

// searchCategories scores bookmarks by how many query terms match their
// category names. A term matches a category when the lowercased name
// contains the term as a substring. The score counts matching
// (term, category) pairs, so a bookmark tagged with both "python" and
// "python3" scores 2 for the term "python".
func searchCategories(ctx context.Context, db *sql.DB, userID string, terms []string, limit int) ([]CategoryResult, error) {
	if limit <= 0 || len(terms) == 0 {
		return []CategoryResult{}, nil
	}

	query := `
		SELECT bc.bookmark_id, c.name
		FROM bookmark_categories bc
		INNER JOIN categories c ON c.id = bc.category_id
		WHERE c.user_id = ?
	`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type accum struct {
		score   float64
		matched map[string]bool
	}
	byBookmark := make(map[string]*accum)
	order := make([]string, 0, 64)

	for rows.Next() {
		var bookmarkID, name string
		if err := rows.Scan(&bookmarkID, &name); err != nil {
			return nil, err
		}

		lowered := strings.ToLower(name)
		hits := 0
		for _, term := range terms {
			if term != "" && strings.Contains(lowered, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		acc, ok := byBookmark[bookmarkID]
		if !ok {
			acc = &accum{matched: make(map[string]bool)}
			byBookmark[bookmarkID] = acc
			order = append(order, bookmarkID)
		}
		acc.score += float64(hits)
		acc.matched[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]CategoryResult, 0, len(order))
	for _, id := range order {
		acc := byBookmark[id]
		matched := make([]string, 0, len(acc.matched))
		for name := range acc.matched {
			matched = append(matched, name)
		}
		sort.Strings(matched)
		results = append(results, CategoryResult{
			BookmarkID:        id,
			CategoryScore:     acc.score,
			MatchedCategories: matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CategoryScore > results[j].CategoryScore
	})

	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}

// searchHybrid fuses semantic and category rankings with Reciprocal
// Rank Fusion. Each signal list is fetched oversized so a bookmark
// ranked just outside the final limit on one list can still surface
// through its combined score.
func searchHybrid(ctx context.Context, db *sql.DB, userID string, vector []float32, terms []string, threshold float64, limit int) ([]HybridResult, error) {
	if limit <= 0 {
		return []HybridResult{}, nil
	}

	semantic, err := searchSemantic(ctx, db, userID, vector, threshold, limit*2)
	if err != nil {
		return nil, err
	}
	categories, err := searchCategories(ctx, db, userID, terms, limit*2)
	if err != nil {
		return nil, err
	}

	fused := make(map[string]*HybridResult)
	order := make([]string, 0, len(semantic)+len(categories))

	get := func(id string) *HybridResult {
		if hr, ok := fused[id]; ok {
			return hr
		}
		hr := &HybridResult{BookmarkID: id}
		fused[id] = hr
		order = append(order, id)
		return hr
	}

	for rank, sr := range semantic {
		hr := get(sr.BookmarkID)
		hr.SemanticScore = sr.Similarity
		hr.RRFScore += 1.0 / (rrfConstant + float64(rank+1))
	}
	for rank, cr := range categories {
		hr := get(cr.BookmarkID)
		hr.CategoryScore = cr.CategoryScore
		hr.MatchedCategories = cr.MatchedCategories
		hr.RRFScore += 1.0 / (rrfConstant + float64(rank+1))
	}

	results := make([]HybridResult, 0, len(order))
	for _, id := range order {
		results = append(results, *fused[id])
	}

	// Equal scores keep input order: semantic entries before category
	// entries, each in rank order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RRFScore > results[j].RRFScore
	})

	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
