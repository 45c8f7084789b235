package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. Query lists are stored as
// JSON text and embeddings as little-endian float32 blobs; similarity is
// computed in application memory, which is fine for the bounded pattern
// counts this cache sees.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore at the given path, or in memory
// when the path is ":memory:".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the pattern table if it does not exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS query_patterns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			context TEXT,
			successful_queries TEXT,
			failed_queries TEXT,
			embedding BLOB,
			observed_at TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_patterns_category ON query_patterns(category);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SavePattern stores a pattern with its context embedding.
func (s *SQLiteStore) SavePattern(ctx context.Context, p Pattern, vector []float32) error {
	successful, err := json.Marshal(p.SuccessfulQueries)
	if err != nil {
		return fmt.Errorf("failed to encode successful queries: %w", err)
	}
	failed, err := json.Marshal(p.FailedQueries)
	if err != nil {
		return fmt.Errorf("failed to encode failed queries: %w", err)
	}

	query := `
		INSERT INTO query_patterns (category, context, successful_queries, failed_queries, embedding, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		p.Category,
		p.Context,
		string(successful),
		string(failed),
		encodeVector(vector),
		p.ObservedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}
	return nil
}

type patternWithScore struct {
	Pattern
	score float32
}

// SearchSimilarPatterns loads all embeddings and scores them by cosine
// similarity in the application layer, returning the top matches.
func (s *SQLiteStore) SearchSimilarPatterns(ctx context.Context, vector []float32, limit int) ([]Pattern, error) {
	query := `
		SELECT id, category, context, successful_queries, failed_queries, embedding, observed_at
		FROM query_patterns
		WHERE embedding IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var scored []patternWithScore
	for rows.Next() {
		var p Pattern
		var successful, failed string
		var blob []byte
		var observedAt string
		if err := rows.Scan(&p.ID, &p.Category, &p.Context, &successful, &failed, &blob, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(successful), &p.SuccessfulQueries); err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(failed), &p.FailedQueries); err != nil {
			continue
		}
		p.ObservedAt, _ = parseTimestamp(observedAt)

		stored := decodeVector(blob)
		if len(stored) == 0 || len(stored) != len(vector) {
			continue
		}
		p.SimilarityScore = cosineSimilarity(vector, stored)
		scored = append(scored, patternWithScore{Pattern: p, score: p.SimilarityScore})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	topK := min(limit, len(scored))
	patterns := make([]Pattern, topK)
	for i := range topK {
		patterns[i] = scored[i].Pattern
	}
	return patterns, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

// encodeVector converts a float32 slice to a byte slice for storage.
// Each float32 is encoded as 4 bytes in little-endian format.
func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector converts a byte slice back to a float32 slice.
func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// parseTimestamp parses a SQLite timestamp string to time.Time.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
