// Package memory provides the learned query cache for the research
// pipeline: which search queries historically worked for a category of
// project. It is purely advisory; losing it degrades planning quality,
// never correctness.
package memory

import "time"

// Pattern is one learned observation: the queries that succeeded and
// failed while researching a single project of the given category.
type Pattern struct {
	ID                int
	Category          string
	Context           string
	SuccessfulQueries []string
	FailedQueries     []string
	SimilarityScore   float32
	ObservedAt        time.Time
}
