// Package types defines the shared data model for the research pipeline:
// the persisted Project record and the transient analysis produced by one
// research pass over it.
package types

import "time"

// Project is a hackathon project row in the shared project store.
//
// Descriptive and provenance fields are set when the project is scraped or
// discovered. The outcome, score and research fields are written only by the
// research pipeline, and only all together by one successful analysis pass;
// a failed run leaves them untouched.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tagline       *string   `json:"tagline,omitempty"`
	Description   *string   `json:"description,omitempty"`
	HackathonName string    `json:"hackathon_name"`
	HackathonDate *string   `json:"hackathon_date,omitempty"`
	Prize         *string   `json:"prize,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`

	DevpostURL *string `json:"devpost_url,omitempty"`
	GithubURL  *string `json:"github_url,omitempty"`
	DemoURL    *string `json:"demo_url,omitempty"`
	VideoURL   *string `json:"video_url,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`

	// SourceType records how the row came to exist: "scrape" for the fixed
	// gallery path, "web" for open-web discovery.
	SourceType *string `json:"source_type,omitempty"`
	OriginURL  *string `json:"origin_url,omitempty"`

	GotFunding    *bool    `json:"got_funding,omitempty"`
	FundingAmount *float64 `json:"funding_amount,omitempty"`
	FundingSource *string  `json:"funding_source,omitempty"`
	BecameStartup *bool    `json:"became_startup,omitempty"`
	StartupName   *string  `json:"startup_name,omitempty"`
	StartupURL    *string  `json:"startup_url,omitempty"`
	HasRealUsers  *bool    `json:"has_real_users,omitempty"`
	UserCount     *int64   `json:"user_count,omitempty"`
	IsStillActive *bool    `json:"is_still_active,omitempty"`

	MarketScore     *int `json:"market_score,omitempty"`
	TeamScore       *int `json:"team_score,omitempty"`
	InnovationScore *int `json:"innovation_score,omitempty"`
	ExecutionScore  *int `json:"execution_score,omitempty"`
	OverallScore    *int `json:"overall_score,omitempty"`

	ResearchSummary *string    `json:"research_summary,omitempty"`
	ResearchSources []string   `json:"research_sources,omitempty"`
	ResearchedAt    *time.Time `json:"researched_at,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Researched reports whether a successful analysis pass has ever been
// committed for this project.
func (p *Project) Researched() bool {
	return p.ResearchedAt != nil
}

// Scores holds the four analysis dimensions plus the overall rating,
// each on a 0-100 scale.
type Scores struct {
	Market     int `json:"market"`
	Team       int `json:"team"`
	Innovation int `json:"innovation"`
	Execution  int `json:"execution"`
	Overall    int `json:"overall"`
}

// Analysis is the structured result of researching one project. It is
// merged onto the Project row by the persistence layer; it is never stored
// on its own.
type Analysis struct {
	GotFunding    bool     `json:"got_funding"`
	FundingAmount *float64 `json:"funding_amount"`
	FundingSource *string  `json:"funding_source"`
	BecameStartup bool     `json:"became_startup"`
	StartupName   *string  `json:"startup_name"`
	StartupURL    *string  `json:"startup_url"`
	HasRealUsers  bool     `json:"has_real_users"`
	UserCount     *int64   `json:"user_count"`
	IsStillActive bool     `json:"is_still_active"`

	Summary      string  `json:"summary"`
	Achievements *string `json:"achievements"`
	Reasoning    *string `json:"reasoning"`

	// Success-story extras. Only the deep analysis path fills these.
	FundingRound *string `json:"funding_round,omitempty"`
	FundingDate  *string `json:"funding_date,omitempty"`
	KeyMetrics   *string `json:"key_metrics,omitempty"`
	Timeline     *string `json:"timeline,omitempty"`

	Scores Scores `json:"scores"`
}

// EnsureScores fills a missing overall score with the rounded mean of the
// four sub-scores. A model-supplied overall is authoritative and kept as is.
func (a *Analysis) EnsureScores() {
	if a.Scores.Overall != 0 {
		return
	}
	parts := []int{a.Scores.Market, a.Scores.Team, a.Scores.Innovation, a.Scores.Execution}
	sum := 0
	n := 0
	for _, v := range parts {
		if v != 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		a.Scores = Scores{Market: 50, Team: 50, Innovation: 50, Execution: 50, Overall: 50}
		return
	}
	a.Scores.Overall = (sum + n/2) / n
}
