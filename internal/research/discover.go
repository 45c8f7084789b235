package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hackscout/hackscout/internal/llm"
	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/store"
	"github.com/hackscout/hackscout/internal/types"
)

// DefaultDiscoveryLimit bounds how many candidates one discovery run
// processes.
const DefaultDiscoveryLimit = 25

var discoveryQueries = []string{
	"hackathon project raised seed funding 2024 2025",
	"hackathon winner startup launched product users",
	"hackathon project became startup raised funding",
	"hackathon demo product launched real users",
	"hackathon project acquired company",
	"hackathon winner YC Y Combinator",
	"hackathon project series A funding",
	"hackathon built app startup users",
}

// Candidate is a provisional project extracted from an open-web search
// result, pending validation.
type Candidate struct {
	Name          string
	Description   string
	Snippet       string
	SourceTitle   string
	HackathonName string
	DevpostURL    string
	SourceURL     string
	SourceDomain  string
	Source        search.Result
	Signal        Signal
	Technologies  []string
}

// DedupeKey collapses candidates that differ only by name or hackathon
// casing.
func (c Candidate) DedupeKey() string {
	return strings.ToLower(c.Name) + "|" + strings.ToLower(c.HackathonName)
}

// Discoverer searches the open web for hackathon success stories and
// feeds validated candidates through the success-story analyzer into the
// project store.
type Discoverer struct {
	search   search.Gateway
	llm      llm.Gateway
	analyzer *Analyzer
	store    store.ProjectStore
	logger   *zap.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

func NewDiscoverer(gateway search.Gateway, completions llm.Gateway, analyzer *Analyzer, projects store.ProjectStore, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		search:   gateway,
		llm:      completions,
		analyzer: analyzer,
		store:    projects,
		logger:   logger,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Discover iterates the fixed discovery query bank and processes up to
// limit candidates. Search provider failures skip the query; the count of
// processed candidates is returned.
func (d *Discoverer) Discover(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultDiscoveryLimit
	}

	seen := make(map[string]struct{})
	processed := 0

	for _, query := range discoveryQueries {
		if processed >= limit {
			break
		}
		d.logger.Info("discovery query", zap.String("query", query))

		results, err := d.search.Search(ctx, query, search.Options{NumResults: 10, Mode: search.ModeAuto})
		if err != nil {
			d.logger.Warn("discovery search failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, result := range results {
			if processed >= limit {
				break
			}
			ok, err := d.handleResult(ctx, result, seen)
			if err != nil {
				return processed, err
			}
			if ok {
				processed++
			}
		}
		d.sleep(2 * time.Second)
	}

	d.logger.Info("discovery complete", zap.Int("processed", processed))
	return processed, nil
}

// handleResult runs the two-stage filter and, for surviving candidates,
// the full gather/validate/analyze/upsert path. It reports whether the
// result was processed as a candidate; only store failures are errors.
func (d *Discoverer) handleResult(ctx context.Context, result search.Result, seen map[string]struct{}) (bool, error) {
	if !IsProjectResult(result) {
		return false, nil
	}

	title := result.Title
	if title == "" {
		title = result.URL
	}
	name := SanitizeName(title)
	if name == "" || len(name) < minNameLen || len(name) > maxNameLen {
		return false, nil
	}

	textBlob := result.Title + " " + result.Text
	if !HasSuccessSignal(textBlob) {
		return false, nil
	}

	// Devpost pages are the fixed scraping target, not discoveries.
	if result.URL == "" || strings.Contains(result.URL, "devpost.com") {
		return false, nil
	}

	nameLower := strings.ToLower(name)
	for _, prefix := range []string{"announcing", "here are", "these are", "winners of", "celebrating"} {
		if strings.HasPrefix(nameLower, prefix) {
			return false, nil
		}
	}
	if strings.Contains(nameLower, "hackathon winners") || strings.Contains(nameLower, "hackathon rewind") {
		return false, nil
	}

	candidate := Candidate{
		Name:          name,
		Description:   llm.Truncate(result.Text, 500),
		Snippet:       result.Text,
		SourceTitle:   result.Title,
		HackathonName: ExtractHackathonName(result.Text),
		DevpostURL:    FindDevpostURL(result),
		SourceURL:     result.URL,
		SourceDomain:  SourceDomain(result.URL),
		Source:        result,
		Signal:        DetectSignal(textBlob),
	}

	key := candidate.DedupeKey()
	if _, ok := seen[key]; ok {
		return false, nil
	}
	seen[key] = struct{}{}

	d.logger.Info("candidate found",
		zap.String("name", candidate.Name),
		zap.String("hackathon", candidate.HackathonName),
		zap.String("source", candidate.SourceURL))

	contextResults := d.gatherContext(ctx, candidate.Name, candidate.HackathonName)
	if err := d.processCandidate(ctx, candidate, contextResults); err != nil {
		return false, err
	}
	d.sleep(1500 * time.Millisecond)
	return true, nil
}

// gatherContext runs a narrow follow-up search for corroborating
// evidence. Failures produce an empty context, not an error.
func (d *Discoverer) gatherContext(ctx context.Context, name, hackathon string) []search.Result {
	query := fmt.Sprintf("%s %s funding success milestone", name, hackathon)
	results, err := d.search.Search(ctx, query, search.Options{NumResults: 6, Mode: search.ModeAuto})
	if err != nil {
		d.logger.Warn("context search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return results
}

var validateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_project": {Type: genai.TypeBoolean},
		"reason":     {Type: genai.TypeString},
	},
	Required: []string{"is_project"},
}

// validateCandidate filters out articles that slipped through about
// nothing in particular. Heuristics decide; the LLM check only confirms,
// and a gateway failure falls back to the heuristic verdict.
func (d *Discoverer) validateCandidate(ctx context.Context, c Candidate) bool {
	text := strings.ToLower(c.SourceTitle + " " + c.Description)
	nameLower := strings.ToLower(c.Name)

	hasProjectName := strings.Contains(text, nameLower) ||
		strings.Contains(text, "project") || strings.Contains(text, "startup") ||
		strings.Contains(text, "app") || strings.Contains(text, "platform")
	hasHackathonContext := strings.Contains(text, "hackathon") ||
		strings.Contains(text, "built at") || strings.Contains(text, "won") ||
		strings.Contains(text, "created at") || strings.Contains(text, "developed at")
	if !hasProjectName || !hasHackathonContext {
		return false
	}
	if len(c.Name) > 80 {
		return false
	}

	body := c.Description
	if body == "" {
		body = c.Snippet
	}
	prompt := fmt.Sprintf(`Is this about a SPECIFIC hackathon project (not an article/blog post)?

TITLE: %s
TEXT: %s

Respond with JSON: {"is_project": boolean, "reason": "brief explanation"}`, c.Name, llm.Truncate(body, 400))

	var out struct {
		IsProject bool   `json:"is_project"`
		Reason    string `json:"reason"`
	}
	err := d.llm.Complete(ctx, llm.Request{
		System:      "You are a validator. Determine if this is about a specific hackathon project, not a general article or blog post. Respond only with valid JSON.",
		Prompt:      prompt,
		Schema:      validateSchema,
		Out:         &out,
		Temperature: 0.3,
	})
	if err != nil {
		d.logger.Warn("candidate validation fell back to heuristics",
			zap.String("name", c.Name), zap.Error(err))
		return true
	}
	return out.IsProject
}

func (d *Discoverer) findExisting(ctx context.Context, c Candidate) (*types.Project, error) {
	if c.DevpostURL != "" {
		p, err := d.store.FindByDevpostURL(ctx, c.DevpostURL)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	hackathon := c.HackathonName
	if hackathon == unknownHackathon {
		hackathon = ""
	}
	p, err := d.store.FindByNameAndHackathon(ctx, c.Name, hackathon)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return nil, err
}

func (d *Discoverer) processCandidate(ctx context.Context, c Candidate, contextResults []search.Result) error {
	if !d.validateCandidate(ctx, c) {
		d.logger.Info("candidate rejected", zap.String("name", c.Name))
		return nil
	}

	existing, err := d.findExisting(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to look up candidate %s: %w", c.Name, err)
	}

	subject := existing
	if subject == nil {
		desc := c.Description
		subject = &types.Project{
			Name:          c.Name,
			Description:   &desc,
			HackathonName: c.HackathonName,
		}
	}

	searchContext := contextResults
	if len(searchContext) == 0 {
		searchContext = []search.Result{c.Source}
	}
	analysis := d.analyzer.AnalyzeSuccessStory(ctx, subject, searchContext)
	analysis.EnsureScores()

	// Keyword signals from the source override a model that missed them.
	if c.Signal == SignalFunding && !analysis.GotFunding {
		analysis.GotFunding = true
		if analysis.FundingSource == nil && c.SourceDomain != "" {
			domain := c.SourceDomain
			analysis.FundingSource = &domain
		}
	}
	if c.Signal == SignalTraction && !analysis.HasRealUsers {
		analysis.HasRealUsers = true
	}

	summary := BuildResearchSummary(analysis)

	urls := []string{c.SourceURL}
	for _, r := range searchContext {
		urls = append(urls, r.URL)
	}
	newSources := SanitizeSources(urls)
	if len(newSources) == 0 {
		d.logger.Info("candidate dropped, no valid sources", zap.String("name", c.Name))
		return nil
	}

	var combined []string
	if existing != nil {
		combined = append(combined, existing.ResearchSources...)
	}
	combined = SanitizeSources(append(combined, newSources...))

	now := d.now().UTC()
	if existing != nil {
		d.applyCandidate(existing, c)
		if err := d.store.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update project %s: %w", existing.ID, err)
		}
		if err := d.store.ApplyAnalysis(ctx, existing.ID, analysis, summary, combined, now); err != nil {
			return fmt.Errorf("failed to persist analysis for %s: %w", existing.ID, err)
		}
		d.logger.Info("updated existing project", zap.String("id", existing.ID))
		return nil
	}

	project := &types.Project{
		Name:          c.Name,
		HackathonName: c.HackathonName,
		Technologies:  c.Technologies,
	}
	d.applyCandidate(project, c)
	if err := d.store.Insert(ctx, project); err != nil {
		return fmt.Errorf("failed to insert discovered project: %w", err)
	}
	if err := d.store.ApplyAnalysis(ctx, project.ID, analysis, summary, combined, now); err != nil {
		return fmt.Errorf("failed to persist analysis for %s: %w", project.ID, err)
	}
	d.logger.Info("added new project from web discovery", zap.String("id", project.ID))
	return nil
}

// applyCandidate copies discovery provenance onto the project row.
func (d *Discoverer) applyCandidate(p *types.Project, c Candidate) {
	if c.Description != "" && p.Description == nil {
		desc := c.Description
		p.Description = &desc
	}
	if c.SourceTitle != "" && p.Tagline == nil {
		tagline := c.SourceTitle
		p.Tagline = &tagline
	}
	if c.DevpostURL != "" && p.DevpostURL == nil {
		u := c.DevpostURL
		p.DevpostURL = &u
	}
	webType := "web"
	p.SourceType = &webType
	origin := c.SourceURL
	p.OriginURL = &origin
}
