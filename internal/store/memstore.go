package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackscout/hackscout/internal/types"
)

// MemoryStore is an in-process ProjectStore used by tests and by runs
// that do not need persistence.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]*types.Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]*types.Project)}
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) FindByDevpostURL(ctx context.Context, url string) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.DevpostURL != nil && *p.DevpostURL == url {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByNameAndHackathon(ctx context.Context, name, hackathon string) (*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		if hackathon != "" && !strings.EqualFold(p.HackathonName, hackathon) {
			continue
		}
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUnresearched(ctx context.Context, limit int) ([]types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Project
	for _, p := range s.projects {
		if p.ResearchedAt == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListSuccessStories(ctx context.Context, limit int) ([]types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Project
	for _, p := range s.projects {
		funded := p.GotFunding != nil && *p.GotFunding
		startup := p.BecameStartup != nil && *p.BecameStartup
		if funded || startup {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].OverallScore, out[j].OverallScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	p.UpdatedAt = &now
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *MemoryStore) ApplyAnalysis(ctx context.Context, id string, a *types.Analysis, summary string, sources []string, researchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}

	gotFunding, becameStartup := a.GotFunding, a.BecameStartup
	hasUsers, active := a.HasRealUsers, a.IsStillActive
	p.GotFunding = &gotFunding
	p.FundingAmount = a.FundingAmount
	p.FundingSource = a.FundingSource
	p.BecameStartup = &becameStartup
	p.StartupName = a.StartupName
	p.StartupURL = a.StartupURL
	p.HasRealUsers = &hasUsers
	p.UserCount = a.UserCount
	p.IsStillActive = &active

	sc := a.Scores
	p.MarketScore = &sc.Market
	p.TeamScore = &sc.Team
	p.InnovationScore = &sc.Innovation
	p.ExecutionScore = &sc.Execution
	p.OverallScore = &sc.Overall

	p.ResearchSummary = &summary
	p.ResearchSources = append([]string(nil), sources...)
	t := researchedAt
	p.ResearchedAt = &t
	p.UpdatedAt = &t
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ ProjectStore = (*MemoryStore)(nil)
