package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hackscout/hackscout/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestSQLiteInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &types.Project{
		Name:          "Carrot",
		Tagline:       strPtr("Rewards for healthy habits"),
		HackathonName: "HackMIT 2016",
		Technologies:  []string{"swift", "firebase"},
		DevpostURL:    strPtr("https://devpost.com/software/carrot"),
	}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected insert to assign an id")
	}

	got, err := s.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Name != "Carrot" {
		t.Errorf("name = %q, want Carrot", got.Name)
	}
	if got.Tagline == nil || *got.Tagline != "Rewards for healthy habits" {
		t.Errorf("unexpected tagline: %v", got.Tagline)
	}
	if len(got.Technologies) != 2 || got.Technologies[0] != "swift" {
		t.Errorf("unexpected technologies: %v", got.Technologies)
	}
	if got.Researched() {
		t.Error("fresh project should not be researched")
	}

	byURL, err := s.FindByDevpostURL(ctx, "https://devpost.com/software/carrot")
	if err != nil {
		t.Fatalf("find by url failed: %v", err)
	}
	if byURL.ID != p.ID {
		t.Errorf("find by url returned %s, want %s", byURL.ID, p.ID)
	}
}

func TestSQLiteFindByIDNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteFindByNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Insert(ctx, &types.Project{Name: "Carrot", HackathonName: "HackMIT 2016"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := s.FindByNameAndHackathon(ctx, "CARROT", "hackmit 2016")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Name != "Carrot" {
		t.Errorf("name = %q, want Carrot", got.Name)
	}

	// Empty hackathon name matches on project name alone.
	if _, err := s.FindByNameAndHackathon(ctx, "carrot", ""); err != nil {
		t.Fatalf("find without hackathon failed: %v", err)
	}

	if _, err := s.FindByNameAndHackathon(ctx, "carrot", "TreeHacks"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for wrong hackathon", err)
	}
}

func TestSQLiteApplyAnalysis(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &types.Project{Name: "Carrot", HackathonName: "HackMIT 2016"}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	amount := 2000000.0
	a := &types.Analysis{
		GotFunding:    true,
		FundingAmount: &amount,
		FundingSource: strPtr("Y Combinator"),
		BecameStartup: true,
		IsStillActive: true,
		Scores:        types.Scores{Market: 80, Team: 70, Innovation: 75, Execution: 85, Overall: 78},
	}
	researched := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.ApplyAnalysis(ctx, p.ID, a, "Raised a $2M seed round.", []string{"https://techcrunch.com/carrot"}, researched); err != nil {
		t.Fatalf("apply analysis failed: %v", err)
	}

	got, err := s.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.GotFunding == nil || !*got.GotFunding {
		t.Error("got_funding should be true")
	}
	if got.FundingAmount == nil || *got.FundingAmount != 2000000.0 {
		t.Errorf("unexpected funding amount: %v", got.FundingAmount)
	}
	if got.OverallScore == nil || *got.OverallScore != 78 {
		t.Errorf("unexpected overall score: %v", got.OverallScore)
	}
	if got.ResearchedAt == nil || !got.ResearchedAt.Equal(researched) {
		t.Errorf("unexpected researched_at: %v", got.ResearchedAt)
	}
	if len(got.ResearchSources) != 1 {
		t.Errorf("unexpected sources: %v", got.ResearchSources)
	}
	if !got.Researched() {
		t.Error("project should be researched after analysis")
	}
}

func TestSQLiteApplyAnalysisMissingProject(t *testing.T) {
	s := newTestStore(t)
	err := s.ApplyAnalysis(context.Background(), "missing", &types.Analysis{}, "", nil, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteListUnresearched(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	fresh := &types.Project{Name: "Fresh", HackathonName: "TreeHacks"}
	done := &types.Project{Name: "Done", HackathonName: "TreeHacks"}
	for _, p := range []*types.Project{fresh, done} {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := s.ApplyAnalysis(ctx, done.ID, &types.Analysis{}, "done", nil, time.Now().UTC()); err != nil {
		t.Fatalf("apply analysis failed: %v", err)
	}

	list, err := s.ListUnresearched(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Fresh" {
		t.Fatalf("unexpected unresearched list: %+v", list)
	}
}

func TestSQLiteListSuccessStories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	insert := func(name string, funded bool, overall int) {
		t.Helper()
		p := &types.Project{Name: name, HackathonName: "TreeHacks"}
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		a := &types.Analysis{GotFunding: funded, Scores: types.Scores{Overall: overall}}
		if err := s.ApplyAnalysis(ctx, p.ID, a, "", nil, time.Now().UTC()); err != nil {
			t.Fatalf("apply analysis failed: %v", err)
		}
	}
	insert("Low", true, 60)
	insert("High", true, 90)
	insert("Unfunded", false, 95)

	list, err := s.ListSuccessStories(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 success stories, got %d", len(list))
	}
	if list[0].Name != "High" || list[1].Name != "Low" {
		t.Errorf("unexpected ordering: %s, %s", list[0].Name, list[1].Name)
	}
}

func TestSQLiteUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &types.Project{Name: "Carrot", HackathonName: "HackMIT 2016"}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	p.Prize = strPtr("Grand Prize")
	p.Technologies = []string{"swift"}
	if err := s.Update(ctx, p); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := s.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Prize == nil || *got.Prize != "Grand Prize" {
		t.Errorf("unexpected prize: %v", got.Prize)
	}

	if err := s.Update(ctx, &types.Project{ID: "missing", Name: "X", HackathonName: "Y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for missing project", err)
	}
}
