package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackscout/hackscout/internal/types"
)

// PostgresStore implements ProjectStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore connected to the given
// database URL.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

const projectColumns = `
	id, name, tagline, description, hackathon_name, hackathon_date, prize, technologies,
	devpost_url, github_url, demo_url, video_url, image_url, source_type, origin_url,
	got_funding, funding_amount, funding_source, became_startup, startup_name, startup_url,
	has_real_users, user_count, is_still_active,
	market_score, team_score, innovation_score, execution_score, overall_score,
	research_summary, research_sources, researched_at, created_at, updated_at
`

func scanProject(row pgx.Row) (*types.Project, error) {
	var p types.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Tagline, &p.Description, &p.HackathonName, &p.HackathonDate, &p.Prize, &p.Technologies,
		&p.DevpostURL, &p.GithubURL, &p.DemoURL, &p.VideoURL, &p.ImageURL, &p.SourceType, &p.OriginURL,
		&p.GotFunding, &p.FundingAmount, &p.FundingSource, &p.BecameStartup, &p.StartupName, &p.StartupURL,
		&p.HasRealUsers, &p.UserCount, &p.IsStillActive,
		&p.MarketScore, &p.TeamScore, &p.InnovationScore, &p.ExecutionScore, &p.OverallScore,
		&p.ResearchSummary, &p.ResearchSources, &p.ResearchedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID returns the project with the given id, or ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*types.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return p, nil
}

// FindByDevpostURL returns the project whose devpost URL matches.
func (s *PostgresStore) FindByDevpostURL(ctx context.Context, url string) (*types.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE devpost_url = $1 LIMIT 1`, url)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by devpost url: %w", err)
	}
	return p, nil
}

// FindByNameAndHackathon performs a case-insensitive lookup, narrowed by
// hackathon name when one is given.
func (s *PostgresStore) FindByNameAndHackathon(ctx context.Context, name, hackathon string) (*types.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE name ILIKE $1 AND ($2 = '' OR hackathon_name ILIKE $2)
		 LIMIT 1`,
		name, hackathon)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by name: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]types.Project, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// ListUnresearched returns up to limit never-researched projects.
func (s *PostgresStore) ListUnresearched(ctx context.Context, limit int) ([]types.Project, error) {
	return s.list(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE researched_at IS NULL ORDER BY created_at LIMIT $1`,
		limit)
}

// ListSuccessStories returns up to limit funded or startup-forming
// projects, best overall score first.
func (s *PostgresStore) ListSuccessStories(ctx context.Context, limit int) ([]types.Project, error) {
	return s.list(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE got_funding = TRUE OR became_startup = TRUE
		 ORDER BY overall_score DESC NULLS LAST LIMIT $1`,
		limit)
}

// Insert stores a new project, assigning an id when none is set.
func (s *PostgresStore) Insert(ctx context.Context, p *types.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34)`,
		p.ID, p.Name, p.Tagline, p.Description, p.HackathonName, p.HackathonDate, p.Prize, p.Technologies,
		p.DevpostURL, p.GithubURL, p.DemoURL, p.VideoURL, p.ImageURL, p.SourceType, p.OriginURL,
		p.GotFunding, p.FundingAmount, p.FundingSource, p.BecameStartup, p.StartupName, p.StartupURL,
		p.HasRealUsers, p.UserCount, p.IsStillActive,
		p.MarketScore, p.TeamScore, p.InnovationScore, p.ExecutionScore, p.OverallScore,
		p.ResearchSummary, p.ResearchSources, p.ResearchedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// Update replaces the stored row for p.ID.
func (s *PostgresStore) Update(ctx context.Context, p *types.Project) error {
	now := time.Now().UTC()
	p.UpdatedAt = &now

	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET
			name=$2, tagline=$3, description=$4, hackathon_name=$5, hackathon_date=$6, prize=$7, technologies=$8,
			devpost_url=$9, github_url=$10, demo_url=$11, video_url=$12, image_url=$13, source_type=$14, origin_url=$15,
			got_funding=$16, funding_amount=$17, funding_source=$18, became_startup=$19, startup_name=$20, startup_url=$21,
			has_real_users=$22, user_count=$23, is_still_active=$24,
			market_score=$25, team_score=$26, innovation_score=$27, execution_score=$28, overall_score=$29,
			research_summary=$30, research_sources=$31, researched_at=$32, updated_at=$33
		 WHERE id=$1`,
		p.ID,
		p.Name, p.Tagline, p.Description, p.HackathonName, p.HackathonDate, p.Prize, p.Technologies,
		p.DevpostURL, p.GithubURL, p.DemoURL, p.VideoURL, p.ImageURL, p.SourceType, p.OriginURL,
		p.GotFunding, p.FundingAmount, p.FundingSource, p.BecameStartup, p.StartupName, p.StartupURL,
		p.HasRealUsers, p.UserCount, p.IsStillActive,
		p.MarketScore, p.TeamScore, p.InnovationScore, p.ExecutionScore, p.OverallScore,
		p.ResearchSummary, p.ResearchSources, p.ResearchedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyAnalysis merges one successful analysis pass onto the project.
func (s *PostgresStore) ApplyAnalysis(ctx context.Context, id string, a *types.Analysis, summary string, sources []string, researchedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET
			got_funding=$2, funding_amount=$3, funding_source=$4,
			became_startup=$5, startup_name=$6, startup_url=$7,
			has_real_users=$8, user_count=$9, is_still_active=$10,
			market_score=$11, team_score=$12, innovation_score=$13, execution_score=$14, overall_score=$15,
			research_summary=$16, research_sources=$17, researched_at=$18, updated_at=$18
		 WHERE id=$1`,
		id,
		a.GotFunding, a.FundingAmount, a.FundingSource,
		a.BecameStartup, a.StartupName, a.StartupURL,
		a.HasRealUsers, a.UserCount, a.IsStillActive,
		a.Scores.Market, a.Scores.Team, a.Scores.Innovation, a.Scores.Execution, a.Scores.Overall,
		summary, sources, researchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to apply analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ ProjectStore = (*PostgresStore)(nil)
