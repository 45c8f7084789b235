package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hackscout/hackscout/internal/types"
)

// SQLiteStore implements ProjectStore using SQLite, for local and test
// deployments. List-valued columns are stored as JSON text, booleans as
// integers.
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

// InitSchema creates the projects table if it does not exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			tagline TEXT,
			description TEXT,
			hackathon_name TEXT NOT NULL,
			hackathon_date TEXT,
			prize TEXT,
			technologies TEXT,
			devpost_url TEXT,
			github_url TEXT,
			demo_url TEXT,
			video_url TEXT,
			image_url TEXT,
			source_type TEXT,
			origin_url TEXT,
			got_funding INTEGER,
			funding_amount REAL,
			funding_source TEXT,
			became_startup INTEGER,
			startup_name TEXT,
			startup_url TEXT,
			has_real_users INTEGER,
			user_count INTEGER,
			is_still_active INTEGER,
			market_score INTEGER,
			team_score INTEGER,
			innovation_score INTEGER,
			execution_score INTEGER,
			overall_score INTEGER,
			research_summary TEXT,
			research_sources TEXT,
			researched_at TEXT,
			created_at TEXT,
			updated_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_projects_devpost ON projects(devpost_url);
		CREATE INDEX IF NOT EXISTS idx_projects_researched ON projects(researched_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

const sqliteProjectColumns = `
	id, name, tagline, description, hackathon_name, hackathon_date, prize, technologies,
	devpost_url, github_url, demo_url, video_url, image_url, source_type, origin_url,
	got_funding, funding_amount, funding_source, became_startup, startup_name, startup_url,
	has_real_users, user_count, is_still_active,
	market_score, team_score, innovation_score, execution_score, overall_score,
	research_summary, research_sources, researched_at, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProject(row rowScanner) (*types.Project, error) {
	var p types.Project
	var (
		tagline, description, hackathonDate, prize            sql.NullString
		technologies, sources                                 sql.NullString
		devpost, github, demo, video, image, srcType, origin  sql.NullString
		gotFunding, becameStartup, hasUsers, active           sql.NullInt64
		fundingAmount                                         sql.NullFloat64
		fundingSource, startupName, startupURL                sql.NullString
		userCount                                             sql.NullInt64
		market, team, innovation, execution, overall          sql.NullInt64
		summary, researchedAt, createdAt, updatedAt           sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Name, &tagline, &description, &p.HackathonName, &hackathonDate, &prize, &technologies,
		&devpost, &github, &demo, &video, &image, &srcType, &origin,
		&gotFunding, &fundingAmount, &fundingSource, &becameStartup, &startupName, &startupURL,
		&hasUsers, &userCount, &active,
		&market, &team, &innovation, &execution, &overall,
		&summary, &sources, &researchedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Tagline = nullString(tagline)
	p.Description = nullString(description)
	p.HackathonDate = nullString(hackathonDate)
	p.Prize = nullString(prize)
	p.DevpostURL = nullString(devpost)
	p.GithubURL = nullString(github)
	p.DemoURL = nullString(demo)
	p.VideoURL = nullString(video)
	p.ImageURL = nullString(image)
	p.SourceType = nullString(srcType)
	p.OriginURL = nullString(origin)
	p.GotFunding = nullBool(gotFunding)
	p.BecameStartup = nullBool(becameStartup)
	p.HasRealUsers = nullBool(hasUsers)
	p.IsStillActive = nullBool(active)
	p.FundingSource = nullString(fundingSource)
	p.StartupName = nullString(startupName)
	p.StartupURL = nullString(startupURL)
	p.ResearchSummary = nullString(summary)
	if fundingAmount.Valid {
		p.FundingAmount = &fundingAmount.Float64
	}
	if userCount.Valid {
		p.UserCount = &userCount.Int64
	}
	p.MarketScore = nullInt(market)
	p.TeamScore = nullInt(team)
	p.InnovationScore = nullInt(innovation)
	p.ExecutionScore = nullInt(execution)
	p.OverallScore = nullInt(overall)
	p.ResearchedAt = nullTime(researchedAt)
	p.CreatedAt = nullTime(createdAt)
	p.UpdatedAt = nullTime(updatedAt)

	if technologies.Valid && technologies.String != "" {
		_ = json.Unmarshal([]byte(technologies.String), &p.Technologies)
	}
	if sources.Valid && sources.String != "" {
		_ = json.Unmarshal([]byte(sources.String), &p.ResearchSources)
	}

	return &p, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolArg(v *bool) any {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}

func timeArg(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(time.RFC3339)
}

func jsonArg(v []string) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

// FindByID returns the project with the given id, or ErrNotFound.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteProjectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return p, nil
}

// FindByDevpostURL returns the project whose devpost URL matches.
func (s *SQLiteStore) FindByDevpostURL(ctx context.Context, url string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteProjectColumns+` FROM projects WHERE devpost_url = ? LIMIT 1`, url)
	p, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by devpost url: %w", err)
	}
	return p, nil
}

// FindByNameAndHackathon performs a case-insensitive lookup, narrowed by
// hackathon name when one is given.
func (s *SQLiteStore) FindByNameAndHackathon(ctx context.Context, name, hackathon string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteProjectColumns+` FROM projects
		 WHERE LOWER(name) = LOWER(?) AND (? = '' OR LOWER(hackathon_name) = LOWER(?))
		 LIMIT 1`,
		name, hackathon, hackathon)
	p, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project by name: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanSQLiteProject(rows)
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
func (s *SQLiteStore) ListUnresearched(ctx context.Context, limit int) ([]types.Project, error) {
	return s.list(ctx,
		`SELECT `+sqliteProjectColumns+` FROM projects WHERE researched_at IS NULL ORDER BY created_at LIMIT ?`,
		limit)
}

// ListSuccessStories returns up to limit funded or startup-forming
// projects, best overall score first.
func (s *SQLiteStore) ListSuccessStories(ctx context.Context, limit int) ([]types.Project, error) {
	return s.list(ctx,
		`SELECT `+sqliteProjectColumns+` FROM projects
		 WHERE got_funding = 1 OR became_startup = 1
		 ORDER BY overall_score DESC LIMIT ?`,
		limit)
}

// Insert stores a new project, assigning an id when none is set.
func (s *SQLiteStore) Insert(ctx context.Context, p *types.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+sqliteProjectColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Tagline, p.Description, p.HackathonName, p.HackathonDate, p.Prize, jsonArg(p.Technologies),
		p.DevpostURL, p.GithubURL, p.DemoURL, p.VideoURL, p.ImageURL, p.SourceType, p.OriginURL,
		boolArg(p.GotFunding), p.FundingAmount, p.FundingSource, boolArg(p.BecameStartup), p.StartupName, p.StartupURL,
		boolArg(p.HasRealUsers), p.UserCount, boolArg(p.IsStillActive),
		p.MarketScore, p.TeamScore, p.InnovationScore, p.ExecutionScore, p.OverallScore,
		p.ResearchSummary, jsonArg(p.ResearchSources), timeArg(p.ResearchedAt), timeArg(p.CreatedAt), timeArg(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// Update replaces the stored row for p.ID.
func (s *SQLiteStore) Update(ctx context.Context, p *types.Project) error {
	now := time.Now().UTC()
	p.UpdatedAt = &now

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET
			name=?, tagline=?, description=?, hackathon_name=?, hackathon_date=?, prize=?, technologies=?,
			devpost_url=?, github_url=?, demo_url=?, video_url=?, image_url=?, source_type=?, origin_url=?,
			got_funding=?, funding_amount=?, funding_source=?, became_startup=?, startup_name=?, startup_url=?,
			has_real_users=?, user_count=?, is_still_active=?,
			market_score=?, team_score=?, innovation_score=?, execution_score=?, overall_score=?,
			research_summary=?, research_sources=?, researched_at=?, updated_at=?
		 WHERE id=?`,
		p.Name, p.Tagline, p.Description, p.HackathonName, p.HackathonDate, p.Prize, jsonArg(p.Technologies),
		p.DevpostURL, p.GithubURL, p.DemoURL, p.VideoURL, p.ImageURL, p.SourceType, p.OriginURL,
		boolArg(p.GotFunding), p.FundingAmount, p.FundingSource, boolArg(p.BecameStartup), p.StartupName, p.StartupURL,
		boolArg(p.HasRealUsers), p.UserCount, boolArg(p.IsStillActive),
		p.MarketScore, p.TeamScore, p.InnovationScore, p.ExecutionScore, p.OverallScore,
		p.ResearchSummary, jsonArg(p.ResearchSources), timeArg(p.ResearchedAt), timeArg(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyAnalysis merges one successful analysis pass onto the project.
func (s *SQLiteStore) ApplyAnalysis(ctx context.Context, id string, a *types.Analysis, summary string, sources []string, researchedAt time.Time) error {
	t := researchedAt
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET
			got_funding=?, funding_amount=?, funding_source=?,
			became_startup=?, startup_name=?, startup_url=?,
			has_real_users=?, user_count=?, is_still_active=?,
			market_score=?, team_score=?, innovation_score=?, execution_score=?, overall_score=?,
			research_summary=?, research_sources=?, researched_at=?, updated_at=?
		 WHERE id=?`,
		boolToInt(a.GotFunding), a.FundingAmount, a.FundingSource,
		boolToInt(a.BecameStartup), a.StartupName, a.StartupURL,
		boolToInt(a.HasRealUsers), a.UserCount, boolToInt(a.IsStillActive),
		a.Scores.Market, a.Scores.Team, a.Scores.Innovation, a.Scores.Execution, a.Scores.Overall,
		summary, jsonArg(sources), timeArg(&t), timeArg(&t),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to apply analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ProjectStore = (*SQLiteStore)(nil)
