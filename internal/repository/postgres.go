package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"valuescout/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository stores the mission log
type PostgresRepository struct {
	db         *sqlx.DB
	dimensions int
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, dimensions int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db, dimensions: dimensions}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the missions table and its indexes if they are missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS missions (
			id            BIGSERIAL PRIMARY KEY,
			query         TEXT NOT NULL,
			country       TEXT NOT NULL,
			product_count INTEGER NOT NULL DEFAULT 0,
			total_value   DOUBLE PRECISION NOT NULL DEFAULT 0,
			top_product   JSONB,
			embedding     vector(%d),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, r.dimensions),
		`CREATE INDEX IF NOT EXISTS missions_created_at_idx ON missions (created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// RecordMission inserts a completed run. embedding may be nil.
func (r *PostgresRepository) RecordMission(ctx context.Context, m *model.Mission, embedding []float32) (int64, error) {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	query := `
		INSERT INTO missions (query, country, product_count, total_value, top_product, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query, m.Query, m.Country, m.ProductCount, m.TotalValue, m.TopProduct, vec)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return 0, fmt.Errorf("failed to record mission: %w", err)
	}
	return m.ID, nil
}

// GetStats aggregates the whole log plus a per-day history of the last days days
func (r *PostgresRepository) GetStats(ctx context.Context, days int) (*model.MissionStats, error) {
	if days <= 0 {
		days = 7
	}

	var totals struct {
		TotalMissions     int        `db:"total_missions"`
		TotalValueScouted float64    `db:"total_value"`
		LastMissionTime   *time.Time `db:"last_mission"`
	}
	totalsQuery := `
		SELECT COUNT(*) AS total_missions,
		       COALESCE(SUM(total_value), 0) AS total_value,
		       MAX(created_at) AS last_mission
		FROM missions
	`
	if err := r.db.GetContext(ctx, &totals, totalsQuery); err != nil {
		return nil, fmt.Errorf("failed to load mission totals: %w", err)
	}

	now := time.Now().UTC()
	since := startOfDay(now).AddDate(0, 0, -(days - 1))

	var rows []dailyRow
	historyQuery := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
		       COUNT(*) AS missions,
		       COALESCE(SUM(total_value), 0) AS value
		FROM missions
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1
	`
	if err := r.db.SelectContext(ctx, &rows, historyQuery, since); err != nil {
		return nil, fmt.Errorf("failed to load mission history: %w", err)
	}

	return &model.MissionStats{
		TotalMissions:     totals.TotalMissions,
		TotalValueScouted: totals.TotalValueScouted,
		LastMissionTime:   totals.LastMissionTime,
		History:           fillHistory(rows, days, now),
	}, nil
}

// FindSimilar returns past missions closest to embedding by cosine distance
func (r *PostgresRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]model.Mission, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, query, country, product_count, total_value, top_product, created_at,
		       embedding <=> $1 AS distance
		FROM missions
		WHERE embedding IS NOT NULL
		ORDER BY distance
		LIMIT $2
	`
	var missions []model.Mission
	if err := r.db.SelectContext(ctx, &missions, query, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("failed to find similar missions: %w", err)
	}
	return missions, nil
}

type dailyRow struct {
	Day      time.Time `db:"day"`
	Missions int       `db:"missions"`
	Value    float64   `db:"value"`
}

// fillHistory returns one entry per day ending today, oldest first.
// Days without missions are zero.
func fillHistory(rows []dailyRow, days int, now time.Time) []model.DailyMissions {
	byDay := make(map[string]dailyRow, len(rows))
	for _, row := range rows {
		byDay[row.Day.UTC().Format("2006-01-02")] = row
	}

	today := startOfDay(now.UTC())
	history := make([]model.DailyMissions, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		row := byDay[day.Format("2006-01-02")]
		history = append(history, model.DailyMissions{
			Name:     day.Format("Jan 2"),
			Missions: row.Missions,
			Value:    row.Value,
		})
	}
	return history
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
