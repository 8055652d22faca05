// Package store persists finished assessments in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/strokecare/internal/stroke"
)

// ErrNotFound is returned when no assessment has the requested id.
var ErrNotFound = errors.New("assessment not found")

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Record is one persisted assessment.
type Record struct {
	ID         uuid.UUID         `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Profile    stroke.Profile    `json:"profile"`
	Assessment stroke.Assessment `json:"assessment"`
	Insights   string            `json:"insights"`
}

// Store reads and writes assessment records.
type Store struct {
	db DB
}

// New returns a Store over db.
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

const insertAssessment = `
INSERT INTO assessments (id, created_at, profile, percentage, level, factors, explanations, binary_flag, source, degraded, insights)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Save inserts rec.
func (s *Store) Save(ctx context.Context, rec Record) error {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	factors, err := json.Marshal(nonNil(rec.Assessment.Factors))
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	explanations, err := json.Marshal(nonNil(rec.Assessment.Explanations))
	if err != nil {
		return fmt.Errorf("encode explanations: %w", err)
	}
	degraded := rec.Assessment.Degraded
	if degraded == nil {
		degraded = []stroke.Degradation{}
	}
	degradedJSON, err := json.Marshal(degraded)
	if err != nil {
		return fmt.Errorf("encode degraded: %w", err)
	}

	a := rec.Assessment
	_, err = s.db.Exec(ctx, insertAssessment,
		rec.ID, rec.CreatedAt, string(profile), a.Percentage, string(a.Level),
		string(factors), string(explanations), a.BinaryFlag, string(a.Source), string(degradedJSON), rec.Insights,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

const selectAssessment = `
SELECT id, created_at, profile, percentage, level, factors, explanations, binary_flag, source, degraded, insights
FROM assessments WHERE id = $1`

// Get loads the assessment with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	var (
		rec                                         Record
		profile, factors, explanations, degradedRaw []byte
		level, source                               string
	)
	err := s.db.QueryRow(ctx, selectAssessment, id).Scan(
		&rec.ID, &rec.CreatedAt, &profile, &rec.Assessment.Percentage, &level,
		&factors, &explanations, &rec.Assessment.BinaryFlag, &source, &degradedRaw, &rec.Insights,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select assessment: %w", err)
	}

	if err := json.Unmarshal(profile, &rec.Profile); err != nil {
		return Record{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(factors, &rec.Assessment.Factors); err != nil {
		return Record{}, fmt.Errorf("decode factors: %w", err)
	}
	if err := json.Unmarshal(explanations, &rec.Assessment.Explanations); err != nil {
		return Record{}, fmt.Errorf("decode explanations: %w", err)
	}
	if len(degradedRaw) > 0 {
		if err := json.Unmarshal(degradedRaw, &rec.Assessment.Degraded); err != nil {
			return Record{}, fmt.Errorf("decode degraded: %w", err)
		}
	}
	rec.Assessment.Level = stroke.Level(level)
	rec.Assessment.Source = stroke.Source(source)
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
