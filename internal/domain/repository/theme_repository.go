package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/model"
)

type ThemeRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, t *model.ThemeRange) error
	// ListRecent returns ranges ordered by generation time descending.
	// This ordering defines first-match priority when ranges overlap.
	ListRecent(ctx context.Context, limit int) ([]model.ThemeRange, error)
	// ListStartedBy returns ranges with start_date <= maxStartKey,
	// newest first. Used by the public listing so future themes never leak.
	ListStartedBy(ctx context.Context, maxStartKey string) ([]model.ThemeRange, error)
	Rename(ctx context.Context, id, newTheme, newSlug string) (*model.ThemeRange, error)
}

type pgThemeRepository struct {
	db *sql.DB
}

func NewPgThemeRepository(db *sql.DB) ThemeRepository {
	return &pgThemeRepository{db: db}
}

const themeColumns = `id, theme, slug, start_date, end_date, count, generated_at`

func (r *pgThemeRepository) Insert(ctx context.Context, tx *sql.Tx, t *model.ThemeRange) error {
	query := `INSERT INTO themes (id, theme, slug, start_date, end_date, count, generated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, t.ID, t.Theme, t.Slug, t.StartDate, t.EndDate, t.Count, t.GeneratedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, t.ID, t.Theme, t.Slug, t.StartDate, t.EndDate, t.Count, t.GeneratedAt)
	}
	if err != nil {
		return fmt.Errorf("pgThemeRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgThemeRepository) ListRecent(ctx context.Context, limit int) ([]model.ThemeRange, error) {
	query := `SELECT ` + themeColumns + ` FROM themes ORDER BY generated_at DESC LIMIT $1`
	return r.queryThemes(ctx, "ListRecent", query, limit)
}

func (r *pgThemeRepository) ListStartedBy(ctx context.Context, maxStartKey string) ([]model.ThemeRange, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE start_date <= $1 ORDER BY start_date DESC`
	return r.queryThemes(ctx, "ListStartedBy", query, maxStartKey)
}

func (r *pgThemeRepository) queryThemes(ctx context.Context, op, query string, args ...interface{}) ([]model.ThemeRange, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgThemeRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	themes := []model.ThemeRange{}
	for rows.Next() {
		var t model.ThemeRange
		if err := rows.Scan(&t.ID, &t.Theme, &t.Slug, &t.StartDate, &t.EndDate, &t.Count, &t.GeneratedAt); err != nil {
			return nil, fmt.Errorf("pgThemeRepository.%s scan: %w", op, err)
		}
		themes = append(themes, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgThemeRepository.%s rows.Err: %w", op, err)
	}
	return themes, nil
}

func (r *pgThemeRepository) Rename(ctx context.Context, id, newTheme, newSlug string) (*model.ThemeRange, error) {
	query := `UPDATE themes SET theme = $1, slug = $2 WHERE id = $3 RETURNING ` + themeColumns
	var t model.ThemeRange
	err := r.db.QueryRowContext(ctx, query, newTheme, newSlug, id).Scan(
		&t.ID, &t.Theme, &t.Slug, &t.StartDate, &t.EndDate, &t.Count, &t.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgThemeRepository.Rename: %w", err)
	}
	return &t, nil
}
