package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/datekey"
	"codele_backend/internal/domain/model"
	"codele_backend/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// themePalette are the calendar accent colors, assigned to theme names in
// first-seen order and cycled once exhausted.
var themePalette = []string{
	"#d29922", "#58a6ff", "#3fb950", "#f85149",
	"#bc8cff", "#79c0ff", "#e3b341", "#56d364",
}

// coveringScanLimit bounds the first-match scan in FindCovering.
const coveringScanLimit = 20

// ThemeService is the theme range registry: it records batch descriptors,
// resolves which theme covers a date and hands out display colors.
type ThemeService struct {
	themeRepo repository.ThemeRepository
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	colors   map[string]string // theme name -> palette color, process lifetime
	colorIdx int
}

func NewThemeService(themeRepo repository.ThemeRepository, logger *slog.Logger, now func() time.Time) *ThemeService {
	return &ThemeService{
		themeRepo: themeRepo,
		logger:    logger,
		now:       now,
		colors:    make(map[string]string),
	}
}

// RecordBatch appends a new theme range for a generated batch. Overlap with
// existing ranges is not rejected; lookup order decides the winner.
func (s *ThemeService) RecordBatch(ctx context.Context, tx *sql.Tx, theme, startDate, endDate string, count int) (*model.ThemeRange, error) {
	record := &model.ThemeRange{
		ID:          uuid.NewString(),
		Theme:       theme,
		Slug:        slug.Make(theme),
		StartDate:   startDate,
		EndDate:     endDate,
		Count:       count,
		GeneratedAt: s.now().UTC(),
	}
	if err := s.themeRepo.Insert(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("ThemeService.RecordBatch: %w", err)
	}
	return record, nil
}

// FindCovering returns the first range containing the date key, scanning
// most-recently-generated-first. With overlapping ranges the newest batch
// wins; that priority comes from iteration order alone, there is no
// conflict resolution.
func (s *ThemeService) FindCovering(ctx context.Context, dateKey string) (*model.ThemeRange, error) {
	themes, err := s.themeRepo.ListRecent(ctx, coveringScanLimit)
	if err != nil {
		return nil, fmt.Errorf("ThemeService.FindCovering: %w", err)
	}
	return FirstCovering(themes, dateKey)
}

// FirstCovering scans ranges in the given order and returns the first one
// containing dateKey, or ErrNotFound.
func FirstCovering(themes []model.ThemeRange, dateKey string) (*model.ThemeRange, error) {
	for i := range themes {
		if themes[i].Contains(dateKey) {
			return &themes[i], nil
		}
	}
	return nil, fmt.Errorf("no theme covers %s: %w", dateKey, common.ErrNotFound)
}

// AssignColor maps a theme name to a palette color, stable for the life of
// the process: the first distinct name gets the first color and so on,
// wrapping when the palette runs out.
func (s *ThemeService) AssignColor(theme string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if color, ok := s.colors[theme]; ok {
		return color
	}
	color := themePalette[s.colorIdx%len(themePalette)]
	s.colors[theme] = color
	s.colorIdx++
	return color
}

// ListRecent returns theme ranges newest-generated-first. Used as the
// exclusion hint for theme picking.
func (s *ThemeService) ListRecent(ctx context.Context, limit int) ([]model.ThemeRange, error) {
	return s.themeRepo.ListRecent(ctx, limit)
}

// RecentThemeNames flattens ListRecent for the generator hint.
func (s *ThemeService) RecentThemeNames(ctx context.Context, limit int) ([]string, error) {
	themes, err := s.themeRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ThemeService.RecentThemeNames: %w", err)
	}
	names := make([]string, 0, len(themes))
	for i := range themes {
		names = append(names, themes[i].Theme)
	}
	return names, nil
}

// ThemeView is the public listing shape: the range plus its display color.
type ThemeView struct {
	model.ThemeRange
	Color string `json:"color"`
}

// ListPublic returns past and current themes, newest first, optionally
// narrowed to themes starting in the given YYYY-MM month. Themes starting
// after today are excluded entirely (time lock).
func (s *ThemeService) ListPublic(ctx context.Context, month string) ([]ThemeView, error) {
	todayKey := datekey.FromTime(s.now())

	themes, err := s.themeRepo.ListStartedBy(ctx, todayKey)
	if err != nil {
		return nil, fmt.Errorf("ThemeService.ListPublic: %w", err)
	}

	var minKey, maxKey string
	if month != "" {
		minKey, maxKey, err = datekey.MonthBounds(month)
		if err != nil {
			return nil, err
		}
	}

	views := []ThemeView{}
	for i := range themes {
		if month != "" && (themes[i].StartDate < minKey || themes[i].StartDate > maxKey) {
			continue
		}
		views = append(views, ThemeView{
			ThemeRange: themes[i],
			Color:      s.AssignColor(themes[i].Theme),
		})
	}
	return views, nil
}

// Rename changes a theme's display text in place; dates and count are
// immutable after generation.
func (s *ThemeService) Rename(ctx context.Context, id, newTheme string) (*model.ThemeRange, error) {
	if newTheme == "" {
		return nil, fmt.Errorf("theme name must not be empty: %w", common.ErrBadRequest)
	}
	renamed, err := s.themeRepo.Rename(ctx, id, newTheme, slug.Make(newTheme))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("theme %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ThemeService.Rename: %w", err)
	}
	s.logger.Info("theme renamed", "id", id, "theme", newTheme)
	return renamed, nil
}
