package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/generator"
	"codele_backend/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(dateKey string) func() time.Time {
	t, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		panic("fixedNow: " + err.Error())
	}
	return func() time.Time { return t.UTC() }
}

// stubProblemRepo is a map-backed ProblemRepository. Enumeration methods
// return rows ordered by date key ascending, matching the SQL implementation.
type stubProblemRepo struct {
	problems map[string]model.Problem

	getErr     error
	findAllErr error
	insertErr  error
}

func newStubProblemRepo(problems ...model.Problem) *stubProblemRepo {
	r := &stubProblemRepo{problems: make(map[string]model.Problem)}
	for _, p := range problems {
		r.problems[p.DateKey] = p
	}
	return r
}

func (r *stubProblemRepo) sortedKeys() []string {
	keys := make([]string, 0, len(r.problems))
	for k := range r.problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *stubProblemRepo) Get(ctx context.Context, dateKey string) (*model.Problem, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.problems[dateKey]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *stubProblemRepo) FindRange(ctx context.Context, minKey, maxKey string) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, k := range r.sortedKeys() {
		if k >= minKey && k <= maxKey {
			out = append(out, r.problems[k])
		}
	}
	return out, nil
}

func (r *stubProblemRepo) FindAll(ctx context.Context) ([]model.Problem, error) {
	if r.findAllErr != nil {
		return nil, r.findAllErr
	}
	out := []model.Problem{}
	for _, k := range r.sortedKeys() {
		out = append(out, r.problems[k])
	}
	return out, nil
}

func (r *stubProblemRepo) FindLatest(ctx context.Context) (*model.Problem, error) {
	keys := r.sortedKeys()
	if len(keys) == 0 {
		return nil, common.ErrNotFound
	}
	p := r.problems[keys[len(keys)-1]]
	return &p, nil
}

func (r *stubProblemRepo) CountAfter(ctx context.Context, dateKey string) (int, error) {
	n := 0
	for k := range r.problems {
		if k > dateKey {
			n++
		}
	}
	return n, nil
}

func (r *stubProblemRepo) ListTitles(ctx context.Context) ([]string, error) {
	titles := []string{}
	for _, k := range r.sortedKeys() {
		titles = append(titles, r.problems[k].Title)
	}
	return titles, nil
}

func (r *stubProblemRepo) Insert(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.problems[p.DateKey]; ok {
		return fmt.Errorf("problem already scheduled for %s: %w", p.DateKey, common.ErrConflict)
	}
	r.problems[p.DateKey] = *p
	return nil
}

func (r *stubProblemRepo) InsertMany(ctx context.Context, tx *sql.Tx, problems []model.Problem) error {
	for i := range problems {
		if err := r.Insert(ctx, tx, &problems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubProblemRepo) Update(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	if _, ok := r.problems[p.DateKey]; !ok {
		return common.ErrNotFound
	}
	r.problems[p.DateKey] = *p
	return nil
}

func (r *stubProblemRepo) Delete(ctx context.Context, tx *sql.Tx, dateKey string) error {
	if _, ok := r.problems[dateKey]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, dateKey)
	return nil
}

// stubThemeRepo is a slice-backed ThemeRepository.
type stubThemeRepo struct {
	themes []model.ThemeRange

	insertErr error
	listErr   error
}

func (r *stubThemeRepo) Insert(ctx context.Context, tx *sql.Tx, t *model.ThemeRange) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.themes = append(r.themes, *t)
	return nil
}

func (r *stubThemeRepo) ListRecent(ctx context.Context, limit int) ([]model.ThemeRange, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.ThemeRange, len(r.themes))
	copy(out, r.themes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubThemeRepo) ListStartedBy(ctx context.Context, maxStartKey string) ([]model.ThemeRange, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []model.ThemeRange{}
	for i := range r.themes {
		if r.themes[i].StartDate <= maxStartKey {
			out = append(out, r.themes[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate > out[j].StartDate
	})
	return out, nil
}

func (r *stubThemeRepo) Rename(ctx context.Context, id, newTheme, newSlug string) (*model.ThemeRange, error) {
	for i := range r.themes {
		if r.themes[i].ID == id {
			r.themes[i].Theme = newTheme
			r.themes[i].Slug = newSlug
			t := r.themes[i]
			return &t, nil
		}
	}
	return nil, common.ErrNotFound
}

// stubTransactor runs the function without a real transaction. Repositories
// treat a nil tx as "use the pool", so stubs behave identically either way.
type stubTransactor struct {
	beginErr error
	calls    int
}

func (t *stubTransactor) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if t.beginErr != nil {
		return t.beginErr
	}
	t.calls++
	return fn(nil)
}

type stubThemePicker struct {
	pick func(recentThemes []string) (string, error)

	gotRecent [][]string
}

func (p *stubThemePicker) PickTheme(ctx context.Context, recentThemes []string) (string, error) {
	p.gotRecent = append(p.gotRecent, recentThemes)
	return p.pick(recentThemes)
}

type stubBatchGenerator struct {
	generate func(theme string, count int, existingTitles []string) ([]generator.ProblemDraft, error)

	gotTitles [][]string
}

func (g *stubBatchGenerator) GenerateProblems(ctx context.Context, theme string, count int, existingTitles []string) ([]generator.ProblemDraft, error) {
	g.gotTitles = append(g.gotTitles, existingTitles)
	return g.generate(theme, count, existingTitles)
}

// makeDrafts builds count well-formed drafts with numbered titles.
func makeDrafts(theme string, count int) []generator.ProblemDraft {
	drafts := make([]generator.ProblemDraft, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, generator.ProblemDraft{
			Title:       fmt.Sprintf("%s Problem %d", theme, i+1),
			Description: "description",
			StarterCode: "def solve():\n    pass",
			Topics:      []string{theme},
			TestCases: []generator.TestCaseDraft{
				{Type: "basic", Hint: "hint", Input: "1", Expected: "1"},
				{Type: "edge", Hint: "hint", Input: "0", Expected: "0"},
			},
		})
	}
	return drafts
}
