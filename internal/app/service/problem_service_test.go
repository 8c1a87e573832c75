package service

import (
	"context"
	"fmt"
	"testing"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProblemService(repo *stubProblemRepo, today string) (*ProblemService, *stubTransactor) {
	tx := &stubTransactor{}
	svc := NewProblemService(repo, tx, discardLogger(), fixedNow(today))
	return svc, tx
}

func TestProblemService_GetToday_Scheduled(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-02-12", Title: "Scheduled", Difficulty: model.DifficultyEasy},
		model.Problem{DateKey: "2026-02-11", Title: "Yesterday", Difficulty: model.DifficultyHard},
	)
	svc, _ := newTestProblemService(repo, "2026-02-12")

	resp, err := svc.GetToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Scheduled", resp.Title)
	assert.False(t, resp.Fallback)
	assert.Empty(t, resp.RequestedDate)
}

func TestProblemService_GetToday_Fallback(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-01-01", Title: "A"},
		model.Problem{DateKey: "2026-01-02", Title: "B"},
		model.Problem{DateKey: "2026-01-03", Title: "C"},
	)
	svc, _ := newTestProblemService(repo, "2026-02-12")

	first, err := svc.GetToday(ctx)
	require.NoError(t, err)
	assert.True(t, first.Fallback)
	assert.Equal(t, "2026-02-12", first.RequestedDate)

	// Same date, same substitute, every time.
	second, err := svc.GetToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.DateKey, second.DateKey)
}

func TestProblemService_GetToday_EmptyStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestProblemService(newStubProblemRepo(), "2026-02-12")

	_, err := svc.GetToday(ctx)
	assert.ErrorIs(t, err, common.ErrNoContentAvailable)
}

func TestSelectFallback_Deterministic(t *testing.T) {
	records := make([]model.Problem, 5)
	for i := range records {
		records[i] = model.Problem{
			DateKey: fmt.Sprintf("2026-01-%02d", i+1),
			Title:   fmt.Sprintf("p%d", i+1),
		}
	}

	a, err := SelectFallback("2026-02-12", records)
	require.NoError(t, err)
	b, err := SelectFallback("2026-02-12", records)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Different dates spread across the pool rather than pinning one record.
	seen := map[string]bool{}
	for day := 1; day <= 28; day++ {
		p, err := SelectFallback(fmt.Sprintf("2026-03-%02d", day), records)
		require.NoError(t, err)
		seen[p.DateKey] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSelectFallback_Empty(t *testing.T) {
	_, err := SelectFallback("2026-02-12", nil)
	assert.ErrorIs(t, err, common.ErrNoContentAvailable)
}

func TestProblemService_GetByDate(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-02-10", Title: "Past"},
		model.Problem{DateKey: "2026-02-12", Title: "Today"},
		model.Problem{DateKey: "2026-02-20", Title: "Future"},
	)
	svc, _ := newTestProblemService(repo, "2026-02-12")

	tests := []struct {
		name      string
		dateKey   string
		wantTitle string
		wantErr   error
	}{
		{name: "past date", dateKey: "2026-02-10", wantTitle: "Past"},
		{name: "today is open", dateKey: "2026-02-12", wantTitle: "Today"},
		{name: "future locked even when scheduled", dateKey: "2026-02-20", wantErr: common.ErrFutureContent},
		{name: "distant future locked", dateKey: "2099-01-01", wantErr: common.ErrFutureContent},
		{name: "past but missing", dateKey: "2026-02-11", wantErr: common.ErrNotFound},
		{name: "malformed date", dateKey: "12-02-2026", wantErr: common.ErrInvalidDateFormat},
		{name: "malformed beats time lock", dateKey: "2099-1-1", wantErr: common.ErrInvalidDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.GetByDate(ctx, tt.dateKey)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, p.Title)
		})
	}
}

func TestAssertNotFuture(t *testing.T) {
	assert.NoError(t, AssertNotFuture("2026-02-11", "2026-02-12"))
	assert.NoError(t, AssertNotFuture("2026-02-12", "2026-02-12"))
	assert.ErrorIs(t, AssertNotFuture("2026-02-13", "2026-02-12"), common.ErrFutureContent)
}

func TestProblemService_Calendar(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-01-31", Title: "PrevMonth", Difficulty: model.DifficultyEasy},
		model.Problem{DateKey: "2026-02-01", Title: "First", Difficulty: model.DifficultyEasy},
		model.Problem{DateKey: "2026-02-12", Title: "Today", Difficulty: model.DifficultyMedium},
		model.Problem{DateKey: "2026-02-13", Title: "Tomorrow", Difficulty: model.DifficultyHard},
		model.Problem{DateKey: "2026-03-01", Title: "NextMonth", Difficulty: model.DifficultyEasy},
	)
	svc, _ := newTestProblemService(repo, "2026-02-12")

	resp, err := svc.Calendar(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", resp.Month)
	// Future days are silently absent, not errors.
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "2026-02-01", resp.Days[0].Date)
	assert.Equal(t, "2026-02-12", resp.Days[1].Date)

	_, err = svc.Calendar(ctx, "2026-2")
	assert.ErrorIs(t, err, common.ErrInvalidDateFormat)
}

func TestProblemService_UpdateProblem(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(model.Problem{
		DateKey:    "2026-02-10",
		Title:      "Before",
		Difficulty: model.DifficultyEasy,
	})
	svc, _ := newTestProblemService(repo, "2026-02-12")

	req := UpdateProblemRequest{
		Title:       "After",
		Difficulty:  model.DifficultyHard,
		Description: "new description",
		StarterCode: "def solve():\n    pass",
		Topics:      []string{"arrays"},
		TestCases: []model.TestCase{
			{ID: 9, Type: model.TestCaseBasic, Input: "1", Expected: "1"},
			{ID: 4, Type: model.TestCaseEdge, Input: "0", Expected: "0"},
		},
	}

	updated, err := svc.UpdateProblem(ctx, "2026-02-10", req)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, model.DifficultyHard, updated.Difficulty)
	// Test case IDs are renumbered sequentially regardless of input.
	assert.Equal(t, 1, updated.TestCases[0].ID)
	assert.Equal(t, 2, updated.TestCases[1].ID)

	stored, err := repo.Get(ctx, "2026-02-10")
	require.NoError(t, err)
	assert.Equal(t, "After", stored.Title)
}

func TestProblemService_UpdateProblem_Validation(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(model.Problem{DateKey: "2026-02-10", Title: "X"})
	svc, _ := newTestProblemService(repo, "2026-02-12")

	valid := UpdateProblemRequest{
		Title: "T", Description: "D", Difficulty: model.DifficultyEasy,
	}

	missingTitle := valid
	missingTitle.Title = ""
	_, err := svc.UpdateProblem(ctx, "2026-02-10", missingTitle)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	badDifficulty := valid
	badDifficulty.Difficulty = "Extreme"
	_, err = svc.UpdateProblem(ctx, "2026-02-10", badDifficulty)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.UpdateProblem(ctx, "2026-02-11", valid)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProblemService_MoveProblem(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-02-10", Title: "Movable"},
		model.Problem{DateKey: "2026-02-11", Title: "Occupied"},
	)
	svc, tx := newTestProblemService(repo, "2026-02-12")

	moved, err := svc.MoveProblem(ctx, "2026-02-10", "2026-02-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-15", moved.DateKey)
	assert.Equal(t, "Movable", moved.Title)
	assert.Equal(t, 1, tx.calls)

	_, err = repo.Get(ctx, "2026-02-10")
	assert.ErrorIs(t, err, common.ErrNotFound)
	relocated, err := repo.Get(ctx, "2026-02-15")
	require.NoError(t, err)
	assert.Equal(t, "Movable", relocated.Title)
}

func TestProblemService_MoveProblem_Errors(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(
		model.Problem{DateKey: "2026-02-10", Title: "Movable"},
		model.Problem{DateKey: "2026-02-11", Title: "Occupied"},
	)
	svc, tx := newTestProblemService(repo, "2026-02-12")

	_, err := svc.MoveProblem(ctx, "2026-02-10", "2026-02-11")
	assert.ErrorIs(t, err, common.ErrConflict)
	// Conflict is detected before any write is attempted.
	assert.Zero(t, tx.calls)
	still, err := repo.Get(ctx, "2026-02-10")
	require.NoError(t, err)
	assert.Equal(t, "Movable", still.Title)

	_, err = svc.MoveProblem(ctx, "2026-02-20", "2026-02-25")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.MoveProblem(ctx, "2026-02-10", "not-a-date")
	assert.ErrorIs(t, err, common.ErrInvalidDateFormat)
}

func TestProblemService_DeleteProblem(t *testing.T) {
	ctx := context.Background()
	repo := newStubProblemRepo(model.Problem{DateKey: "2026-02-10", Title: "Doomed"})
	svc, _ := newTestProblemService(repo, "2026-02-12")

	require.NoError(t, svc.DeleteProblem(ctx, "2026-02-10"))
	_, err := repo.Get(ctx, "2026-02-10")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteProblem(ctx, "2026-02-10"), common.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProblem(ctx, "bad"), common.ErrInvalidDateFormat)
}
