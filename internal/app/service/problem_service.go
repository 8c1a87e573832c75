package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/datekey"
	"codele_backend/internal/domain/model"
	"codele_backend/internal/domain/repository"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	tx          repository.Transactor // move = delete + recreate, atomically
	logger      *slog.Logger
	now         func() time.Time
}

// now is injected so date-sensitive behavior is testable; production
// callers pass time.Now.
func NewProblemService(problemRepo repository.ProblemRepository, tx repository.Transactor, logger *slog.Logger, now func() time.Time) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		tx:          tx,
		logger:      logger,
		now:         now,
	}
}

// TodayProblemResponse wraps a problem with the fallback annotation so
// callers can tell substitute content apart from scheduled content.
type TodayProblemResponse struct {
	model.Problem
	Fallback      bool   `json:"fallback,omitempty"`
	RequestedDate string `json:"requestedDate,omitempty"`
}

// GetToday returns today's scheduled problem, or a deterministic
// substitute when nothing is scheduled ("Infinite Fallback").
func (s *ProblemService) GetToday(ctx context.Context) (*TodayProblemResponse, error) {
	todayKey := datekey.FromTime(s.now())

	problem, err := s.problemRepo.Get(ctx, todayKey)
	if err == nil {
		return &TodayProblemResponse{Problem: *problem}, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("ProblemService.GetToday: %w", err)
	}

	s.logger.Warn("no problem scheduled, activating infinite fallback", "date", todayKey)

	all, err := s.problemRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ProblemService.GetToday: %w", err)
	}
	fallback, err := SelectFallback(todayKey, all)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fallback selected", "date", todayKey, "title", fallback.Title, "source_date", fallback.DateKey)
	return &TodayProblemResponse{
		Problem:       *fallback,
		Fallback:      true,
		RequestedDate: todayKey,
	}, nil
}

// SelectFallback deterministically picks a problem for a date with no
// scheduled content: SHA-256 of the key, taken as a non-negative integer,
// indexes into the records modulo their count. The caller supplies records
// in the store's enumeration order (date_key ascending), so identical
// inputs select the same record on every replica. No process-local random
// state is involved.
func SelectFallback(todayKey string, records []model.Problem) (*model.Problem, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("store is empty, generate content first: %w", common.ErrNoContentAvailable)
	}
	digest := sha256.Sum256([]byte(todayKey))
	hashInt := new(big.Int).SetBytes(digest[:])
	index := new(big.Int).Mod(hashInt, big.NewInt(int64(len(records)))).Int64()
	return &records[index], nil
}

// GetByDate returns the problem for a specific date. Time-locked: future
// dates are forbidden outright.
func (s *ProblemService) GetByDate(ctx context.Context, dateKey string) (*model.Problem, error) {
	if _, _, _, err := datekey.Parse(dateKey); err != nil {
		return nil, err
	}
	if err := AssertNotFuture(dateKey, datekey.FromTime(s.now())); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.Get(ctx, dateKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no problem found for %s: %w", dateKey, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ProblemService.GetByDate: %w", err)
	}
	return problem, nil
}

type CalendarResponse struct {
	Month string                `json:"month"`
	Count int                   `json:"count"`
	Days  []model.CalendarEntry `json:"days"`
}

// Calendar lists the month's problems as lightweight entries, ascending by
// date. Future dates are omitted, not blocked: the response never reveals
// which unreleased days exist.
func (s *ProblemService) Calendar(ctx context.Context, month string) (*CalendarResponse, error) {
	minKey, maxKey, err := datekey.MonthBounds(month)
	if err != nil {
		return nil, err
	}

	problems, err := s.problemRepo.FindRange(ctx, minKey, maxKey)
	if err != nil {
		return nil, fmt.Errorf("ProblemService.Calendar: %w", err)
	}

	todayKey := datekey.FromTime(s.now())
	entries := []model.CalendarEntry{}
	for i := range problems {
		if AssertNotFuture(problems[i].DateKey, todayKey) != nil {
			continue
		}
		entries = append(entries, model.CalendarEntry{
			Date:       problems[i].DateKey,
			Title:      problems[i].Title,
			Difficulty: problems[i].Difficulty,
		})
	}

	return &CalendarResponse{Month: month, Count: len(entries), Days: entries}, nil
}

type UpdateProblemRequest struct {
	Title       string           `json:"title"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Description string           `json:"description"`
	StarterCode string           `json:"starterCode"`
	Topics      []string         `json:"topics"`
	TestCases   []model.TestCase `json:"testCases"`
}

// UpdateProblem is the admin editor save: full replacement of the mutable
// fields under the same date key.
func (s *ProblemService) UpdateProblem(ctx context.Context, dateKey string, req UpdateProblemRequest) (*model.Problem, error) {
	if _, _, _, err := datekey.Parse(dateKey); err != nil {
		return nil, err
	}
	if req.Title == "" || req.Description == "" {
		return nil, fmt.Errorf("title and description are required: %w", common.ErrBadRequest)
	}
	if !req.Difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	problem, err := s.problemRepo.Get(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	problem.Title = req.Title
	problem.Difficulty = req.Difficulty
	problem.Description = req.Description
	problem.StarterCode = req.StarterCode
	problem.Topics = req.Topics
	problem.TestCases = req.TestCases
	for i := range problem.TestCases {
		problem.TestCases[i].ID = i + 1
	}

	if err := s.problemRepo.Update(ctx, nil, problem); err != nil {
		return nil, fmt.Errorf("ProblemService.UpdateProblem: %w", err)
	}
	return problem, nil
}

// MoveProblem reschedules a problem by recreating it under the new key and
// deleting the old row, in one transaction. An occupied target date fails
// with a conflict before anything is touched.
func (s *ProblemService) MoveProblem(ctx context.Context, fromKey, toKey string) (*model.Problem, error) {
	if _, _, _, err := datekey.Parse(toKey); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.Get(ctx, fromKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("no problem on %s: %w", fromKey, common.ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.problemRepo.Get(ctx, toKey); err == nil {
		return nil, fmt.Errorf("date %s already has a problem: %w", toKey, common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	moved := *problem
	moved.DateKey = toKey
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.Insert(ctx, tx, &moved); err != nil {
			return err
		}
		return s.problemRepo.Delete(ctx, tx, fromKey)
	})
	if err != nil {
		return nil, fmt.Errorf("ProblemService.MoveProblem: %w", err)
	}

	s.logger.Info("problem moved", "from", fromKey, "to", toKey)
	return &moved, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, dateKey string) error {
	if _, _, _, err := datekey.Parse(dateKey); err != nil {
		return err
	}
	return s.problemRepo.Delete(ctx, nil, dateKey)
}
