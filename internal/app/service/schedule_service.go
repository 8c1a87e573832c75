package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/datekey"
	"codele_backend/internal/domain/model"
	"codele_backend/internal/domain/repository"
)

// ScheduleService decides where the next batch lands on the calendar.
type ScheduleService struct {
	problemRepo repository.ProblemRepository
	now         func() time.Time
}

func NewScheduleService(problemRepo repository.ProblemRepository, now func() time.Time) *ScheduleService {
	return &ScheduleService{problemRepo: problemRepo, now: now}
}

// NextOpenDate returns the day after the latest scheduled problem, or
// today's UTC date when the store is empty. Appending after the last
// scheduled date keeps scheduling gap-free no matter how late generation
// is triggered.
func (s *ScheduleService) NextOpenDate(ctx context.Context) (string, error) {
	latest, err := s.problemRepo.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return datekey.FromTime(s.now()), nil
		}
		return "", fmt.Errorf("ScheduleService.NextOpenDate: %w", err)
	}
	next, err := datekey.AddDays(latest.DateKey, 1)
	if err != nil {
		return "", fmt.Errorf("ScheduleService.NextOpenDate: stored key %q: %w", latest.DateKey, err)
	}
	return next, nil
}

// BufferDepth reports how many days of content are scheduled beyond today.
func (s *ScheduleService) BufferDepth(ctx context.Context) (int, error) {
	return s.problemRepo.CountAfter(ctx, datekey.FromTime(s.now()))
}

// DifficultySequence builds the difficulty list for a batch of the given
// size by cycling the fixed 7-day pattern. Pure: same count, same sequence.
func DifficultySequence(count int) []model.Difficulty {
	seq := make([]model.Difficulty, count)
	for i := 0; i < count; i++ {
		seq[i] = model.DifficultyCycle[i%len(model.DifficultyCycle)]
	}
	return seq
}
