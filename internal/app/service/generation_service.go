package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/datekey"
	"codele_backend/internal/domain/generator"
	"codele_backend/internal/domain/model"
	"codele_backend/internal/domain/repository"
)

// GenerationService orchestrates one content batch end to end: slot
// resolution, theme resolution, external generation, date/difficulty
// assignment and persistence.
type GenerationService struct {
	problemRepo      repository.ProblemRepository
	themeService     *ThemeService
	scheduleService  *ScheduleService
	themePicker      generator.ThemePicker
	batchGenerator   generator.BatchGenerator
	tx               repository.Transactor
	logger           *slog.Logger
	generatorTimeout time.Duration
	recentLimit      int
	defaultCount     int
}

func NewGenerationService(
	problemRepo repository.ProblemRepository,
	themeService *ThemeService,
	scheduleService *ScheduleService,
	themePicker generator.ThemePicker,
	batchGenerator generator.BatchGenerator,
	tx repository.Transactor,
	logger *slog.Logger,
	generatorTimeout time.Duration,
	recentLimit int,
	defaultCount int,
) *GenerationService {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if defaultCount <= 0 {
		defaultCount = 7
	}
	return &GenerationService{
		problemRepo:      problemRepo,
		themeService:     themeService,
		scheduleService:  scheduleService,
		themePicker:      themePicker,
		batchGenerator:   batchGenerator,
		tx:               tx,
		logger:           logger,
		generatorTimeout: generatorTimeout,
		recentLimit:      recentLimit,
		defaultCount:     defaultCount,
	}
}

// GeneratePlan executes the batches strictly in order, one at a time.
// Sequencing is a correctness requirement, not an optimization: each
// batch's theme pick must see the themes committed by the batches before
// it, or one submission could choose the same theme twice. A failed batch
// becomes an error entry in the results; later batches still run.
func (s *GenerationService) GeneratePlan(ctx context.Context, batches []model.BatchSpec) (*model.PlanResult, error) {
	if len(batches) == 0 {
		return nil, fmt.Errorf("no batches provided: %w", common.ErrBadRequest)
	}

	plan := &model.PlanResult{Results: make([]model.BatchResult, 0, len(batches))}
	for i, spec := range batches {
		result, err := s.GenerateBatch(ctx, spec)
		result.Batch = i + 1
		if err != nil {
			s.logger.Error("batch failed", "batch", i+1, "step", result.FailedStep, "error", err)
		} else {
			s.logger.Info("batch generated", "batch", i+1, "theme", result.Theme,
				"start", result.StartDate, "end", result.EndDate, "count", result.ProblemsCreated)
			plan.TotalCreated += result.ProblemsCreated
		}
		plan.Results = append(plan.Results, *result)
	}
	return plan, nil
}

// GenerateBatch runs a single batch through its lifecycle. The returned
// result always carries the terminal state; on failure it also names the
// step that failed, and the error is returned for callers that want to
// abort rather than accumulate.
func (s *GenerationService) GenerateBatch(ctx context.Context, spec model.BatchSpec) (*model.BatchResult, error) {
	result := &model.BatchResult{}
	state := model.BatchStatePending

	fail := func(err error) (*model.BatchResult, error) {
		result.Error = err.Error()
		result.FailedStep = state
		return result, err
	}

	count := spec.Count
	if count == 0 {
		count = s.defaultCount
	}
	if count < 0 {
		return fail(fmt.Errorf("count must be positive, got %d: %w", count, common.ErrBadRequest))
	}

	// 1. Resolve the start slot.
	state = model.BatchStateResolvingSlot
	startDate := spec.StartDate
	if startDate == "" {
		var err error
		startDate, err = s.scheduleService.NextOpenDate(ctx)
		if err != nil {
			return fail(err)
		}
	} else if _, _, _, err := datekey.Parse(startDate); err != nil {
		return fail(err)
	}
	endDate, err := datekey.AddDays(startDate, count-1)
	if err != nil {
		return fail(err)
	}
	result.StartDate = startDate
	result.EndDate = endDate

	// 2. Resolve the theme.
	state = model.BatchStateResolvingTheme
	theme := spec.Theme
	if theme == "" {
		recent, err := s.themeService.RecentThemeNames(ctx, s.recentLimit)
		if err != nil {
			return fail(err)
		}
		pickCtx, cancel := context.WithTimeout(ctx, s.generatorTimeout)
		theme, err = s.themePicker.PickTheme(pickCtx, recent)
		cancel()
		if err != nil {
			return fail(err)
		}
	}
	result.Theme = theme

	// 3-4. Generate drafts with existing titles as deduplication context.
	state = model.BatchStateGenerating
	titles, err := s.problemRepo.ListTitles(ctx)
	if err != nil {
		return fail(err)
	}
	genCtx, cancel := context.WithTimeout(ctx, s.generatorTimeout)
	drafts, err := s.batchGenerator.GenerateProblems(genCtx, theme, count, titles)
	cancel()
	if err != nil {
		return fail(err)
	}
	if len(drafts) != count {
		return fail(fmt.Errorf("generator returned %d drafts, expected %d: %w", len(drafts), count, common.ErrGeneratorFailure))
	}

	// 5. Assign dates and difficulties.
	problems, err := buildProblems(drafts, startDate, count)
	if err != nil {
		return fail(err)
	}

	// 6. Persist the problems and the theme record as one unit. The
	// transaction closes the partial-write gap: either the whole batch
	// lands or none of it does, and a colliding date_key (concurrent
	// plans targeting the same slots) aborts instead of overwriting.
	state = model.BatchStatePersisting
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.InsertMany(ctx, tx, problems); err != nil {
			return err
		}
		_, err := s.themeService.RecordBatch(ctx, tx, theme, startDate, endDate, count)
		return err
	})
	if err != nil {
		return fail(err)
	}

	result.ProblemsCreated = count
	return result, nil
}

// buildProblems turns validated drafts into scheduled problems: date keys
// walk forward one day at a time from the start, difficulties follow the
// fixed cycle by position (the draft's own difficulty is advisory only).
func buildProblems(drafts []generator.ProblemDraft, startDate string, count int) ([]model.Problem, error) {
	difficulties := DifficultySequence(count)
	problems := make([]model.Problem, 0, count)

	currentDate := startDate
	for i, draft := range drafts {
		testCases := make([]model.TestCase, 0, len(draft.TestCases))
		for j, tc := range draft.TestCases {
			testCases = append(testCases, model.TestCase{
				ID:       j + 1,
				Type:     model.TestCaseType(tc.Type),
				Hint:     tc.Hint,
				Input:    tc.Input,
				Expected: tc.Expected,
			})
		}

		problems = append(problems, model.Problem{
			DateKey:     currentDate,
			Title:       draft.Title,
			Difficulty:  difficulties[i],
			Description: draft.Description,
			StarterCode: draft.StarterCode,
			TestCases:   testCases,
			Topics:      draft.Topics,
		})

		next, err := datekey.AddDays(currentDate, 1)
		if err != nil {
			return nil, err
		}
		currentDate = next
	}
	return problems, nil
}
