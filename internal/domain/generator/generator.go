// Package generator defines the boundary with the external LLM agent.
// The core depends only on these interfaces; the concrete HTTP adapter
// lives in internal/platform/agent and a deterministic stub backs the
// tests. Both calls are non-deterministic, may be slow and may fail.
package generator

import "context"

// ProblemDraft is the validated shape of one generated problem before the
// orchestrator assigns it a date and difficulty. Difficulty is advisory,
// the difficulty cycle overrides it.
type ProblemDraft struct {
	Title       string          `json:"title"`
	Difficulty  string          `json:"difficulty,omitempty"`
	Description string          `json:"description"`
	StarterCode string          `json:"starter_code"`
	Topics      []string        `json:"topics"`
	TestCases   []TestCaseDraft `json:"test_cases"`
}

type TestCaseDraft struct {
	Type     string `json:"type"`
	Hint     string `json:"hint"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// ThemePicker chooses a fresh theme. recentThemes is an exclusion hint
// only; the agent is not guaranteed to honor it.
type ThemePicker interface {
	PickTheme(ctx context.Context, recentThemes []string) (string, error)
}

// BatchGenerator produces count problem drafts for a theme. existingTitles
// is advisory deduplication context.
type BatchGenerator interface {
	GenerateProblems(ctx context.Context, theme string, count int, existingTitles []string) ([]ProblemDraft, error)
}
