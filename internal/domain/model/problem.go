package model

import (
	"time"
)

type Difficulty string
type TestCaseType string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"

	TestCaseBasic       TestCaseType = "basic"
	TestCaseEdge        TestCaseType = "edge"
	TestCaseLogic       TestCaseType = "logic"
	TestCaseConciseness TestCaseType = "conciseness"
)

// DifficultyCycle is the repeating pattern applied to every generated
// batch, indexed position mod 7.
var DifficultyCycle = [7]Difficulty{
	DifficultyEasy,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyMedium,
	DifficultyHard,
	DifficultyHard,
	DifficultyMedium,
}

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Problem is one day's puzzle. The date key (YYYY-MM-DD) is both the
// primary key and the natural temporal order; at most one problem exists
// per key. JSON casing matches the web frontend (camelCase).
type Problem struct {
	DateKey     string     `json:"id"`
	Title       string     `json:"title"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	StarterCode string     `json:"starterCode"`
	TestCases   []TestCase `json:"testCases"`
	Topics      []string   `json:"topics"`
	Embedding   []float64  `json:"-"` // internal, never served
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// TestCase belongs to exactly one Problem. For conciseness checks the
// Expected field holds the maximum allowed line count.
type TestCase struct {
	ID       int          `json:"id"` // 1..N within the problem
	Type     TestCaseType `json:"type"`
	Hint     string       `json:"hint"`
	Input    string       `json:"input"`
	Expected string       `json:"expected"`
}

// CalendarEntry is the lightweight month-view shape: no descriptions, no
// code, safe to expose publicly.
type CalendarEntry struct {
	Date       string     `json:"date"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
}
