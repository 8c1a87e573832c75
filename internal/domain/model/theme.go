package model

import (
	"time"
)

// ThemeRange describes one generated batch: a free-text theme applied to an
// inclusive [StartDate, EndDate] span of date keys. The covered problems are
// derived by range containment, not stored as foreign keys. Theme names are
// not unique; ranges are intended to be non-overlapping but overlaps are not
// rejected on insert (lookup is first-match, newest batch first).
type ThemeRange struct {
	ID          string    `json:"id"`
	Theme       string    `json:"theme"`
	Slug        string    `json:"slug"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Contains reports whether the date key falls inside the range, boundaries
// included. Plain string comparison is valid for date keys.
func (t *ThemeRange) Contains(dateKey string) bool {
	return t.StartDate != "" && t.EndDate != "" &&
		t.StartDate <= dateKey && dateKey <= t.EndDate
}
