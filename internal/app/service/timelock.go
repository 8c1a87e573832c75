package service

import (
	"fmt"

	"codele_backend/internal/common"
	"codele_backend/internal/domain/datekey"
)

// AssertNotFuture enforces the time lock: content dated after todayKey is
// off limits until its release day. Listings omit future rows silently;
// single-date lookups surface the error.
func AssertNotFuture(dateKey, todayKey string) error {
	if datekey.Compare(dateKey, todayKey) > 0 {
		return fmt.Errorf("date %s is after %s: %w", dateKey, todayKey, common.ErrFutureContent)
	}
	return nil
}
