// Package analytics computes date-bucketed comment aggregations.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"
)

var (
	// ErrInvalidRange is returned when date_from is after date_to or a
	// date fails to parse.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrRangeTooLarge is returned instead of silently truncating a
	// range longer than the configured cap.
	ErrRangeTooLarge = errors.New("date range too large")
)

// DefaultMaxRangeDays caps a daily breakdown at a year plus leap day.
const DefaultMaxRangeDays = 366

// DateFormat is the wire format for breakdown dates.
const DateFormat = "2006-01-02"

// Service answers daily breakdown queries against the record store.
type Service struct {
	store database.Store

	// MaxRangeDays bounds the number of days a single query may span.
	// Zero means DefaultMaxRangeDays.
	MaxRangeDays int
}

// NewService creates an analytics service with the default range cap.
func NewService(store database.Store) *Service {
	return &Service{store: store, MaxRangeDays: DefaultMaxRangeDays}
}

// ParseDay parses a YYYY-MM-DD date in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", ErrInvalidRange, s)
	}
	return t.UTC(), nil
}

// DailyBreakdown returns one entry per calendar day in the inclusive UTC
// range [from, to], in ascending date order, counting comments created on
// that day. Days without comments are present with zero counts.
func (s *Service) DailyBreakdown(ctx context.Context, from, to time.Time) ([]models.DayBreakdown, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)

	if from.After(to) {
		return nil, fmt.Errorf("%w: date_from is after date_to", ErrInvalidRange)
	}

	days := int(to.Sub(from).Hours()/24) + 1
	maxDays := s.MaxRangeDays
	if maxDays == 0 {
		maxDays = DefaultMaxRangeDays
	}
	if days > maxDays {
		return nil, fmt.Errorf("%w: %d days requested, maximum is %d", ErrRangeTooLarge, days, maxDays)
	}

	counts, err := s.store.CountCommentsByDay(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily breakdown: %w", err)
	}

	byDay := make(map[string]database.DayCount, len(counts))
	for _, dc := range counts {
		byDay[dc.Day] = dc
	}

	breakdown := make([]models.DayBreakdown, 0, days)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateFormat)
		dc := byDay[key]
		breakdown = append(breakdown, models.DayBreakdown{
			Date:    key,
			Total:   dc.Total,
			Blocked: dc.Blocked,
		})
	}
	return breakdown, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
