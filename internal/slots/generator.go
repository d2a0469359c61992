package slots

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/platform/internal/salons"
)

// GenerateRequest describes a bulk slot-generation run for one salon.
type GenerateRequest struct {
	SalonID   string
	Hours     salons.WeeklyHours
	StartDate time.Time // inclusive calendar day
	EndDate   time.Time // inclusive calendar day
	Duration  time.Duration
	Capacity  int
}

// Validate rejects requests that cannot produce a well-formed run.
func (r *GenerateRequest) Validate() error {
	if r.SalonID == "" {
		return fmt.Errorf("slots: salon id required")
	}
	if r.Duration < time.Minute || r.Duration%time.Minute != 0 {
		return fmt.Errorf("slots: duration must be a positive whole number of minutes")
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("slots: capacity must be positive")
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("slots: end date before start date")
	}
	return nil
}

// Generate derives the maximal set of non-overlapping slots of the requested
// duration fitting each open day's window over [StartDate, EndDate]. Closed
// and malformed days are skipped and no partial trailing slot is emitted.
// Times are stepped as minutes since midnight. Generate never touches the
// store; persistence and duplicate policy live in the repository.
func Generate(req GenerateRequest) ([]*Slot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	step := int(req.Duration / time.Minute)
	var out []*Slot
	for day := truncateToDay(req.StartDate); !day.After(truncateToDay(req.EndDate)); day = day.AddDate(0, 0, 1) {
		openMin, closeMin, ok := req.Hours.Window(day.Weekday())
		if !ok {
			continue
		}
		for start := openMin; start+step <= closeMin; start += step {
			out = append(out, &Slot{
				ID:        uuid.NewString(),
				SalonID:   req.SalonID,
				Date:      day,
				StartTime: ClockTime(start),
				EndTime:   ClockTime(start + step),
				Capacity:  req.Capacity,
			})
		}
	}
	return out, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
