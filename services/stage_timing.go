package services

import (
	"math"
	"time"

	"legal-request-api/models"
)

// StageTimingInfo is the derived timing view of a request's current stage.
type StageTimingInfo struct {
	StageStartedAt time.Time `json:"stage_started_at"`
	DaysInStage    int       `json:"days_in_stage"`
	DaysRemaining  *int      `json:"days_remaining,omitempty"`
	IsOverdue      bool      `json:"is_overdue"`
	IsRush         bool      `json:"is_rush"`
}

// StageStartedAt selects the timestamp marking entry into the current stage.
// The mapping is a fixed table keyed by status; missing timestamps fall back to
// the creation time so the result is always usable for display.
func StageStartedAt(r *models.LegalRequest) time.Time {
	switch r.Status {
	case models.StatusDraft:
		return r.CreateAt
	case models.StatusLegalIntake:
		return orCreateAt(r, r.SubmittedAt)
	case models.StatusAssignAttorney:
		return orCreateAt(r, r.SubmittedToAssignAttorneyAt)
	case models.StatusInReview:
		if r.SubmittedForReviewAt != nil {
			return *r.SubmittedForReviewAt
		}
		return orCreateAt(r, r.LegalReviewAssignedAt)
	case models.StatusCloseout:
		return orCreateAt(r, laterOf(r.LegalReviewCompletedAt, r.ComplianceReviewCompletedAt))
	case models.StatusCompleted, models.StatusAwaitingForesideDocuments:
		return orCreateAt(r, r.CloseoutAt)
	case models.StatusCancelled:
		return orCreateAt(r, r.CancelledAt)
	case models.StatusOnHold:
		return orCreateAt(r, r.OnHoldAt)
	}
	return r.CreateAt
}

// StageTiming resolves how long the request has sat in its current stage and
// how it stands against the target return date. Pure: identical snapshot and
// now always produce identical output.
func StageTiming(r *models.LegalRequest, now time.Time, cfg CalendarConfig) StageTimingInfo {
	info := StageTimingInfo{
		StageStartedAt: StageStartedAt(r),
		IsRush:         r.IsRush,
	}

	if days, err := BusinessDaysBetween(info.StageStartedAt, now, cfg); err == nil {
		info.DaysInStage = days
	} else {
		// A range past the iteration cap still displays as the cap rather than
		// hiding the row.
		info.DaysInStage = maxCalendarDays
	}

	if r.TargetReturnDate != nil {
		loc := cfg.location()
		remaining := calendarDaysBetween(now.In(loc), r.TargetReturnDate.In(loc))
		info.DaysRemaining = &remaining
		info.IsOverdue = remaining < 0
	}

	return info
}

// calendarDaysBetween returns the signed number of calendar days from one
// date to another. Anchoring both dates at UTC noon keeps the count exact
// across DST transitions, where dividing elapsed hours by 24 drifts.
func calendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 12, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func orCreateAt(r *models.LegalRequest, t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return r.CreateAt
}

func laterOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}
