package services

import (
	"time"

	"legal-request-api/models"
)

// Status indicator colors rendered by the client.
const (
	ColorGray   = "gray"
	ColorBlue   = "blue"
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

// ProgressInfo is the normalized completion view of a request.
type ProgressInfo struct {
	Progress               float64 `json:"progress"`
	CurrentStep            int     `json:"current_step"`
	TotalSteps             int     `json:"total_steps"`
	UsedAssignAttorneyStep bool    `json:"used_assign_attorney_step"`
	Color                  string  `json:"color"`
}

// Step tables for the two workflow variants. The assign-attorney variant has
// six steps; when that stage was skipped the workflow collapses to five.
var (
	stepsWithAssignAttorney = map[models.RequestStatus]int{
		models.StatusDraft:                     1,
		models.StatusLegalIntake:               2,
		models.StatusAssignAttorney:            3,
		models.StatusInReview:                  4,
		models.StatusCloseout:                  5,
		models.StatusAwaitingForesideDocuments: 6,
		models.StatusCompleted:                 6,
	}
	stepsWithoutAssignAttorney = map[models.RequestStatus]int{
		models.StatusDraft:                     1,
		models.StatusLegalIntake:               2,
		models.StatusInReview:                  3,
		models.StatusCloseout:                  4,
		models.StatusAwaitingForesideDocuments: 5,
		models.StatusCompleted:                 5,
	}
)

// Progress maps the current status onto a 0-100% completion value plus an
// urgency color. Cancelled and OnHold borrow the previous status's step so the
// bar does not snap back to zero. now is injected for reproducibility.
func Progress(r *models.LegalRequest, now time.Time, cfg CalendarConfig) ProgressInfo {
	used := r.SubmittedToAssignAttorneyAt != nil

	table := stepsWithoutAssignAttorney
	total := 5
	if used {
		table = stepsWithAssignAttorney
		total = 6
	}

	status := r.Status
	if status == models.StatusCancelled || status == models.StatusOnHold {
		if r.PreviousStatus != nil {
			status = *r.PreviousStatus
		} else {
			status = models.StatusDraft
		}
	}

	step, ok := table[status]
	if !ok {
		step = 1
	}

	progress := float64(step-1) / float64(total-1) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return ProgressInfo{
		Progress:               progress,
		CurrentStep:            step,
		TotalSteps:             total,
		UsedAssignAttorneyStep: used,
		Color:                  progressColor(r, now, cfg),
	}
}

// progressColor is independent of the step count: terminal and side states get
// fixed colors, everything else is judged against the target return date.
func progressColor(r *models.LegalRequest, now time.Time, cfg CalendarConfig) string {
	switch r.Status {
	case models.StatusCancelled:
		return ColorGray
	case models.StatusOnHold:
		return ColorBlue
	case models.StatusCompleted, models.StatusAwaitingForesideDocuments:
		return ColorGreen
	}

	if r.TargetReturnDate == nil {
		return ColorGray
	}

	loc := cfg.location()
	remaining := calendarDaysBetween(now.In(loc), r.TargetReturnDate.In(loc))

	switch {
	case remaining < 0:
		return ColorRed
	case remaining <= 1:
		return ColorYellow
	default:
		return ColorGreen
	}
}
