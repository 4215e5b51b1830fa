package services

import (
	"fmt"
	"log"
	"time"

	"legal-request-api/models"
)

// StageHoursUpdate is the proposed partial update produced by the time tracking
// accumulator. It carries the new values for one stage's two counters plus the
// recomputed grand totals; persisting it is the caller's responsibility.
//
// Two callers computing updates from the same stale snapshot will double-count
// the delta, so writes must be serialized per request id (the request store
// locks the row before rereading).
type StageHoursUpdate struct {
	Stage        models.WorkflowStage `json:"stage"`
	CreditedRole models.OwnerRole     `json:"credited_role,omitempty"`
	Delta        float64              `json:"delta"`

	StageReviewerHours  float64 `json:"stage_reviewer_hours"`
	StageSubmitterHours float64 `json:"stage_submitter_hours"`
	TotalReviewerHours  float64 `json:"total_reviewer_hours"`
	TotalSubmitterHours float64 `json:"total_submitter_hours"`

	// RawMinutesFallback is a cosmetic substitute shown when a same-day pause
	// accrues zero business hours. It is display-only and never persisted into
	// the counters.
	RawMinutesFallback float64 `json:"raw_minutes_fallback,omitempty"`
}

// Columns returns the update as gorm column assignments.
func (u StageHoursUpdate) Columns() map[string]interface{} {
	return map[string]interface{}{
		fmt.Sprintf("%s_reviewer_hours", u.Stage):  u.StageReviewerHours,
		fmt.Sprintf("%s_submitter_hours", u.Stage): u.StageSubmitterHours,
		"total_reviewer_hours":                     u.TotalReviewerHours,
		"total_submitter_hours":                    u.TotalSubmitterHours,
	}
}

// StageCurrentOwner maps a stage's status fields onto the role whose hours are
// accruing. The second return value is false when the stage is not being time
// tracked in its current state.
func StageCurrentOwner(r *models.LegalRequest, stage models.WorkflowStage) (models.OwnerRole, bool) {
	switch stage {
	case models.StageLegalReview:
		switch r.LegalReviewStatus {
		case models.ReviewInProgress, models.ReviewWaitingOnAttorney:
			return models.RoleReviewer, true
		case models.ReviewWaitingOnSubmitter:
			return models.RoleSubmitter, true
		}
	case models.StageComplianceReview:
		switch r.ComplianceReviewStatus {
		case models.ReviewInProgress, models.ReviewWaitingOnCompliance:
			return models.RoleReviewer, true
		case models.ReviewWaitingOnSubmitter:
			return models.RoleSubmitter, true
		}
	case models.StageCloseout:
		return models.RoleReviewer, true
	}
	// Legal intake is not time tracked by status; the intake form keeps its own
	// note history.
	return "", false
}

// StageLastHandoffAt returns the durable timestamp of the last hand-off for a
// stage, or nil when no hand-off has happened yet.
func StageLastHandoffAt(r *models.LegalRequest, stage models.WorkflowStage) *time.Time {
	switch stage {
	case models.StageLegalIntake:
		return r.SubmittedAt
	case models.StageLegalReview:
		return r.LegalStatusUpdatedAt
	case models.StageComplianceReview:
		return r.ComplianceStatusUpdatedAt
	case models.StageCloseout:
		if r.CloseoutAt != nil {
			return r.CloseoutAt
		}
		if r.ComplianceReviewCompletedAt != nil {
			return r.ComplianceReviewCompletedAt
		}
		return r.LegalReviewCompletedAt
	}
	return nil
}

// AccumulateStageHours computes the incremental business hours to credit when a
// stage changes hands. Credit goes to the role that was the current owner at
// hand-off time, not to the incoming party. With no durable hand-off timestamp
// the call contributes zero new hours but still recomputes the grand totals.
func AccumulateStageHours(r *models.LegalRequest, stage models.WorkflowStage, incoming models.OwnerRole, now time.Time, cfg CalendarConfig) (StageHoursUpdate, error) {
	update := StageHoursUpdate{
		Stage:               stage,
		StageReviewerHours:  r.StageReviewerHours(stage),
		StageSubmitterHours: r.StageSubmitterHours(stage),
	}

	handoff := StageLastHandoffAt(r, stage)
	owner, tracked := StageCurrentOwner(r, stage)

	if handoff != nil && tracked {
		delta, err := BusinessHours(*handoff, now, cfg)
		if err != nil {
			return update, err
		}
		update.Delta = delta
		update.CreditedRole = owner
		if owner == models.RoleSubmitter {
			update.StageSubmitterHours += delta
		} else {
			update.StageReviewerHours += delta
		}
		if incoming != "" && incoming != owner {
			log.Printf("time tracking: %s handed from %s to %s, credited %.1fh to %s",
				stage, owner, incoming, delta, owner)
		}
	}

	update.TotalReviewerHours, update.TotalSubmitterHours = recomputeTotals(r, update)
	return update, nil
}

// recomputeTotals sums the four stage counters per role, substituting the stage
// values carried by the pending update. Recomputation, not accumulation, keeps
// the grand totals authoritative.
func recomputeTotals(r *models.LegalRequest, update StageHoursUpdate) (float64, float64) {
	stages := []models.WorkflowStage{
		models.StageLegalIntake,
		models.StageLegalReview,
		models.StageComplianceReview,
		models.StageCloseout,
	}

	reviewer := 0.0
	submitter := 0.0
	for _, stage := range stages {
		if stage == update.Stage {
			reviewer += update.StageReviewerHours
			submitter += update.StageSubmitterHours
			continue
		}
		reviewer += r.StageReviewerHours(stage)
		submitter += r.StageSubmitterHours(stage)
	}
	return roundHours(reviewer), roundHours(submitter)
}

// activeStages returns the stages accruing time for the request's status.
func activeStages(r *models.LegalRequest) []models.WorkflowStage {
	switch r.Status {
	case models.StatusInReview:
		var stages []models.WorkflowStage
		if r.ReviewAudience.IncludesLegal() {
			stages = append(stages, models.StageLegalReview)
		}
		if r.ReviewAudience.IncludesCompliance() {
			stages = append(stages, models.StageComplianceReview)
		}
		return stages
	case models.StatusCloseout:
		return []models.WorkflowStage{models.StageCloseout}
	}
	return nil
}

// ApplyStageHours writes a proposed update back onto a snapshot copy. Used
// when several stage finalizations stack in one operation so each recomputed
// total sees the earlier deltas.
func ApplyStageHours(r *models.LegalRequest, update StageHoursUpdate) {
	switch update.Stage {
	case models.StageLegalIntake:
		r.LegalIntakeReviewerHours = update.StageReviewerHours
		r.LegalIntakeSubmitterHours = update.StageSubmitterHours
	case models.StageLegalReview:
		r.LegalReviewReviewerHours = update.StageReviewerHours
		r.LegalReviewSubmitterHours = update.StageSubmitterHours
	case models.StageComplianceReview:
		r.ComplianceReviewReviewerHours = update.StageReviewerHours
		r.ComplianceReviewSubmitterHours = update.StageSubmitterHours
	case models.StageCloseout:
		r.CloseoutReviewerHours = update.StageReviewerHours
		r.CloseoutSubmitterHours = update.StageSubmitterHours
	}
	r.TotalReviewerHours = update.TotalReviewerHours
	r.TotalSubmitterHours = update.TotalSubmitterHours
}

// StageHandoffColumn returns the column holding a stage's durable hand-off
// timestamp. Callers persisting an accrual must also advance this column to
// the accrual instant, or the next accrual re-credits the same window.
func StageHandoffColumn(stage models.WorkflowStage) string {
	switch stage {
	case models.StageLegalIntake:
		return "submitted_at"
	case models.StageLegalReview:
		return "legal_status_updated_at"
	case models.StageComplianceReview:
		return "compliance_status_updated_at"
	case models.StageCloseout:
		return "closeout_at"
	}
	return ""
}

// PauseTimeTracking finalizes whichever stages are active at the moment a
// request is put on hold. Same accrual logic as a stage hand-off, triggered by
// the pause event instead.
func PauseTimeTracking(r *models.LegalRequest, now time.Time, cfg CalendarConfig) ([]StageHoursUpdate, error) {
	work := *r
	var updates []StageHoursUpdate
	for _, stage := range activeStages(r) {
		update, err := AccumulateStageHours(&work, stage, "", now, cfg)
		if err != nil {
			return nil, err
		}
		ApplyStageHours(&work, update)

		if handoff := StageLastHandoffAt(r, stage); handoff != nil && update.CreditedRole != "" && update.Delta == 0 {
			loc := cfg.location()
			if midnight(handoff.In(loc)).Equal(midnight(now.In(loc))) {
				// Same-day pause outside the working window rounds to zero
				// business hours; surface raw elapsed minutes for the UI but
				// keep the counters untouched by it.
				update.RawMinutesFallback = now.Sub(*handoff).Minutes()
				log.Printf("time tracking: %s pause accrued 0 business hours, showing %.0f raw minutes",
					stage, update.RawMinutesFallback)
			}
		}

		updates = append(updates, update)
	}
	return updates, nil
}

// ResumeTimeTracking restamps the hand-off timestamps of the stages that
// become active again, so the window spent on hold is never credited to
// anyone. Returns the column assignments to persist with the resume.
func ResumeTimeTracking(r *models.LegalRequest, now time.Time) map[string]interface{} {
	columns := map[string]interface{}{}
	if r.PreviousStatus == nil {
		return columns
	}

	work := *r
	work.Status = *r.PreviousStatus
	for _, stage := range activeStages(&work) {
		if column := StageHandoffColumn(stage); column != "" {
			columns[column] = now
		}
	}
	return columns
}
