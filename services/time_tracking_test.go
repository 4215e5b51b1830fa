package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-request-api/models"
)

// Attorney works 10:00-13:00, submitter 13:00-15:00, attorney again 15:00-16:00,
// all on one Monday: 4 reviewer hours and 2 submitter hours.
func TestLegalReviewHandoffScenario(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	monday := func(hour int) time.Time {
		return time.Date(2026, time.March, 2, hour, 0, 0, 0, loc)
	}

	r := baseRequest(cfg)
	r.Status = models.StatusInReview
	r.AssignedAttorneyID = intPtr(7)
	r.LegalReviewStatus = models.ReviewInProgress
	r.LegalStatusUpdatedAt = timePtr(monday(10))

	// Attorney hands off to the submitter at 13:00.
	update, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleSubmitter, monday(13), cfg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleReviewer, update.CreditedRole)
	assert.Equal(t, 3.0, update.Delta)
	ApplyStageHours(r, update)
	r.LegalReviewStatus = models.ReviewWaitingOnSubmitter
	r.LegalStatusUpdatedAt = timePtr(monday(13))

	// Submitter responds at 15:00.
	update, err = AccumulateStageHours(r, models.StageLegalReview, models.RoleReviewer, monday(15), cfg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSubmitter, update.CreditedRole)
	assert.Equal(t, 2.0, update.Delta)
	ApplyStageHours(r, update)
	r.LegalReviewStatus = models.ReviewInProgress
	r.LegalStatusUpdatedAt = timePtr(monday(15))

	// Attorney finalizes at 16:00.
	update, err = AccumulateStageHours(r, models.StageLegalReview, models.RoleReviewer, monday(16), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, update.Delta)
	ApplyStageHours(r, update)

	assert.Equal(t, 4.0, r.LegalReviewReviewerHours)
	assert.Equal(t, 2.0, r.LegalReviewSubmitterHours)
	assert.Equal(t, 4.0, r.TotalReviewerHours)
	assert.Equal(t, 2.0, r.TotalSubmitterHours)
}

func TestAccumulateWithoutHandoffIsRecomputeOnly(t *testing.T) {
	cfg := testCalendar()
	now := time.Date(2026, time.March, 2, 16, 0, 0, 0, cfg.location())

	r := baseRequest(cfg)
	r.Status = models.StatusInReview
	r.LegalReviewStatus = models.ReviewInProgress
	r.LegalReviewReviewerHours = 5
	r.CloseoutSubmitterHours = 1.5

	update, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleSubmitter, now, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, update.Delta)
	assert.Empty(t, update.CreditedRole)
	assert.Equal(t, 5.0, update.StageReviewerHours)
	assert.Equal(t, 5.0, update.TotalReviewerHours)
	assert.Equal(t, 1.5, update.TotalSubmitterHours)
}

func TestAccumulateSkipsUntrackedStageState(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	now := time.Date(2026, time.March, 2, 16, 0, 0, 0, loc)

	r := baseRequest(cfg)
	r.LegalReviewStatus = models.ReviewCompleted
	r.LegalStatusUpdatedAt = timePtr(now.Add(-3 * time.Hour))

	// Completed track has no current owner, so nothing accrues.
	update, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleReviewer, now, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, update.Delta)
	assert.Empty(t, update.CreditedRole)
}

func TestCloseoutHandoffFallbackChain(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	legalDone := time.Date(2026, time.March, 2, 10, 0, 0, 0, loc)
	complianceDone := legalDone.Add(2 * time.Hour)
	closeout := legalDone.Add(4 * time.Hour)

	r := baseRequest(cfg)
	assert.Nil(t, StageLastHandoffAt(r, models.StageCloseout))

	r.LegalReviewCompletedAt = timePtr(legalDone)
	require.NotNil(t, StageLastHandoffAt(r, models.StageCloseout))
	assert.Equal(t, legalDone, *StageLastHandoffAt(r, models.StageCloseout))

	r.ComplianceReviewCompletedAt = timePtr(complianceDone)
	assert.Equal(t, complianceDone, *StageLastHandoffAt(r, models.StageCloseout))

	r.CloseoutAt = timePtr(closeout)
	assert.Equal(t, closeout, *StageLastHandoffAt(r, models.StageCloseout))
}

func TestStageCurrentOwnerMapping(t *testing.T) {
	cfg := testCalendar()

	tests := []struct {
		name      string
		stage     models.WorkflowStage
		mutate    func(*models.LegalRequest)
		wantRole  models.OwnerRole
		wantFound bool
	}{
		{"legal in progress is reviewer", models.StageLegalReview, func(r *models.LegalRequest) {
			r.LegalReviewStatus = models.ReviewInProgress
		}, models.RoleReviewer, true},
		{"legal waiting on attorney is reviewer", models.StageLegalReview, func(r *models.LegalRequest) {
			r.LegalReviewStatus = models.ReviewWaitingOnAttorney
		}, models.RoleReviewer, true},
		{"legal waiting on submitter is submitter", models.StageLegalReview, func(r *models.LegalRequest) {
			r.LegalReviewStatus = models.ReviewWaitingOnSubmitter
		}, models.RoleSubmitter, true},
		{"legal completed is untracked", models.StageLegalReview, func(r *models.LegalRequest) {
			r.LegalReviewStatus = models.ReviewCompleted
		}, "", false},
		{"compliance waiting is reviewer", models.StageComplianceReview, func(r *models.LegalRequest) {
			r.ComplianceReviewStatus = models.ReviewWaitingOnCompliance
		}, models.RoleReviewer, true},
		{"closeout is always reviewer", models.StageCloseout, func(r *models.LegalRequest) {}, models.RoleReviewer, true},
		{"legal intake is untracked", models.StageLegalIntake, func(r *models.LegalRequest) {}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRequest(cfg)
			tt.mutate(r)
			role, found := StageCurrentOwner(r, tt.stage)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestPauseFinalizesActiveStages(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	monday := time.Date(2026, time.March, 2, 9, 0, 0, 0, loc)

	r := baseRequest(cfg)
	r.Status = models.StatusInReview
	r.ReviewAudience = models.AudienceBoth
	r.LegalReviewStatus = models.ReviewInProgress
	r.ComplianceReviewStatus = models.ReviewWaitingOnCompliance
	r.LegalStatusUpdatedAt = timePtr(monday)
	r.ComplianceStatusUpdatedAt = timePtr(monday.Add(time.Hour))

	updates, err := PauseTimeTracking(r, monday.Add(4*time.Hour), cfg)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, models.StageLegalReview, updates[0].Stage)
	assert.Equal(t, 4.0, updates[0].Delta)
	assert.Equal(t, models.StageComplianceReview, updates[1].Stage)
	assert.Equal(t, 3.0, updates[1].Delta)
}

func TestPauseSameDayZeroHoursKeepsRawMinutesFallback(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	evening := time.Date(2026, time.March, 2, 18, 0, 0, 0, loc)

	r := baseRequest(cfg)
	r.Status = models.StatusCloseout
	r.CloseoutAt = timePtr(evening)

	updates, err := PauseTimeTracking(r, evening.Add(90*time.Minute), cfg)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	update := updates[0]
	assert.Equal(t, 0.0, update.Delta)
	assert.Equal(t, 90.0, update.RawMinutesFallback)
	// The cosmetic fallback never reaches the persisted columns.
	for column := range update.Columns() {
		assert.NotContains(t, column, "minutes")
	}
	assert.Equal(t, 0.0, update.StageReviewerHours)
}

// Re-invoking accumulate against a stale snapshot double-counts; callers must
// persist and reread between accruals. Documented behavior, not a bug.
func TestAccumulateOnStaleSnapshotDoubleCounts(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	monday := time.Date(2026, time.March, 2, 10, 0, 0, 0, loc)

	r := baseRequest(cfg)
	r.Status = models.StatusInReview
	r.LegalReviewStatus = models.ReviewInProgress
	r.LegalStatusUpdatedAt = timePtr(monday)

	first, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleSubmitter, monday.Add(2*time.Hour), cfg)
	require.NoError(t, err)
	ApplyStageHours(r, first)

	// Snapshot not updated with a new hand-off timestamp: the same window is
	// credited again.
	second, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleSubmitter, monday.Add(2*time.Hour), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Delta, second.Delta)
	assert.Equal(t, 4.0, second.StageReviewerHours)
}

// Attorney works Mon 09:00-12:00, the request goes on hold over the afternoon
// and resumes Tue 09:00, and the attorney submits Tue 12:00. The stage total
// is 6.0 hours; the held window and the banked window each count once.
func TestHoldResumeCycleDoesNotDoubleCount(t *testing.T) {
	cfg := testCalendar()
	loc := cfg.location()
	monday := time.Date(2026, time.March, 2, 9, 0, 0, 0, loc)
	holdAt := monday.Add(3 * time.Hour)
	resumeAt := monday.Add(24 * time.Hour)
	submitAt := monday.Add(27 * time.Hour)

	r := baseRequest(cfg)
	r.Status = models.StatusInReview
	r.ReviewAudience = models.AudienceLegal
	r.LegalReviewStatus = models.ReviewInProgress
	r.LegalStatusUpdatedAt = timePtr(monday)

	// Hold banks the morning and advances the hand-off stamp past it.
	pauses, err := PauseTimeTracking(r, holdAt, cfg)
	require.NoError(t, err)
	require.Len(t, pauses, 1)
	assert.Equal(t, 3.0, pauses[0].Delta)
	ApplyStageHours(r, pauses[0])
	r.LegalStatusUpdatedAt = timePtr(holdAt)
	r.Status = models.StatusOnHold
	r.PreviousStatus = statusPtr(models.StatusInReview)

	// Resume restamps the hand-off to the resume instant.
	columns := ResumeTimeTracking(r, resumeAt)
	require.Contains(t, columns, "legal_status_updated_at")
	r.LegalStatusUpdatedAt = timePtr(resumeAt)
	r.Status = models.StatusInReview
	r.PreviousStatus = nil

	// The attorney's submission credits only Tue 09:00-12:00.
	update, err := AccumulateStageHours(r, models.StageLegalReview, models.RoleSubmitter, submitAt, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.0, update.Delta)
	ApplyStageHours(r, update)

	assert.Equal(t, 6.0, r.LegalReviewReviewerHours)
	assert.Equal(t, 6.0, r.TotalReviewerHours)
}

func TestResumeRestampsHandoffColumns(t *testing.T) {
	cfg := testCalendar()
	now := time.Date(2026, time.March, 3, 9, 0, 0, 0, cfg.location())

	r := baseRequest(cfg)
	r.Status = models.StatusOnHold
	r.ReviewAudience = models.AudienceBoth
	r.PreviousStatus = statusPtr(models.StatusInReview)

	columns := ResumeTimeTracking(r, now)
	assert.Equal(t, map[string]interface{}{
		"legal_status_updated_at":      now,
		"compliance_status_updated_at": now,
	}, columns)

	r.PreviousStatus = statusPtr(models.StatusCloseout)
	columns = ResumeTimeTracking(r, now)
	assert.Equal(t, map[string]interface{}{"closeout_at": now}, columns)

	r.PreviousStatus = nil
	assert.Empty(t, ResumeTimeTracking(r, now))
}

func TestStageHandoffColumnMapping(t *testing.T) {
	assert.Equal(t, "submitted_at", StageHandoffColumn(models.StageLegalIntake))
	assert.Equal(t, "legal_status_updated_at", StageHandoffColumn(models.StageLegalReview))
	assert.Equal(t, "compliance_status_updated_at", StageHandoffColumn(models.StageComplianceReview))
	assert.Equal(t, "closeout_at", StageHandoffColumn(models.StageCloseout))
	assert.Empty(t, StageHandoffColumn(models.WorkflowStage("unknown")))
}

func TestStageHoursUpdateColumns(t *testing.T) {
	update := StageHoursUpdate{
		Stage:               models.StageComplianceReview,
		StageReviewerHours:  2.5,
		StageSubmitterHours: 1.0,
		TotalReviewerHours:  6.0,
		TotalSubmitterHours: 1.0,
	}

	columns := update.Columns()
	assert.Equal(t, 2.5, columns["compliance_review_reviewer_hours"])
	assert.Equal(t, 1.0, columns["compliance_review_submitter_hours"])
	assert.Equal(t, 6.0, columns["total_reviewer_hours"])
	assert.Equal(t, 1.0, columns["total_submitter_hours"])
}
