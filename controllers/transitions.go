package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"legal-request-api/config"
	"legal-request-api/models"
	"legal-request-api/services"
	"legal-request-api/utils"
)

// The transition handlers share one shape: bind the payload, then run the
// matching rule inside the store's row-locked decide callback so validation
// always sees a fresh snapshot, then notify the request parties. Only the
// decide callback differs per transition.

// SubmitRequest moves a draft into legal intake.
func SubmitRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateSubmit(r, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{
			"submitted_at":             now,
			"legal_review_status":      trackInitialStatus(r.ReviewAudience.IncludesLegal()),
			"compliance_review_status": trackInitialStatus(r.ReviewAudience.IncludesCompliance()),
		}
		return services.TransitionUpdate{NewStatus: models.StatusLegalIntake, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Request submitted", fmt.Sprintf("%q entered legal intake.", updated.Title))
	respondTransition(c, updated)
}

// SendToAttorneyAssignment routes an intake request to the attorney assigners.
func SendToAttorneyAssignment(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateSendToAttorneyAssignment(r, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{"submitted_to_assign_attorney_at": now}
		return services.TransitionUpdate{NewStatus: models.StatusAssignAttorney, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Awaiting attorney assignment", fmt.Sprintf("%q is waiting for an attorney.", updated.Title))
	respondTransition(c, updated)
}

// AssignAttorney moves an intake request straight into review, skipping the
// assignment queue. Legal admins use this when they pick the attorney
// themselves.
func AssignAttorney(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	var payload services.AssignAttorneyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		if !caps.IsLegalAdmin && !caps.IsAdmin {
			return services.TransitionUpdate{}, &services.PreconditionError{Op: "assign_attorney", Status: r.Status, Reason: "requires legal admin"}
		}
		result, err := services.ValidateAssignAttorney(r, payload)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}
		return services.TransitionUpdate{
			NewStatus: models.StatusInReview,
			Columns:   reviewStartColumns(r, payload.AttorneyID, now),
		}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Review started", fmt.Sprintf("%q is now in review.", updated.Title))
	respondTransition(c, updated)
}

// CompleteAttorneyAssignment resolves the assignment queue entry and starts
// the review.
func CompleteAttorneyAssignment(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	var payload services.AssignAttorneyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateCompleteAttorneyAssignment(r, payload, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}
		return services.TransitionUpdate{
			NewStatus: models.StatusInReview,
			Columns:   reviewStartColumns(r, payload.AttorneyID, now),
		}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Attorney assigned", fmt.Sprintf("%q is now in review.", updated.Title))
	respondTransition(c, updated)
}

// SubmitLegalReview records the legal track outcome, credits review hours to
// the outgoing owner, and advances to closeout when both tracks are done.
func SubmitLegalReview(c *gin.Context) {
	submitReview(c, "legal")
}

// SubmitComplianceReview records the compliance track outcome.
func SubmitComplianceReview(c *gin.Context) {
	submitReview(c, "compliance")
}

func submitReview(c *gin.Context, track string) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()
	cfg := services.CalendarFromEnv()

	var payload services.ReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload.ReviewerID = userID

	note := payload.Notes
	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)

		var result services.ValidationResult
		var err error
		stage := models.StageLegalReview
		if track == "compliance" {
			stage = models.StageComplianceReview
			result, err = services.ValidateSubmitComplianceReview(r, payload, caps)
		} else {
			result, err = services.ValidateSubmitLegalReview(r, payload, caps)
		}
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		newTrackStatus := models.ReviewCompleted
		incoming := models.RoleReviewer
		if payload.Outcome == models.OutcomeRespondToCommentsAndResubmit {
			newTrackStatus = models.ReviewWaitingOnSubmitter
			incoming = models.RoleSubmitter
		}

		hours, err := services.AccumulateStageHours(r, stage, incoming, now, cfg)
		if err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := hours.Columns()
		work := *r
		if track == "compliance" {
			columns["compliance_review_status"] = newTrackStatus
			columns["compliance_status_updated_at"] = now
			work.ComplianceReviewStatus = newTrackStatus
			if newTrackStatus == models.ReviewCompleted {
				columns["compliance_review_completed_at"] = now
				work.ComplianceReviewCompletedAt = &now
			}
		} else {
			columns["legal_review_status"] = newTrackStatus
			columns["legal_status_updated_at"] = now
			work.LegalReviewStatus = newTrackStatus
			if newTrackStatus == models.ReviewCompleted {
				columns["legal_review_completed_at"] = now
				work.LegalReviewCompletedAt = &now
			}
		}

		update := services.TransitionUpdate{Columns: columns, Note: &note}
		if services.ReviewTracksComplete(&work) {
			update.NewStatus = models.StatusCloseout
			columns["closeout_at"] = now
		}
		return update, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	title := "Legal review submitted"
	if track == "compliance" {
		title = "Compliance review submitted"
	}
	services.NotifyRequestParties(config.DB, updated, userID, "info",
		title, fmt.Sprintf("%q: %s review recorded outcome %s.", updated.Title, track, payload.Outcome))
	respondTransition(c, updated)
}

// RespondToComments records the submitter's resubmission: every review track
// waiting on the submitter credits the submitter's hours and hands back to
// the reviewer side.
func RespondToComments(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()
	cfg := services.CalendarFromEnv()

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateRespondToComments(r, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{}
		work := *r
		if r.LegalReviewStatus == models.ReviewWaitingOnSubmitter {
			hours, err := services.AccumulateStageHours(&work, models.StageLegalReview, models.RoleReviewer, now, cfg)
			if err != nil {
				return services.TransitionUpdate{}, err
			}
			services.ApplyStageHours(&work, hours)
			for column, value := range hours.Columns() {
				columns[column] = value
			}
			columns["legal_review_status"] = models.ReviewInProgress
			columns["legal_status_updated_at"] = now
		}
		if r.ComplianceReviewStatus == models.ReviewWaitingOnSubmitter {
			hours, err := services.AccumulateStageHours(&work, models.StageComplianceReview, models.RoleReviewer, now, cfg)
			if err != nil {
				return services.TransitionUpdate{}, err
			}
			services.ApplyStageHours(&work, hours)
			for column, value := range hours.Columns() {
				columns[column] = value
			}
			columns["compliance_review_status"] = models.ReviewInProgress
			columns["compliance_status_updated_at"] = now
		}
		return services.TransitionUpdate{Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Submitter responded", fmt.Sprintf("%q is back with the reviewers.", updated.Title))
	respondTransition(c, updated)
}

type closeoutInput struct {
	TrackingID               *string `json:"tracking_id"`
	ForesideDocumentsPending bool    `json:"foreside_documents_pending"`
}

// CloseoutRequest finalizes a request. When foreside review is required and
// the documents have not arrived yet, the request parks in
// AwaitingForesideDocuments instead of completing.
func CloseoutRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()
	cfg := services.CalendarFromEnv()

	var input closeoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		if !caps.IsOwner && !caps.IsLegalAdmin && !caps.IsAdmin {
			return services.TransitionUpdate{}, &services.PreconditionError{Op: "closeout", Status: r.Status, Reason: "requires the request owner or a legal admin"}
		}
		result, err := services.ValidateCloseout(r, services.CloseoutPayload{TrackingID: input.TrackingID})
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		hours, err := services.AccumulateStageHours(r, models.StageCloseout, "", now, cfg)
		if err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := hours.Columns()
		if input.TrackingID != nil {
			columns["tracking_id"] = *input.TrackingID
		}

		next := models.StatusCompleted
		if r.IsForesideReviewRequired && input.ForesideDocumentsPending {
			next = models.StatusAwaitingForesideDocuments
		}
		return services.TransitionUpdate{NewStatus: next, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	title := "Request completed"
	if updated.Status == models.StatusAwaitingForesideDocuments {
		title = "Awaiting Foreside documents"
	}
	services.NotifyRequestParties(config.DB, updated, userID, "success",
		title, fmt.Sprintf("%q closeout recorded.", updated.Title))
	respondTransition(c, updated)
}

// ReceiveForesideDocuments completes a request parked on Foreside documents.
func ReceiveForesideDocuments(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateReceiveForesideDocuments(r, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}
		return services.TransitionUpdate{NewStatus: models.StatusCompleted}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "success",
		"Request completed", fmt.Sprintf("Foreside documents received for %q.", updated.Title))
	respondTransition(c, updated)
}

type reasonInput struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelRequest cancels from any non-terminal state.
func CancelRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	var input reasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, &input.Reason, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateCancel(r, services.CancelPayload{Reason: input.Reason}, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{
			"previous_status": services.PreviousActiveStatus(r),
			"cancelled_at":    now,
		}
		return services.TransitionUpdate{NewStatus: models.StatusCancelled, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "warning",
		"Request cancelled", fmt.Sprintf("%q was cancelled: %s", updated.Title, input.Reason))
	respondTransition(c, updated)
}

// HoldRequest pauses a request, finalizing the hour counters of every active
// stage so no time accrues while it waits.
func HoldRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()
	cfg := services.CalendarFromEnv()

	var input reasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, &input.Reason, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateHold(r, services.HoldPayload{Reason: input.Reason}, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		pauses, err := services.PauseTimeTracking(r, now, cfg)
		if err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{
			"previous_status": r.Status,
			"on_hold_at":      now,
			"on_hold_by_id":   userID,
		}
		for _, pause := range pauses {
			for column, value := range pause.Columns() {
				columns[column] = value
			}
			// Advance the hand-off stamp past the banked window, or the
			// next accrual would credit it again.
			if column := services.StageHandoffColumn(pause.Stage); column != "" {
				columns[column] = now
			}
		}
		return services.TransitionUpdate{NewStatus: models.StatusOnHold, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "warning",
		"Request on hold", fmt.Sprintf("%q was placed on hold: %s", updated.Title, input.Reason))
	respondTransition(c, updated)
}

// ResumeRequest returns an on-hold request to its previous status. The
// hand-off timestamps of the reactivated stages are restamped so the held
// window never accrues.
func ResumeRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)
	now := time.Now()

	store := services.NewRequestStore(config.DB)
	updated, err := store.ApplyTransition(requestID, userID, now, nil, func(r *models.LegalRequest) (services.TransitionUpdate, error) {
		caps := capabilitiesFor(userID, roleID, r)
		result, err := services.ValidateResume(r, caps)
		if err != nil {
			return services.TransitionUpdate{}, err
		}
		if err := result.Err(); err != nil {
			return services.TransitionUpdate{}, err
		}

		columns := map[string]interface{}{
			"previous_status": nil,
			"on_hold_at":      nil,
			"on_hold_by_id":   nil,
		}
		for column, value := range services.ResumeTimeTracking(r, now) {
			columns[column] = value
		}
		return services.TransitionUpdate{NewStatus: *r.PreviousStatus, Columns: columns}, nil
	})
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	services.NotifyRequestParties(config.DB, updated, userID, "info",
		"Request resumed", fmt.Sprintf("%q resumed as %s.", updated.Title, utils.StatusLabel(updated.Status)))
	respondTransition(c, updated)
}

// trackInitialStatus seeds a review track at submission time.
func trackInitialStatus(active bool) models.ReviewStatus {
	if active {
		return models.ReviewNotStarted
	}
	return models.ReviewNotRequired
}

// reviewStartColumns builds the column set shared by the two paths into
// InReview: stamp the review start, open the active tracks, and record the
// attorney when one was chosen.
func reviewStartColumns(r *models.LegalRequest, attorneyID *int, now time.Time) map[string]interface{} {
	columns := map[string]interface{}{
		"submitted_for_review_at": now,
	}
	if attorneyID != nil {
		columns["assigned_attorney_id"] = *attorneyID
		columns["legal_review_assigned_at"] = now
	}
	if r.ReviewAudience.IncludesLegal() {
		columns["legal_review_status"] = models.ReviewWaitingOnAttorney
		columns["legal_status_updated_at"] = now
	}
	if r.ReviewAudience.IncludesCompliance() {
		columns["compliance_review_status"] = models.ReviewWaitingOnCompliance
		columns["compliance_status_updated_at"] = now
	}
	return columns
}

func respondTransition(c *gin.Context, r *models.LegalRequest) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Transition applied",
		"request":      r,
		"status_label": utils.StatusLabel(r.Status),
	})
}
