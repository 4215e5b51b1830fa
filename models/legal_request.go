package models

import "time"

// LegalRequest represents the legal_requests table. Every workflow computation in
// services/ treats a loaded row as an immutable snapshot; the services only ever
// propose partial updates, persisting them is the controllers' job.
type LegalRequest struct {
	RequestID      int            `gorm:"primaryKey;column:request_id" json:"request_id"`
	RequestNumber  string         `gorm:"column:request_number" json:"request_number"`
	Title          string         `gorm:"column:title" json:"title"`
	Description    *string        `gorm:"column:description" json:"description,omitempty"`
	Status         RequestStatus  `gorm:"column:status" json:"status"`
	ReviewAudience ReviewAudience `gorm:"column:review_audience" json:"review_audience"`

	// PreviousStatus is only populated while the request sits in Cancelled or
	// OnHold, so progress and coloring can be based on the last active stage.
	PreviousStatus *RequestStatus `gorm:"column:previous_status" json:"previous_status,omitempty"`

	SubmitterID        int  `gorm:"column:submitter_id" json:"submitter_id"`
	AssignedAttorneyID *int `gorm:"column:assigned_attorney_id" json:"assigned_attorney_id,omitempty"`
	OnHoldByID         *int `gorm:"column:on_hold_by_id" json:"on_hold_by_id,omitempty"`

	// Per-stage entry timestamps. Exactly one of these is the current stage start
	// at any time, selected by Status.
	CreateAt                    time.Time  `gorm:"column:create_at" json:"create_at"`
	SubmittedAt                 *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	SubmittedToAssignAttorneyAt *time.Time `gorm:"column:submitted_to_assign_attorney_at" json:"submitted_to_assign_attorney_at,omitempty"`
	SubmittedForReviewAt        *time.Time `gorm:"column:submitted_for_review_at" json:"submitted_for_review_at,omitempty"`
	CloseoutAt                  *time.Time `gorm:"column:closeout_at" json:"closeout_at,omitempty"`
	CancelledAt                 *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	OnHoldAt                    *time.Time `gorm:"column:on_hold_at" json:"on_hold_at,omitempty"`

	// Review track state.
	LegalReviewStatus           ReviewStatus `gorm:"column:legal_review_status" json:"legal_review_status"`
	ComplianceReviewStatus      ReviewStatus `gorm:"column:compliance_review_status" json:"compliance_review_status"`
	LegalReviewAssignedAt       *time.Time   `gorm:"column:legal_review_assigned_at" json:"legal_review_assigned_at,omitempty"`
	LegalStatusUpdatedAt        *time.Time   `gorm:"column:legal_status_updated_at" json:"legal_status_updated_at,omitempty"`
	ComplianceStatusUpdatedAt   *time.Time   `gorm:"column:compliance_status_updated_at" json:"compliance_status_updated_at,omitempty"`
	LegalReviewCompletedAt      *time.Time   `gorm:"column:legal_review_completed_at" json:"legal_review_completed_at,omitempty"`
	ComplianceReviewCompletedAt *time.Time   `gorm:"column:compliance_review_completed_at" json:"compliance_review_completed_at,omitempty"`

	// Closeout gate fields.
	IsForesideReviewRequired bool    `gorm:"column:is_foreside_review_required" json:"is_foreside_review_required"`
	IsRetailUse              bool    `gorm:"column:is_retail_use" json:"is_retail_use"`
	TrackingID               *string `gorm:"column:tracking_id" json:"tracking_id,omitempty"`

	TargetReturnDate *time.Time `gorm:"column:target_return_date" json:"target_return_date,omitempty"`
	IsRush           bool       `gorm:"column:is_rush" json:"is_rush"`

	// Accumulated business hours, four stages x two roles. The grand totals are
	// always recomputed as the sum of the stage counters, never accumulated
	// separately.
	LegalIntakeReviewerHours       float64 `gorm:"column:legal_intake_reviewer_hours" json:"legal_intake_reviewer_hours"`
	LegalIntakeSubmitterHours      float64 `gorm:"column:legal_intake_submitter_hours" json:"legal_intake_submitter_hours"`
	LegalReviewReviewerHours       float64 `gorm:"column:legal_review_reviewer_hours" json:"legal_review_reviewer_hours"`
	LegalReviewSubmitterHours      float64 `gorm:"column:legal_review_submitter_hours" json:"legal_review_submitter_hours"`
	ComplianceReviewReviewerHours  float64 `gorm:"column:compliance_review_reviewer_hours" json:"compliance_review_reviewer_hours"`
	ComplianceReviewSubmitterHours float64 `gorm:"column:compliance_review_submitter_hours" json:"compliance_review_submitter_hours"`
	CloseoutReviewerHours          float64 `gorm:"column:closeout_reviewer_hours" json:"closeout_reviewer_hours"`
	CloseoutSubmitterHours         float64 `gorm:"column:closeout_submitter_hours" json:"closeout_submitter_hours"`
	TotalReviewerHours             float64 `gorm:"column:total_reviewer_hours" json:"total_reviewer_hours"`
	TotalSubmitterHours            float64 `gorm:"column:total_submitter_hours" json:"total_submitter_hours"`

	UpdateAt time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Submitter        *User `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	AssignedAttorney *User `gorm:"foreignKey:AssignedAttorneyID" json:"assigned_attorney,omitempty"`
	OnHoldBy         *User `gorm:"foreignKey:OnHoldByID" json:"on_hold_by,omitempty"`
}

// TableName overrides
func (LegalRequest) TableName() string {
	return "legal_requests"
}

// StageReviewerHours returns the reviewer counter for a stage.
func (r *LegalRequest) StageReviewerHours(stage WorkflowStage) float64 {
	switch stage {
	case StageLegalIntake:
		return r.LegalIntakeReviewerHours
	case StageLegalReview:
		return r.LegalReviewReviewerHours
	case StageComplianceReview:
		return r.ComplianceReviewReviewerHours
	case StageCloseout:
		return r.CloseoutReviewerHours
	}
	return 0
}

// StageSubmitterHours returns the submitter counter for a stage.
func (r *LegalRequest) StageSubmitterHours(stage WorkflowStage) float64 {
	switch stage {
	case StageLegalIntake:
		return r.LegalIntakeSubmitterHours
	case StageLegalReview:
		return r.LegalReviewSubmitterHours
	case StageComplianceReview:
		return r.ComplianceReviewSubmitterHours
	case StageCloseout:
		return r.CloseoutSubmitterHours
	}
	return 0
}
