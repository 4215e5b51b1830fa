package services

import (
	"fmt"
	"strings"

	"legal-request-api/models"
)

// Capabilities are the precomputed boolean role flags supplied by the caller.
// The core never performs a directory lookup; deriving these from the user's
// role and the request row is the controllers' job.
type Capabilities struct {
	IsAdmin            bool `json:"is_admin"`
	IsLegalAdmin       bool `json:"is_legal_admin"`
	IsAttorneyAssigner bool `json:"is_attorney_assigner"`
	IsAttorney         bool `json:"is_attorney"`
	IsComplianceUser   bool `json:"is_compliance_user"`
	IsOwner            bool `json:"is_owner"`
}

// FieldIssue is a single recoverable validation failure, keyed by field path.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects zero or more field issues. Rules never panic or
// error for control flow; callers always get a pass/fail result.
type ValidationResult struct {
	Issues []FieldIssue `json:"issues,omitempty"`
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool {
	return len(r.Issues) == 0
}

func (r *ValidationResult) add(field, message string) {
	r.Issues = append(r.Issues, FieldIssue{Field: field, Message: message})
}

// Err wraps a failed result as a ValidationError, or returns nil when the
// result passed. Lets controllers funnel field issues through the same error
// path as preconditions.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Result: r}
}

// ValidationError carries recoverable field issues across an error boundary.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Result.Issues))
	for i, issue := range e.Result.Issues {
		fields[i] = issue.Field
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// PreconditionError marks a status or capability mismatch that is not
// expressible as a field issue. It is fatal to the operation but never corrupts
// state: nothing is persisted until validation fully passes.
type PreconditionError struct {
	Op     string
	Status models.RequestStatus
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s (status %s)", e.Op, e.Reason, e.Status)
}

func wrongStatus(op string, r *models.LegalRequest, want ...models.RequestStatus) *PreconditionError {
	allowed := make([]string, len(want))
	for i, s := range want {
		allowed[i] = string(s)
	}
	return &PreconditionError{
		Op:     op,
		Status: r.Status,
		Reason: fmt.Sprintf("only valid from %s", strings.Join(allowed, ", ")),
	}
}

func requireStatus(op string, r *models.LegalRequest, want models.RequestStatus) *PreconditionError {
	if r.Status != want {
		return wrongStatus(op, r, want)
	}
	return nil
}

const minReviewNotesLength = 10

// Transition payloads.

type AssignAttorneyPayload struct {
	AttorneyID *int `json:"attorney_id"`
}

type ReviewPayload struct {
	Outcome    models.ReviewOutcome `json:"outcome"`
	Notes      string               `json:"notes"`
	ReviewerID int                  `json:"reviewer_id"`
}

type CloseoutPayload struct {
	TrackingID *string `json:"tracking_id"`
}

type CancelPayload struct {
	Reason string `json:"reason"`
}

type HoldPayload struct {
	Reason string `json:"reason"`
}

// ValidateSubmit gates Draft -> LegalIntake. Only the owner (or an admin) may
// submit a draft.
func ValidateSubmit(r *models.LegalRequest, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("submit", r, models.StatusDraft); err != nil {
		return result, err
	}
	if !caps.IsOwner && !caps.IsAdmin {
		return result, &PreconditionError{Op: "submit", Status: r.Status, Reason: "only the request owner may submit"}
	}
	return result, nil
}

// ValidateSendToAttorneyAssignment gates LegalIntake -> AssignAttorney.
func ValidateSendToAttorneyAssignment(r *models.LegalRequest, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("send_to_attorney_assignment", r, models.StatusLegalIntake); err != nil {
		return result, err
	}
	if !caps.IsLegalAdmin && !caps.IsAdmin {
		return result, &PreconditionError{Op: "send_to_attorney_assignment", Status: r.Status, Reason: "requires legal admin"}
	}
	return result, nil
}

// ValidateAssignAttorney gates the direct LegalIntake -> InReview transition.
// The attorney is required unless the review audience is compliance-only; the
// caller's capability is the orchestrator's concern, this rule only encodes the
// conditional-requirement shape.
func ValidateAssignAttorney(r *models.LegalRequest, payload AssignAttorneyPayload) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("assign_attorney", r, models.StatusLegalIntake); err != nil {
		return result, err
	}
	if payload.AttorneyID == nil && r.ReviewAudience != models.AudienceCompliance {
		result.add("attorney_id", "attorney is required unless the review audience is compliance only")
	}
	return result, nil
}

// ValidateCompleteAttorneyAssignment gates AssignAttorney -> InReview.
func ValidateCompleteAttorneyAssignment(r *models.LegalRequest, payload AssignAttorneyPayload, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("complete_attorney_assignment", r, models.StatusAssignAttorney); err != nil {
		return result, err
	}
	if !caps.IsAttorneyAssigner && !caps.IsLegalAdmin && !caps.IsAdmin {
		return result, &PreconditionError{Op: "complete_attorney_assignment", Status: r.Status, Reason: "requires attorney assigner"}
	}
	if payload.AttorneyID == nil {
		result.add("attorney_id", "attorney is required")
	}
	return result, nil
}

// ValidateSubmitLegalReview gates submitting the legal review outcome. The
// submitting user must be the assigned attorney unless they hold an override
// capability; this is a cross-field rule, not a simple field check.
func ValidateSubmitLegalReview(r *models.LegalRequest, payload ReviewPayload, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("submit_legal_review", r, models.StatusInReview); err != nil {
		return result, err
	}

	validateReviewFields(&result, payload)

	override := caps.IsLegalAdmin || caps.IsAdmin
	if !override {
		if r.AssignedAttorneyID == nil || payload.ReviewerID != *r.AssignedAttorneyID {
			result.add("reviewer_id", "legal review must be submitted by the assigned attorney")
		}
	}
	return result, nil
}

// ValidateSubmitComplianceReview gates submitting the compliance review outcome.
func ValidateSubmitComplianceReview(r *models.LegalRequest, payload ReviewPayload, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("submit_compliance_review", r, models.StatusInReview); err != nil {
		return result, err
	}
	if !caps.IsComplianceUser && !caps.IsAdmin {
		return result, &PreconditionError{Op: "submit_compliance_review", Status: r.Status, Reason: "requires compliance user"}
	}
	validateReviewFields(&result, payload)
	return result, nil
}

func validateReviewFields(result *ValidationResult, payload ReviewPayload) {
	if payload.Outcome == "" {
		result.add("outcome", "outcome is required")
	} else if !models.ValidReviewOutcome(payload.Outcome) {
		result.add("outcome", fmt.Sprintf("unknown outcome %q", payload.Outcome))
	}
	if len(strings.TrimSpace(payload.Notes)) < minReviewNotesLength {
		result.add("notes", fmt.Sprintf("notes must be at least %d characters", minReviewNotesLength))
	}
}

// ValidateRespondToComments gates the submitter's resubmission after a review
// track asked for changes. Only meaningful while at least one track is waiting
// on the submitter.
func ValidateRespondToComments(r *models.LegalRequest, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("respond_to_comments", r, models.StatusInReview); err != nil {
		return result, err
	}
	if !caps.IsOwner && !caps.IsAdmin {
		return result, &PreconditionError{Op: "respond_to_comments", Status: r.Status, Reason: "only the request owner may respond"}
	}
	if r.LegalReviewStatus != models.ReviewWaitingOnSubmitter && r.ComplianceReviewStatus != models.ReviewWaitingOnSubmitter {
		return result, &PreconditionError{Op: "respond_to_comments", Status: r.Status, Reason: "no review track is waiting on the submitter"}
	}
	return result, nil
}

// ValidateCloseout gates Closeout -> Completed. The tracking id becomes
// required exactly when compliance was reviewed AND foreside review is required
// AND the material is for retail use.
func ValidateCloseout(r *models.LegalRequest, payload CloseoutPayload) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("closeout", r, models.StatusCloseout); err != nil {
		return result, err
	}

	complianceReviewed := r.ComplianceReviewStatus == models.ReviewCompleted
	trackingRequired := complianceReviewed && r.IsForesideReviewRequired && r.IsRetailUse
	if trackingRequired && (payload.TrackingID == nil || strings.TrimSpace(*payload.TrackingID) == "") {
		result.add("tracking_id", "tracking id is required for compliance-reviewed retail material with foreside review")
	}
	return result, nil
}

// ValidateReceiveForesideDocuments gates AwaitingForesideDocuments -> Completed.
func ValidateReceiveForesideDocuments(r *models.LegalRequest, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("receive_foreside_documents", r, models.StatusAwaitingForesideDocuments); err != nil {
		return result, err
	}
	if !caps.IsLegalAdmin && !caps.IsAdmin && !caps.IsComplianceUser {
		return result, &PreconditionError{Op: "receive_foreside_documents", Status: r.Status, Reason: "requires legal admin or compliance user"}
	}
	return result, nil
}

// PreviousActiveStatus returns the status to record as the previous status
// when a request leaves the active flow. An on-hold request already borrowed
// its last active status, so that carries forward instead of "on_hold".
func PreviousActiveStatus(r *models.LegalRequest) models.RequestStatus {
	if r.Status == models.StatusOnHold && r.PreviousStatus != nil {
		return *r.PreviousStatus
	}
	return r.Status
}

// ValidateCancel: never valid once completed; admins and legal admins may
// cancel from anywhere else, the owner only while the request is a draft.
func ValidateCancel(r *models.LegalRequest, payload CancelPayload, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if r.Status == models.StatusCompleted {
		return result, &PreconditionError{Op: "cancel", Status: r.Status, Reason: "completed requests cannot be cancelled"}
	}
	if r.Status == models.StatusCancelled {
		return result, &PreconditionError{Op: "cancel", Status: r.Status, Reason: "request is already cancelled"}
	}
	if caps.IsAdmin || caps.IsLegalAdmin {
		return result, nil
	}
	if caps.IsOwner && r.Status == models.StatusDraft {
		return result, nil
	}
	return result, &PreconditionError{Op: "cancel", Status: r.Status, Reason: "owners may only cancel drafts"}
}

// ValidateHold: no hold from Draft, terminal states, or an existing hold.
func ValidateHold(r *models.LegalRequest, payload HoldPayload, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	switch r.Status {
	case models.StatusDraft, models.StatusCompleted, models.StatusCancelled, models.StatusOnHold:
		return result, &PreconditionError{Op: "hold", Status: r.Status, Reason: "cannot be placed on hold"}
	}
	if !caps.IsLegalAdmin && !caps.IsAdmin && !caps.IsAttorney {
		return result, &PreconditionError{Op: "hold", Status: r.Status, Reason: "requires legal admin, admin, or attorney"}
	}
	return result, nil
}

// ValidateResume: only from OnHold, and only with a previous status to return to.
func ValidateResume(r *models.LegalRequest, caps Capabilities) (ValidationResult, error) {
	var result ValidationResult
	if err := requireStatus("resume", r, models.StatusOnHold); err != nil {
		return result, err
	}
	if r.PreviousStatus == nil || *r.PreviousStatus == "" {
		return result, &PreconditionError{Op: "resume", Status: r.Status, Reason: "no previous status to resume to"}
	}
	if !caps.IsLegalAdmin && !caps.IsAdmin && !caps.IsAttorney {
		return result, &PreconditionError{Op: "resume", Status: r.Status, Reason: "requires legal admin, admin, or attorney"}
	}
	return result, nil
}

// ReviewTracksComplete reports whether both active review tracks are finished,
// which advances InReview -> Closeout. A track the audience excludes counts as
// complete.
func ReviewTracksComplete(r *models.LegalRequest) bool {
	if r.ReviewAudience.IncludesLegal() && !r.LegalReviewStatus.IsDone() {
		return false
	}
	if r.ReviewAudience.IncludesCompliance() && !r.ComplianceReviewStatus.IsDone() {
		return false
	}
	return true
}
