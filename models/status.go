package models

// RequestStatus is the closed set of workflow states a legal request moves through.
// Cancelled and OnHold are side states reachable from almost any non-terminal state
// and always carry PreviousStatus so progress and coloring can see through to the
// last active stage.
type RequestStatus string

const (
	StatusDraft                     RequestStatus = "draft"
	StatusLegalIntake               RequestStatus = "legal_intake"
	StatusAssignAttorney            RequestStatus = "assign_attorney"
	StatusInReview                  RequestStatus = "in_review"
	StatusCloseout                  RequestStatus = "closeout"
	StatusAwaitingForesideDocuments RequestStatus = "awaiting_foreside_documents"
	StatusCompleted                 RequestStatus = "completed"
	StatusCancelled                 RequestStatus = "cancelled"
	StatusOnHold                    RequestStatus = "on_hold"
)

// IsTerminal reports whether no further forward transition exists.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ReviewStatus tracks a single review track (legal or compliance).
type ReviewStatus string

const (
	ReviewNotRequired         ReviewStatus = "not_required"
	ReviewNotStarted          ReviewStatus = "not_started"
	ReviewInProgress          ReviewStatus = "in_progress"
	ReviewWaitingOnSubmitter  ReviewStatus = "waiting_on_submitter"
	ReviewWaitingOnAttorney   ReviewStatus = "waiting_on_attorney"
	ReviewWaitingOnCompliance ReviewStatus = "waiting_on_compliance"
	ReviewCompleted           ReviewStatus = "completed"
)

// IsDone reports whether the track no longer blocks closeout.
func (s ReviewStatus) IsDone() bool {
	return s == ReviewCompleted || s == ReviewNotRequired
}

// ReviewAudience selects which review tracks are active for a request.
type ReviewAudience string

const (
	AudienceLegal      ReviewAudience = "legal"
	AudienceCompliance ReviewAudience = "compliance"
	AudienceBoth       ReviewAudience = "both"
)

func (a ReviewAudience) IncludesLegal() bool {
	return a == AudienceLegal || a == AudienceBoth
}

func (a ReviewAudience) IncludesCompliance() bool {
	return a == AudienceCompliance || a == AudienceBoth
}

// WorkflowStage identifies the four time-tracked stages.
type WorkflowStage string

const (
	StageLegalIntake      WorkflowStage = "legal_intake"
	StageLegalReview      WorkflowStage = "legal_review"
	StageComplianceReview WorkflowStage = "compliance_review"
	StageCloseout         WorkflowStage = "closeout"
)

// OwnerRole identifies which party's hours are accruing for a stage.
type OwnerRole string

const (
	RoleReviewer  OwnerRole = "reviewer"
	RoleSubmitter OwnerRole = "submitter"
)

// ReviewOutcome is the decision recorded when a review is submitted.
type ReviewOutcome string

const (
	OutcomeApproved                     ReviewOutcome = "approved"
	OutcomeApprovedWithComments         ReviewOutcome = "approved_with_comments"
	OutcomeRespondToCommentsAndResubmit ReviewOutcome = "respond_to_comments_and_resubmit"
	OutcomeNotApproved                  ReviewOutcome = "not_approved"
)

// ValidReviewOutcome reports whether value is one of the accepted outcomes.
func ValidReviewOutcome(value ReviewOutcome) bool {
	switch value {
	case OutcomeApproved, OutcomeApprovedWithComments, OutcomeRespondToCommentsAndResubmit, OutcomeNotApproved:
		return true
	}
	return false
}

// Role IDs mirror the roles table.
const (
	RoleIDSubmitter        = 1
	RoleIDAttorney         = 2
	RoleIDAdmin            = 3
	RoleIDLegalAdmin       = 4
	RoleIDAttorneyAssigner = 5
	RoleIDComplianceUser   = 6
)
