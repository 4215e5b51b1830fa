package services

import (
	"legal-request-api/models"
)

// WaitingKind classifies the blocking party of a request.
type WaitingKind string

const (
	WaitingOnUser  WaitingKind = "user"
	WaitingOnGroup WaitingKind = "group"
	WaitingOnNone  WaitingKind = "none"
)

// Role group display names.
const (
	GroupLegalAdmins       = "Legal Admins"
	GroupAttorneyAssigners = "Attorney Assigners"
	GroupComplianceUsers   = "Compliance Users"
)

// WaitingOnInfo names who or what the request is currently blocked on. Exactly
// one of UserID/GroupName is populated, or neither for terminal states.
type WaitingOnInfo struct {
	Kind        WaitingKind `json:"kind"`
	DisplayName string      `json:"display_name"`
	UserID      *int        `json:"user_id,omitempty"`
	GroupName   string      `json:"group_name,omitempty"`
}

// WaitingOn resolves the blocking party for a request snapshot.
func WaitingOn(r *models.LegalRequest) WaitingOnInfo {
	switch r.Status {
	case models.StatusCancelled, models.StatusCompleted:
		return none("")
	case models.StatusOnHold:
		if r.OnHoldByID == nil {
			return none("")
		}
		return user(*r.OnHoldByID, userName(r.OnHoldBy, "On hold"))
	case models.StatusDraft:
		return user(r.SubmitterID, userName(r.Submitter, "Submitter"))
	case models.StatusLegalIntake:
		return group(GroupLegalAdmins, GroupLegalAdmins)
	case models.StatusAssignAttorney:
		return group(GroupAttorneyAssigners, GroupAttorneyAssigners)
	case models.StatusCloseout:
		return user(r.SubmitterID, userName(r.Submitter, "Submitter"))
	case models.StatusInReview:
		return waitingOnReviewTrack(r)
	}
	return none("")
}

// waitingOnReviewTrack disambiguates the in-review case. Priority order:
// a track waiting on the submitter always wins, then the legal track, then the
// compliance track, then a generic fallback.
func waitingOnReviewTrack(r *models.LegalRequest) WaitingOnInfo {
	if r.LegalReviewStatus == models.ReviewWaitingOnSubmitter || r.ComplianceReviewStatus == models.ReviewWaitingOnSubmitter {
		return user(r.SubmitterID, userName(r.Submitter, "Submitter"))
	}

	if r.ReviewAudience.IncludesLegal() && legalTrackOpen(r.LegalReviewStatus) {
		if r.AssignedAttorneyID != nil {
			return user(*r.AssignedAttorneyID, userName(r.AssignedAttorney, "Attorney"))
		}
		return group(GroupLegalAdmins, GroupLegalAdmins+" (to assign attorney)")
	}

	if r.ReviewAudience.IncludesCompliance() && complianceTrackOpen(r.ComplianceReviewStatus) {
		return group(GroupComplianceUsers, GroupComplianceUsers)
	}

	// Defined fallback, not an error: both tracks are past the point of having
	// a single blocking party.
	return none("In Review")
}

func legalTrackOpen(s models.ReviewStatus) bool {
	return s == models.ReviewWaitingOnAttorney || s == models.ReviewInProgress || s == models.ReviewNotStarted
}

func complianceTrackOpen(s models.ReviewStatus) bool {
	return s == models.ReviewWaitingOnCompliance || s == models.ReviewInProgress || s == models.ReviewNotStarted
}

func userName(u *models.User, fallback string) string {
	if u != nil {
		return u.DisplayName()
	}
	return fallback
}

func user(id int, name string) WaitingOnInfo {
	return WaitingOnInfo{Kind: WaitingOnUser, DisplayName: name, UserID: &id}
}

func group(name, display string) WaitingOnInfo {
	return WaitingOnInfo{Kind: WaitingOnGroup, DisplayName: display, GroupName: name}
}

func none(display string) WaitingOnInfo {
	return WaitingOnInfo{Kind: WaitingOnNone, DisplayName: display}
}
