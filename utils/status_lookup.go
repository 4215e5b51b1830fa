package utils

import (
	"fmt"
	"strings"

	"legal-request-api/models"
)

var statusSynonyms = map[models.RequestStatus][]string{
	models.StatusDraft: {
		"draft",
	},
	models.StatusLegalIntake: {
		"legal_intake",
		"legal intake",
		"intake",
	},
	models.StatusAssignAttorney: {
		"assign_attorney",
		"assign attorney",
		"attorney_assignment",
	},
	models.StatusInReview: {
		"in_review",
		"in review",
		"review",
	},
	models.StatusCloseout: {
		"closeout",
		"close_out",
	},
	models.StatusAwaitingForesideDocuments: {
		"awaiting_foreside_documents",
		"awaiting foreside documents",
		"foreside",
	},
	models.StatusCompleted: {
		"completed",
		"complete",
		"done",
	},
	models.StatusCancelled: {
		"cancelled",
		"canceled",
	},
	models.StatusOnHold: {
		"on_hold",
		"on hold",
		"hold",
		"paused",
	},
}

var statusAliasToCanonical = buildStatusAliasMap()

func buildStatusAliasMap() map[string]models.RequestStatus {
	aliasMap := make(map[string]models.RequestStatus)
	for canonical, synonyms := range statusSynonyms {
		aliasMap[normalizeStatus(string(canonical))] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatus(alias); normalized != "" {
				aliasMap[normalized] = canonical
			}
		}
	}
	return aliasMap
}

func normalizeStatus(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ParseRequestStatus resolves a user-supplied status filter (including common
// aliases) to its canonical value.
func ParseRequestStatus(value string) (models.RequestStatus, error) {
	normalized := normalizeStatus(value)
	if normalized == "" {
		return "", fmt.Errorf("status is required")
	}
	if status, ok := statusAliasToCanonical[normalized]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// StatusLabel renders a canonical status for display.
func StatusLabel(status models.RequestStatus) string {
	switch status {
	case models.StatusDraft:
		return "Draft"
	case models.StatusLegalIntake:
		return "Legal Intake"
	case models.StatusAssignAttorney:
		return "Assign Attorney"
	case models.StatusInReview:
		return "In Review"
	case models.StatusCloseout:
		return "Closeout"
	case models.StatusAwaitingForesideDocuments:
		return "Awaiting Foreside Documents"
	case models.StatusCompleted:
		return "Completed"
	case models.StatusCancelled:
		return "Cancelled"
	case models.StatusOnHold:
		return "On Hold"
	}
	return string(status)
}
