package utils

import (
	"testing"

	"legal-request-api/models"
)

func TestParseRequestStatusAliases(t *testing.T) {
	cases := map[string]models.RequestStatus{
		"draft":           models.StatusDraft,
		"Legal Intake":    models.StatusLegalIntake,
		"  in review ":    models.StatusInReview,
		"close_out":       models.StatusCloseout,
		"foreside":        models.StatusAwaitingForesideDocuments,
		"canceled":        models.StatusCancelled,
		"paused":          models.StatusOnHold,
		"assign attorney": models.StatusAssignAttorney,
		"done":            models.StatusCompleted,
	}
	for input, want := range cases {
		got, err := ParseRequestStatus(input)
		if err != nil {
			t.Errorf("ParseRequestStatus(%q) returned error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseRequestStatus(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestParseRequestStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseRequestStatus("archived"); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := ParseRequestStatus("  "); err == nil {
		t.Error("expected error for blank status")
	}
}

func TestStatusLabelCoversAllStatuses(t *testing.T) {
	statuses := []models.RequestStatus{
		models.StatusDraft, models.StatusLegalIntake, models.StatusAssignAttorney,
		models.StatusInReview, models.StatusCloseout, models.StatusAwaitingForesideDocuments,
		models.StatusCompleted, models.StatusCancelled, models.StatusOnHold,
	}
	for _, status := range statuses {
		if label := StatusLabel(status); label == string(status) {
			t.Errorf("no display label for %s", status)
		}
	}
}
