package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"legal-request-api/models"
)

// ErrRequestNotFound marks a missing or deleted request row.
var ErrRequestNotFound = errors.New("request not found")

// RequestStore persists legal requests and the partial updates the workflow
// core proposes. ApplyTransition serializes writes per request id by locking
// the row before the deciding callback reruns validation against a fresh
// snapshot; this is the single-writer discipline the time tracking accumulator
// relies on to avoid double-counted hours.
type RequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

// TransitionUpdate is what a transition decides to persist: the status to move
// to (empty means unchanged) plus any extra column assignments (timestamps,
// stage hour counters, review sub-statuses).
type TransitionUpdate struct {
	NewStatus models.RequestStatus
	Columns   map[string]interface{}
	Note      *string
}

// GetRequest loads a request snapshot with its user relations.
func (s *RequestStore) GetRequest(requestID int) (*models.LegalRequest, error) {
	var request models.LegalRequest
	err := s.db.Preload("Submitter").Preload("AssignedAttorney").Preload("OnHoldBy").
		Where("request_id = ? AND delete_at IS NULL", requestID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	return &request, nil
}

// ApplyTransition runs decide against a row-locked snapshot and persists the
// resulting update plus a status history entry in one transaction. decide
// returning an error aborts with nothing written.
func (s *RequestStore) ApplyTransition(requestID, actorID int, now time.Time, reason *string, decide func(*models.LegalRequest) (TransitionUpdate, error)) (*models.LegalRequest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var request models.LegalRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ? AND delete_at IS NULL", requestID).
			First(&request).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to lock request %d: %w", requestID, err)
		}

		update, err := decide(&request)
		if err != nil {
			return err
		}

		columns := update.Columns
		if columns == nil {
			columns = map[string]interface{}{}
		}
		statusChanged := update.NewStatus != "" && update.NewStatus != request.Status
		if statusChanged {
			columns["status"] = update.NewStatus
		}
		columns["update_at"] = now

		if err := tx.Model(&models.LegalRequest{}).
			Where("request_id = ?", requestID).
			Updates(columns).Error; err != nil {
			return fmt.Errorf("failed to update request %d: %w", requestID, err)
		}

		if statusChanged {
			oldStatus := request.Status
			history := models.RequestStatusHistory{
				RequestID: requestID,
				OldStatus: &oldStatus,
				NewStatus: update.NewStatus,
				ChangedBy: actorID,
				Reason:    reason,
				Notes:     update.Note,
				CreatedAt: now,
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("failed to log status history for request %d: %w", requestID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRequest(requestID)
}

// GetStatusHistory returns the transition log for a request, newest first.
func (s *RequestStore) GetStatusHistory(requestID int) ([]models.RequestStatusHistory, error) {
	var history []models.RequestStatusHistory
	err := s.db.Where("request_id = ?", requestID).
		Order("created_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load status history for request %d: %w", requestID, err)
	}
	return history, nil
}
