package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"legal-request-api/config"
	"legal-request-api/models"
)

// NotifyRequestParties records an in-app notification for everyone attached to
// the request (submitter, assigned attorney, on-hold actor) except the acting
// user, and mails the submitter. Delivery is best effort: a failed email is
// logged and never fails the transition that triggered it.
func NotifyRequestParties(db *gorm.DB, r *models.LegalRequest, actorID int, kind, title, message string) {
	recipients := map[int]struct{}{r.SubmitterID: {}}
	if r.AssignedAttorneyID != nil {
		recipients[*r.AssignedAttorneyID] = struct{}{}
	}
	if r.OnHoldByID != nil {
		recipients[*r.OnHoldByID] = struct{}{}
	}
	delete(recipients, actorID)

	requestID := uint(r.RequestID)
	now := time.Now()
	for userID := range recipients {
		notification := models.Notification{
			UserID:           uint(userID),
			Title:            title,
			Message:          message,
			Type:             kind,
			RelatedRequestID: &requestID,
			CreateAt:         now,
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("Warning: failed to create notification for user %d: %v", userID, err)
		}
	}

	if _, ok := recipients[r.SubmitterID]; ok {
		go mailSubmitter(db, r, title, message)
	}
}

func mailSubmitter(db *gorm.DB, r *models.LegalRequest, title, message string) {
	var submitter models.User
	if err := db.Where("user_id = ? AND delete_at IS NULL", r.SubmitterID).First(&submitter).Error; err != nil {
		log.Printf("Warning: failed to load submitter %d for mail: %v", r.SubmitterID, err)
		return
	}
	if submitter.Email == "" {
		return
	}

	html := fmt.Sprintf("<p>%s</p><p>Request <strong>%s</strong>: %s</p>", title, r.RequestNumber, message)
	if err := config.SendMail([]string{submitter.Email}, fmt.Sprintf("[%s] %s", r.RequestNumber, title), html); err != nil {
		log.Printf("Warning: failed to send mail for request %s: %v", r.RequestNumber, err)
	}
}
