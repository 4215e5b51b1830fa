package models

import "time"

// RequestStatusHistory tracks historical status changes for legal requests.
type RequestStatusHistory struct {
	HistoryID int            `gorm:"primaryKey;column:history_id" json:"history_id"`
	RequestID int            `gorm:"column:request_id" json:"request_id"`
	OldStatus *RequestStatus `gorm:"column:old_status" json:"old_status"`
	NewStatus RequestStatus  `gorm:"column:new_status" json:"new_status"`
	ChangedBy int            `gorm:"column:changed_by" json:"changed_by"`
	Reason    *string        `gorm:"column:reason" json:"reason"`
	Notes     *string        `gorm:"column:notes" json:"notes"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for RequestStatusHistory.
func (RequestStatusHistory) TableName() string {
	return "request_status_history"
}
