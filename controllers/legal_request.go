package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"legal-request-api/config"
	"legal-request-api/models"
	"legal-request-api/services"
	"legal-request-api/utils"
)

type CreateRequestInput struct {
	Title                    string  `json:"title" binding:"required"`
	Description              *string `json:"description"`
	ReviewAudience           string  `json:"review_audience" binding:"required,oneof=legal compliance both"`
	TargetReturnDate         *string `json:"target_return_date"`
	IsRush                   bool    `json:"is_rush"`
	IsForesideReviewRequired bool    `json:"is_foreside_review_required"`
	IsRetailUse              bool    `json:"is_retail_use"`
}

type UpdateRequestInput struct {
	Title                    *string `json:"title"`
	Description              *string `json:"description"`
	TargetReturnDate         *string `json:"target_return_date"`
	IsRush                   *bool   `json:"is_rush"`
	IsForesideReviewRequired *bool   `json:"is_foreside_review_required"`
	IsRetailUse              *bool   `json:"is_retail_use"`
}

// CreateRequest creates a new draft legal request owned by the current user.
func CreateRequest(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var input CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetDate, err := parseDateField(input.TargetReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_return_date must be YYYY-MM-DD"})
		return
	}

	now := time.Now()
	request := models.LegalRequest{
		RequestNumber:            generateRequestNumber(now),
		Title:                    utils.SanitizeInput(input.Title),
		Description:              input.Description,
		Status:                   models.StatusDraft,
		ReviewAudience:           models.ReviewAudience(input.ReviewAudience),
		SubmitterID:              userID,
		LegalReviewStatus:        models.ReviewNotStarted,
		ComplianceReviewStatus:   models.ReviewNotStarted,
		TargetReturnDate:         targetDate,
		IsRush:                   input.IsRush,
		IsForesideReviewRequired: input.IsForesideReviewRequired,
		IsRetailUse:              input.IsRetailUse,
		CreateAt:                 now,
		UpdateAt:                 now,
	}

	if err := config.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Request created successfully",
		"request": request,
	})
}

// GetRequests lists requests visible to the current user. Admins and legal
// admins see everything; attorneys see their assignments plus their own;
// everyone else sees only what they submitted.
func GetRequests(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	roleID, _ := getCurrentRoleID(c)

	query := config.DB.Model(&models.LegalRequest{}).
		Preload("Submitter").Preload("AssignedAttorney").
		Where("delete_at IS NULL")

	switch roleID {
	case models.RoleIDAdmin, models.RoleIDLegalAdmin, models.RoleIDAttorneyAssigner, models.RoleIDComplianceUser:
		// Full visibility.
	case models.RoleIDAttorney:
		query = query.Where("submitter_id = ? OR assigned_attorney_id = ?", userID, userID)
	default:
		query = query.Where("submitter_id = ?", userID)
	}

	if raw := c.Query("status"); raw != "" {
		status, err := utils.ParseRequestStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query = query.Where("status = ?", status)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR request_number LIKE ?", like, like)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count requests"})
		return
	}

	var requests []models.LegalRequest
	if err := query.Order("update_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetRequest returns a single request with its workflow summary.
func GetRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}

	store := services.NewRequestStore(config.DB)
	request, err := store.GetRequest(requestID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	now := time.Now()
	cfg := services.CalendarFromEnv()
	c.JSON(http.StatusOK, gin.H{
		"request":      request,
		"status_label": utils.StatusLabel(request.Status),
		"progress":     services.Progress(request, now, cfg),
		"waiting_on":   services.WaitingOn(request),
	})
}

// UpdateRequest edits draft fields. Once submitted, the intake form is frozen
// and changes flow through the review tracks instead.
func UpdateRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	var input UpdateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := services.NewRequestStore(config.DB)
	request, err := store.GetRequest(requestID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	caps := capabilitiesFor(userID, roleID, request)
	if !caps.IsOwner && !caps.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	if request.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft requests can be edited"})
		return
	}

	columns := map[string]interface{}{"update_at": time.Now()}
	if input.Title != nil {
		columns["title"] = utils.SanitizeInput(*input.Title)
	}
	if input.Description != nil {
		columns["description"] = *input.Description
	}
	if input.TargetReturnDate != nil {
		targetDate, err := parseDateField(input.TargetReturnDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_return_date must be YYYY-MM-DD"})
			return
		}
		columns["target_return_date"] = targetDate
	}
	if input.IsRush != nil {
		columns["is_rush"] = *input.IsRush
	}
	if input.IsForesideReviewRequired != nil {
		columns["is_foreside_review_required"] = *input.IsForesideReviewRequired
	}
	if input.IsRetailUse != nil {
		columns["is_retail_use"] = *input.IsRetailUse
	}

	if err := config.DB.Model(&models.LegalRequest{}).
		Where("request_id = ?", requestID).
		Updates(columns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update request"})
		return
	}

	updated, err := store.GetRequest(requestID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Request updated successfully",
		"request": updated,
	})
}

// DeleteRequest soft-deletes a draft.
func DeleteRequest(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	store := services.NewRequestStore(config.DB)
	request, err := store.GetRequest(requestID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	caps := capabilitiesFor(userID, roleID, request)
	if !caps.IsOwner && !caps.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}
	if request.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft requests can be deleted"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.LegalRequest{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request deleted successfully"})
}

// generateRequestNumber produces a display identifier like LR-2026-3F2A9C1B.
func generateRequestNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("LR-%d-%s", now.Year(), suffix)
}

func parseDateField(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
