package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"legal-request-api/config"
	"legal-request-api/models"
	"legal-request-api/services"
	"legal-request-api/utils"
)

// GetRequestWorkflow returns the full derived workflow view of one request:
// current stage timing, normalized progress, the blocking party, and the
// accumulated per-stage hours. Everything here is computed from the snapshot,
// nothing is persisted.
func GetRequestWorkflow(c *gin.Context) {
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
		"request_id":    request.RequestID,
		"status":        request.Status,
		"status_label":  utils.StatusLabel(request.Status),
		"stage_timing":  services.StageTiming(request, now, cfg),
		"progress":      services.Progress(request, now, cfg),
		"waiting_on":    services.WaitingOn(request),
		"time_tracking": stageHoursSummary(request),
	})
}

// GetRequestStatusHistory returns the transition log, newest first.
func GetRequestStatusHistory(c *gin.Context) {
	requestID, ok := requestIDParam(c)
	if !ok {
		return
	}

	store := services.NewRequestStore(config.DB)
	if _, err := store.GetRequest(requestID); err != nil {
		respondTransitionError(c, err)
		return
	}

	history, err := store.GetStatusHistory(requestID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"history":    history,
	})
}

// GetDashboardStats returns status counts and overdue totals for the
// dashboard cards.
func GetDashboardStats(c *gin.Context) {
	type statusCount struct {
		Status models.RequestStatus `json:"status"`
		Count  int64                `json:"count"`
	}

	var counts []statusCount
	if err := config.DB.Model(&models.LegalRequest{}).
		Select("status, COUNT(*) as count").
		Where("delete_at IS NULL").
		Group("status").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
		return
	}

	var overdue int64
	if err := config.DB.Model(&models.LegalRequest{}).
		Where("delete_at IS NULL").
		Where("status NOT IN ?", []models.RequestStatus{models.StatusCompleted, models.StatusCancelled}).
		Where("target_return_date IS NOT NULL AND target_return_date < ?", time.Now()).
		Count(&overdue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
		return
	}

	var rush int64
	if err := config.DB.Model(&models.LegalRequest{}).
		Where("delete_at IS NULL AND is_rush = ?", true).
		Where("status NOT IN ?", []models.RequestStatus{models.StatusCompleted, models.StatusCancelled}).
		Count(&rush).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status_counts": counts,
		"overdue":       overdue,
		"rush_open":     rush,
	})
}

func stageHoursSummary(r *models.LegalRequest) gin.H {
	stage := func(s models.WorkflowStage) gin.H {
		return gin.H{
			"reviewer_hours":  r.StageReviewerHours(s),
			"submitter_hours": r.StageSubmitterHours(s),
		}
	}
	return gin.H{
		"legal_intake":          stage(models.StageLegalIntake),
		"legal_review":          stage(models.StageLegalReview),
		"compliance_review":     stage(models.StageComplianceReview),
		"closeout":              stage(models.StageCloseout),
		"total_reviewer_hours":  r.TotalReviewerHours,
		"total_submitter_hours": r.TotalSubmitterHours,
	}
}
