package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"legal-request-api/models"
	"legal-request-api/services"
)

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func getCurrentRoleID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("roleID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

// requestIDParam parses the :id path parameter.
func requestIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return 0, false
	}
	return id, true
}

// capabilitiesFor derives the boolean capability flags the transition rules
// consume from the actor's role and their relationship to the request.
func capabilitiesFor(userID, roleID int, r *models.LegalRequest) services.Capabilities {
	return services.Capabilities{
		IsAdmin:            roleID == models.RoleIDAdmin,
		IsLegalAdmin:       roleID == models.RoleIDLegalAdmin,
		IsAttorneyAssigner: roleID == models.RoleIDAttorneyAssigner,
		IsAttorney:         roleID == models.RoleIDAttorney,
		IsComplianceUser:   roleID == models.RoleIDComplianceUser,
		IsOwner:            r != nil && r.SubmitterID == userID,
	}
}

// respondTransitionError maps workflow errors onto HTTP statuses: recoverable
// field issues are 422 with the issue list, precondition failures are 409, a
// missing request is 404.
func respondTransitionError(c *gin.Context, err error) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"issues": validation.Result.Issues,
		})
		return
	}

	var precondition *services.PreconditionError
	if errors.As(err, &precondition) {
		c.JSON(http.StatusConflict, gin.H{"error": precondition.Error()})
		return
	}

	if errors.Is(err, services.ErrRequestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	log.Printf("Error: transition failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
