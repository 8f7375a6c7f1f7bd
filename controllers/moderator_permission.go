package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/services"
)

func moderatorIDParam(c *gin.Context) (int, bool) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return userID, true
}

func respondPermissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrNotAModerator):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is not a moderator"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetModeratorPermissions handles GET /api/v1/admin/moderators/:user_id/permissions
func GetModeratorPermissions(c *gin.Context) {
	userID, ok := moderatorIDParam(c)
	if !ok {
		return
	}

	svc := services.NewPermissionService(nil)
	perm, err := svc.GetModeratorPermissions(c.Request.Context(), userID)
	if err != nil {
		respondPermissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"permissions": perm,
	})
}

// UpdateModeratorPermissions handles PUT /api/v1/admin/moderators/:user_id/permissions
func UpdateModeratorPermissions(c *gin.Context) {
	userID, ok := moderatorIDParam(c)
	if !ok {
		return
	}

	var req models.ModeratorPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewPermissionService(nil)
	perm, err := svc.SetModeratorPermissions(c.Request.Context(), userID, req, actorID(c))
	if err != nil {
		respondPermissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Moderator permissions updated",
		"permissions": perm,
	})
}
