package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/services"
	"marketplace-spotlight-api/utils"
)

func listingIDParam(c *gin.Context) (int, bool) {
	listingID, err := strconv.Atoi(c.Param("listing_id"))
	if err != nil || listingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return 0, false
	}
	return listingID, true
}

func actorID(c *gin.Context) int {
	userID, _ := c.Get("userID")
	id, _ := userID.(int)
	return id
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// respondSpotlightError maps service errors onto HTTP statuses.
func respondSpotlightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidWindow), errors.Is(err, services.ErrInvalidBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrListingNotFound), errors.Is(err, services.ErrSpotlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrListingNotVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSpotlightAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoActiveSpotlight), errors.Is(err, services.ErrNoPausedSpotlight):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ApplySpotlight handles POST /api/v1/spotlights/:listing_id
func ApplySpotlight(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req models.SpotlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSpotlightService(nil, nil)
	spotlight, err := svc.Apply(c.Request.Context(), listingID, actorID(c), req, requestMeta(c))
	if err != nil {
		respondSpotlightError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Spotlight applied",
		"spotlight": spotlight.ToResponse(),
	})
}

// RemoveSpotlight handles DELETE /api/v1/spotlights/:listing_id
func RemoveSpotlight(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	// Body is optional on remove; an empty body means no reason given.
	var req models.SpotlightReasonRequest
	_ = c.ShouldBindJSON(&req)
	reason := utils.SanitizeInput(req.Reason)

	svc := services.NewSpotlightService(nil, nil)
	spotlight, err := svc.Remove(c.Request.Context(), listingID, actorID(c), reason, requestMeta(c))
	if err != nil {
		respondSpotlightError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Spotlight removed",
		"spotlight": spotlight.ToResponse(),
	})
}

// EditSpotlight handles PUT /api/v1/spotlights/:listing_id
func EditSpotlight(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req models.SpotlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSpotlightService(nil, nil)
	spotlight, err := svc.Edit(c.Request.Context(), listingID, actorID(c), req, requestMeta(c))
	if err != nil {
		respondSpotlightError(c, err)
		return
	}

	message := "Spotlight window updated"
	if spotlight.Status == models.SpotlightStatusExpired {
		message = "Spotlight expired by window edit"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"spotlight": spotlight.ToResponse(),
	})
}

// PauseSpotlight handles POST /api/v1/spotlights/:listing_id/pause
//
// Pausing a listing without an active spotlight is a no-op reported as
// paused=false, not an error.
func PauseSpotlight(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req models.SpotlightReasonRequest
	_ = c.ShouldBindJSON(&req)

	svc := services.NewSpotlightService(nil, nil)
	spotlight, paused, err := svc.Pause(c.Request.Context(), listingID, actorID(c), utils.SanitizeInput(req.Reason), requestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSpotlight) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"paused":  false,
				"message": "No active spotlight to pause",
			})
			return
		}
		respondSpotlightError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"paused":    paused,
		"message":   "Spotlight paused",
		"spotlight": spotlight.ToResponse(),
	})
}

// ResumeSpotlight handles POST /api/v1/spotlights/:listing_id/resume
//
// Resume reports resumed=false in three no-transition shapes: no paused
// row, window lapsed while paused (the row expires instead), and a
// listing that lost eligibility (the row stays paused).
func ResumeSpotlight(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	var req models.SpotlightReasonRequest
	_ = c.ShouldBindJSON(&req)

	svc := services.NewSpotlightService(nil, nil)
	spotlight, resumed, err := svc.Resume(c.Request.Context(), listingID, actorID(c), utils.SanitizeInput(req.Reason), requestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrNoPausedSpotlight) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"resumed": false,
				"message": "No paused spotlight to resume",
			})
			return
		}
		respondSpotlightError(c, err)
		return
	}

	message := "Spotlight resumed"
	if !resumed {
		if spotlight != nil && spotlight.Status == models.SpotlightStatusExpired {
			message = "Spotlight window lapsed while paused; the spotlight has expired"
		} else {
			message = "Listing is no longer eligible; the spotlight stays paused"
		}
	}

	response := gin.H{
		"success": true,
		"resumed": resumed,
		"message": message,
	}
	if spotlight != nil {
		response["spotlight"] = spotlight.ToResponse()
	}
	c.JSON(http.StatusOK, response)
}
