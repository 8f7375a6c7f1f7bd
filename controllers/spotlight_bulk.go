package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/services"
)

// BulkSpotlightAction handles POST /api/v1/spotlights/bulk
//
// Listings are processed independently; the call-level status reflects
// only whether anything succeeded. Missing listing IDs abort the whole
// batch before any row is touched.
func BulkSpotlightAction(c *gin.Context) {
	var req models.BulkSpotlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSpotlightBulkService(nil, nil)
	result, err := svc.Execute(c.Request.Context(), req, actorID(c), requestMeta(c))
	if err != nil {
		var missing *services.MissingListingsError
		if errors.As(err, &missing) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":               "Some listings do not exist",
				"missing_listing_ids": missing.ListingIDs,
			})
			return
		}
		respondSpotlightError(c, err)
		return
	}

	if result.SucceededCount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "No listings could be processed",
			"result":  result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
