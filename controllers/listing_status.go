package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/services"
)

// GetListingSpotlightStatus handles GET /api/v1/listings/:listing_id/spotlight-status
//
// Public. The listing is swept before answering, so the reply is never
// stale even when the timer has not fired recently. Replies are served
// from Redis when available.
func GetListingSpotlightStatus(c *gin.Context) {
	listingID, ok := listingIDParam(c)
	if !ok {
		return
	}

	cache := services.NewStatusCache(config.RedisClient)
	if status, hit := cache.Get(c.Request.Context(), listingID); hit {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  status,
			"cached":  true,
		})
		return
	}

	sweeper := services.NewSpotlightSweeper(nil, nil)
	if _, err := sweeper.SweepListing(c.Request.Context(), listingID); err != nil {
		log.Printf("spotlight status: sweep failed for listing %d: %v", listingID, err)
	}

	listings := services.NewListingStore(nil)
	listing, err := listings.GetByID(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listing"})
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	svc := services.NewSpotlightService(nil, nil)
	spotlight, err := svc.GetSpotlight(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load spotlight status"})
		return
	}

	status := &models.SpotlightStatusResponse{
		ListingID: listingID,
	}
	if spotlight != nil {
		status.IsSpotlighted = spotlight.IsActive()
		statusName := spotlight.Status
		status.Status = &statusName
		endTime := spotlight.EndTime
		status.EndTime = &endTime
	}

	cache.Set(c.Request.Context(), status)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  status,
	})
}
