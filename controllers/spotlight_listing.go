package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/services"
)

var historyDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

func parseHistoryDate(raw string, endOfDay bool) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	for _, layout := range historyDateLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			continue
		}
		parsed = parsed.UTC()
		if endOfDay && layout == "2006-01-02" {
			parsed = parsed.AddDate(0, 0, 1).Add(-time.Second)
		}
		return &parsed, true
	}
	return nil, false
}

// GetActiveSpotlights handles GET /api/v1/spotlights/active
//
// Public. Runs a sweep first so a lapsed window never shows up as
// active, regardless of timer cadence.
func GetActiveSpotlights(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	sweeper := services.NewSpotlightSweeper(nil, nil)
	if _, err := sweeper.SweepExpired(c.Request.Context()); err != nil {
		log.Printf("active spotlights: sweep failed: %v", err)
	}

	svc := services.NewSpotlightService(nil, nil)
	spotlights, totalCount, err := svc.ListActive(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load active spotlights"})
		return
	}

	items := make([]gin.H, 0, len(spotlights))
	for _, spotlight := range spotlights {
		items = append(items, gin.H{
			"spotlight": spotlight.ToResponse(),
			"listing": gin.H{
				"listing_id": spotlight.Listing.ListingID,
				"title":      spotlight.Listing.Title,
				"price":      spotlight.Listing.Price,
				"seller_id":  spotlight.Listing.SellerID,
			},
		})
	}

	totalPages := (totalCount + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"spotlights": items,
		"pagination": gin.H{
			"current_page": page,
			"per_page":     limit,
			"total_count":  totalCount,
			"total_pages":  totalPages,
			"has_next":     page < int(totalPages),
			"has_prev":     page > 1,
		},
	})
}

// GetSpotlightHistory handles GET /api/v1/spotlights/history
//
// Authenticated. Filters: listing_id, action, date_from, date_to.
func GetSpotlightHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := services.HistoryFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	if raw := c.Query("listing_id"); raw != "" {
		listingID, err := strconv.Atoi(raw)
		if err != nil || listingID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing_id filter"})
			return
		}
		filter.ListingID = listingID
	}

	if action := c.Query("action"); action != "" {
		allowedActions := map[string]bool{
			models.SpotlightActionActive:  true,
			models.SpotlightActionPaused:  true,
			models.SpotlightActionResumed: true,
			models.SpotlightActionExpired: true,
			models.SpotlightActionRemoved: true,
			models.SpotlightActionEdited:  true,
		}
		if !allowedActions[action] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action filter"})
			return
		}
		filter.Action = action
	}

	dateFrom, ok := parseHistoryDate(c.Query("date_from"), false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_from filter"})
		return
	}
	filter.DateFrom = dateFrom

	dateTo, ok := parseHistoryDate(c.Query("date_to"), true)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_to filter"})
		return
	}
	filter.DateTo = dateTo

	svc := services.NewSpotlightService(nil, nil)
	entries, totalCount, err := svc.ListHistory(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load spotlight history"})
		return
	}

	items := make([]models.SpotlightHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, models.SpotlightHistoryItem{
			HistoryID:     entry.HistoryID,
			ListingID:     entry.ListingID,
			ListingTitle:  entry.Listing.Title,
			Action:        entry.Action,
			AppliedBy:     entry.AppliedBy,
			RemovedBy:     entry.RemovedBy,
			StartTime:     entry.StartTime,
			EndTime:       entry.EndTime,
			DurationHours: entry.DurationHours,
			CreatedAt:     entry.CreatedAt,
		})
	}

	totalPages := (totalCount + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": items,
		"pagination": gin.H{
			"current_page": page,
			"per_page":     limit,
			"total_count":  totalCount,
			"total_pages":  totalPages,
			"has_next":     page < int(totalPages),
			"has_prev":     page > 1,
		},
		"filters": gin.H{
			"listing_id": c.Query("listing_id"),
			"action":     c.Query("action"),
			"date_from":  c.Query("date_from"),
			"date_to":    c.Query("date_to"),
		},
	})
}
