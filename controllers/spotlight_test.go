package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-spotlight-api/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestRespondSpotlightErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid window", services.ErrInvalidWindow, http.StatusBadRequest},
		{"invalid batch", services.ErrInvalidBatch, http.StatusBadRequest},
		{"not verified", services.ErrListingNotVerified, http.StatusBadRequest},
		{"permission denied", services.ErrPermissionDenied, http.StatusForbidden},
		{"listing not found", services.ErrListingNotFound, http.StatusNotFound},
		{"spotlight not found", services.ErrSpotlightNotFound, http.StatusNotFound},
		{"no active spotlight", services.ErrNoActiveSpotlight, http.StatusNotFound},
		{"no paused spotlight", services.ErrNoPausedSpotlight, http.StatusNotFound},
		{"already active", services.ErrSpotlightAlreadyActive, http.StatusConflict},
		{"wrapped already active", fmt.Errorf("listing 7: %w", services.ErrSpotlightAlreadyActive), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondSpotlightError(c, tc.err)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestRespondSpotlightErrorMasksInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondSpotlightError(c, errors.New("dial tcp 10.0.0.3:3306: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.3") {
		t.Errorf("body leaks the internal error: %s", w.Body.String())
	}
}

func TestListingIDParam(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "listing_id", Value: "7"}}

		listingID, ok := listingIDParam(c)
		if !ok || listingID != 7 {
			t.Fatalf("param = (%d, %v), want (7, true)", listingID, ok)
		}
	})

	for _, raw := range []string{"abc", "0", "-3", "7.5", ""} {
		t.Run("invalid "+raw, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "listing_id", Value: raw}}

			if _, ok := listingIDParam(c); ok {
				t.Fatalf("%q accepted as a listing ID", raw)
			}
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestParseHistoryDate(t *testing.T) {
	t.Run("empty means no filter", func(t *testing.T) {
		parsed, ok := parseHistoryDate("", false)
		if !ok || parsed != nil {
			t.Fatalf("parse = (%v, %v), want (nil, true)", parsed, ok)
		}
	})

	t.Run("date only", func(t *testing.T) {
		parsed, ok := parseHistoryDate("2025-06-02", false)
		if !ok || parsed == nil {
			t.Fatal("date-only value rejected")
		}
		if want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC); !parsed.Equal(want) {
			t.Errorf("parsed = %s, want %s", parsed, want)
		}
	})

	t.Run("date only end of day", func(t *testing.T) {
		parsed, ok := parseHistoryDate("2025-06-02", true)
		if !ok || parsed == nil {
			t.Fatal("date-only value rejected")
		}
		if want := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC); !parsed.Equal(want) {
			t.Errorf("parsed = %s, want the end of the day %s", parsed, want)
		}
	})

	t.Run("rfc3339 keeps the instant", func(t *testing.T) {
		parsed, ok := parseHistoryDate("2025-06-02T15:04:05Z", true)
		if !ok || parsed == nil {
			t.Fatal("timestamp rejected")
		}
		if want := time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC); !parsed.Equal(want) {
			t.Errorf("parsed = %s, want %s", parsed, want)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, ok := parseHistoryDate("last tuesday", false); ok {
			t.Error("garbage date accepted")
		}
	})
}
