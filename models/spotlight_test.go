package models

import (
	"testing"
	"time"
)

func TestSpotlightLapsedAtBoundary(t *testing.T) {
	end := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	s := Spotlight{EndTime: end}

	if s.LapsedAt(end.Add(-time.Second)) {
		t.Error("window reported lapsed before its end")
	}
	if !s.LapsedAt(end) {
		t.Error("window not lapsed at the exact end instant")
	}
	if !s.LapsedAt(end.Add(time.Second)) {
		t.Error("window not lapsed after its end")
	}
}

func TestSpotlightStatusPredicates(t *testing.T) {
	cases := []struct {
		status string
		active bool
		paused bool
		ended  bool
	}{
		{SpotlightStatusActive, true, false, false},
		{SpotlightStatusPaused, false, true, false},
		{SpotlightStatusExpired, false, false, true},
		{SpotlightStatusRemoved, false, false, true},
	}

	for _, tc := range cases {
		s := Spotlight{Status: tc.status}
		if s.IsActive() != tc.active || s.IsPaused() != tc.paused || s.IsEnded() != tc.ended {
			t.Errorf("%s: predicates = (%v, %v, %v), want (%v, %v, %v)",
				tc.status, s.IsActive(), s.IsPaused(), s.IsEnded(), tc.active, tc.paused, tc.ended)
		}
	}
}

func TestDurationHoursBetweenRoundsToNearestHour(t *testing.T) {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		delta time.Duration
		want  int
	}{
		{24 * time.Hour, 24},
		{24*time.Hour + 29*time.Minute, 24},
		{24*time.Hour + 30*time.Minute, 25},
		{168 * time.Hour, 168},
		{45 * time.Minute, 1},
	}

	for _, tc := range cases {
		if got := DurationHoursBetween(start, start.Add(tc.delta)); got != tc.want {
			t.Errorf("delta %s: hours = %d, want %d", tc.delta, got, tc.want)
		}
	}
}
