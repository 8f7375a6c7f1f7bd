package services

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"marketplace-spotlight-api/models"
)

var historyColumns = []string{
	"history_id", "spotlight_id", "listing_id", "action", "applied_by",
	"removed_by", "start_time", "end_time", "duration_hours", "created_at",
}

func TestHistoryLedgerAppendAssignsID(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `spotlight_history`"),
			result:  scriptedResult{lastInsertID: 31, rowsAffected: 1},
		},
	})
	defer cleanup()

	ledger := NewHistoryLedger(db)
	spotlightID := 5
	entry := &models.SpotlightHistory{
		SpotlightID:   &spotlightID,
		ListingID:     7,
		Action:        models.SpotlightActionActive,
		AppliedBy:     42,
		StartTime:     testStart,
		EndTime:       testStart.Add(24 * time.Hour),
		DurationHours: 24,
	}
	if err := ledger.Append(context.Background(), entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if entry.HistoryID != 31 {
		t.Errorf("history_id = %d, want 31 from the insert", entry.HistoryID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Error(err)
	}
}

func TestHistoryLedgerListFilters(t *testing.T) {
	created := testStart.Add(2 * time.Hour)
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `spotlight_history` WHERE listing_id = \\? AND action = \\?"),
			args:    []driver.Value{int64(7), "removed"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `spotlight_history` WHERE listing_id = \\? AND action = \\? ORDER BY created_at DESC, history_id DESC LIMIT \\?"),
			args:    []driver.Value{int64(7), "removed", int64(20)},
			columns: historyColumns,
			rows: [][]driver.Value{
				{int64(31), int64(5), int64(7), "removed", int64(8), int64(55), testStart, testStart.Add(24 * time.Hour), int64(24), created},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `listings`"),
			columns: []string{"listing_id", "title"},
			rows:    [][]driver.Value{{int64(7), "Vintage lamp"}},
		},
	})
	defer cleanup()

	ledger := NewHistoryLedger(db)
	entries, total, err := ledger.List(context.Background(), HistoryFilter{
		ListingID: 7,
		Action:    models.SpotlightActionRemoved,
		Limit:     20,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("list = %d rows, total %d, want 1 and 1", len(entries), total)
	}
	entry := entries[0]
	if entry.Action != models.SpotlightActionRemoved || entry.RemovedBy == nil || *entry.RemovedBy != 55 {
		t.Errorf("entry = %+v, want removal by 55", entry)
	}
	if entry.Listing.Title != "Vintage lamp" {
		t.Errorf("joined listing title = %q, want %q", entry.Listing.Title, "Vintage lamp")
	}
	if err := state.verifyComplete(); err != nil {
		t.Error(err)
	}
}

func TestHistoryLedgerListDateRange(t *testing.T) {
	from := testStart
	to := testStart.Add(48 * time.Hour)
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `spotlight_history` WHERE created_at >= \\? AND created_at <= \\?"),
			args:    []driver.Value{from, to},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `spotlight_history` WHERE created_at >= \\? AND created_at <= \\? ORDER BY created_at DESC, history_id DESC LIMIT \\?"),
			args:    []driver.Value{from, to, int64(50)},
			columns: historyColumns,
		},
	})
	defer cleanup()

	ledger := NewHistoryLedger(db)
	entries, total, err := ledger.List(context.Background(), HistoryFilter{
		DateFrom: &from,
		DateTo:   &to,
		Limit:    50,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(entries) != 0 {
		t.Errorf("list = %d rows, total %d, want empty", len(entries), total)
	}
	if err := state.verifyComplete(); err != nil {
		t.Error(err)
	}
}
