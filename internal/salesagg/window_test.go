package salesagg

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func monthTotal(month, total string, rows int) MonthlyTotal {
	return MonthlyTotal{Month: month, Total: decimal.RequireFromString(total), Rows: rows}
}

func TestGrowthRate(t *testing.T) {
	cases := []struct {
		name   string
		months []MonthlyTotal
		want   string
	}{
		{"no buckets", nil, "0"},
		{"single month", []MonthlyTotal{monthTotal("2024-01", "100", 1)}, "0"},
		{"fifty percent up", []MonthlyTotal{monthTotal("2024-01", "100", 1), monthTotal("2024-02", "150", 1)}, "50"},
		{"zero previous month guarded", []MonthlyTotal{monthTotal("2024-01", "0", 1), monthTotal("2024-02", "100", 1)}, "0"},
		{"decline", []MonthlyTotal{monthTotal("2024-01", "200", 1), monthTotal("2024-02", "150", 1)}, "-25"},
		{"unsorted input", []MonthlyTotal{monthTotal("2024-02", "150", 1), monthTotal("2024-01", "100", 1)}, "50"},
		{"only latest two considered", []MonthlyTotal{monthTotal("2023-01", "1", 1), monthTotal("2024-01", "100", 1), monthTotal("2024-02", "150", 1)}, "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GrowthRate(tc.months)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("growth rate %s, want %s", got, tc.want)
			}
		})
	}
}

func TestActiveDealersAnchorsOnDataNotClock(t *testing.T) {
	// Latest transaction is 2024-06-30; a dealer last seen 76 days earlier
	// is active under a 90-day window and inactive under a 60-day window,
	// regardless of the day this test runs.
	rows := []FactRow{
		factRow("2024-06-30", "100", 1),
		factRow("2024-04-15", "50", 2),
	}
	if got := ActiveDealers(rows, 90); got != 2 {
		t.Fatalf("90-day window: got %d active dealers, want 2", got)
	}
	if got := ActiveDealers(rows, 60); got != 1 {
		t.Fatalf("60-day window: got %d active dealers, want 1", got)
	}
}

func TestActiveDealersInclusiveThreshold(t *testing.T) {
	rows := []FactRow{
		factRow("2024-06-30", "100", 1),
		factRow("2024-04-01", "50", 2), // exactly 90 days before the anchor
	}
	if got := ActiveDealers(rows, 90); got != 2 {
		t.Fatalf("threshold boundary must be inclusive, got %d", got)
	}
}

func TestActiveDealersEmptyAndDefaultWindow(t *testing.T) {
	if got := ActiveDealers(nil, 90); got != 0 {
		t.Fatalf("empty rows: got %d", got)
	}
	rows := []FactRow{factRow("2024-06-30", "1", 1)}
	if got := ActiveDealers(rows, 0); got != 1 {
		t.Fatalf("zero window must fall back to the default, got %d", got)
	}
}

func TestReportingWindow(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		start, end string
		latest     string
		wantStart  string
		wantEnd    string
	}{
		{"explicit bounds pass through", "2024-03-01", "2024-06-01", "2025-01-01", "2024-03-01", "2024-06-01"},
		{"start only anchors its own year", "2023-05-01", "", "", "2023-05-01", "2024-01-01"},
		{"latest data anchors the year", "", "", "2024-11-20", "2024-01-01", "2025-01-01"},
		{"end only keeps explicit end", "", "2024-06-01", "2024-03-15", "2024-01-01", "2024-06-01"},
		{"no data falls back to now", "", "", "", "2026-01-01", "2027-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := ReportingWindow(tc.start, tc.end, tc.latest, now)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Fatalf("got [%s, %s), want [%s, %s)", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}
