package salesagg

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultActiveWindowDays is the trailing window for the active-dealer KPI.
const DefaultActiveWindowDays = 90

// GrowthRate compares the two most recent monthly buckets and returns the
// month-over-month change as a percentage with one decimal place. Fewer than
// two buckets, or a zero previous month, yield zero: the defined no-signal
// value. This is deliberately not a rolling or seasonally adjusted rate.
func GrowthRate(months []MonthlyTotal) decimal.Decimal {
	if len(months) < 2 {
		return decimal.Zero
	}
	sorted := make([]MonthlyTotal, len(months))
	copy(sorted, months)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month < sorted[j].Month })

	latest := sorted[len(sorted)-1]
	previous := sorted[len(sorted)-2]
	if previous.Total.IsZero() {
		return decimal.Zero
	}
	return latest.Total.Sub(previous.Total).Div(previous.Total).Mul(hundred).Round(1)
}

// ActiveDealers counts distinct dealers with at least one transaction inside
// the trailing window. The window anchors on the most recent date present in
// the rows, not on wall-clock time, so historical and backfilled datasets
// keep producing the same answer. The threshold boundary is inclusive.
func ActiveDealers(rows []FactRow, windowDays int) int {
	if len(rows) == 0 {
		return 0
	}
	if windowDays <= 0 {
		windowDays = DefaultActiveWindowDays
	}
	latest := ""
	for _, row := range rows {
		if row.Date > latest {
			latest = row.Date
		}
	}
	anchor, err := time.Parse(dateLayout, latest)
	if err != nil {
		return 0
	}
	threshold := anchor.AddDate(0, 0, -windowDays).Format(dateLayout)

	active := make(map[int64]struct{})
	for _, row := range rows {
		if row.Date >= threshold {
			active[row.DealerID] = struct{}{}
		}
	}
	return len(active)
}

// ReportingWindow resolves the [start, end) range for a dashboard view.
// Explicit bounds pass through unchanged. A missing bound defaults to the
// full calendar year anchored on the explicit start's year, else on the most
// recent transaction date known to the row source (latestDate, empty when the
// source has no data), else on now.
func ReportingWindow(start, end, latestDate string, now time.Time) (string, string) {
	if start != "" && end != "" {
		return start, end
	}
	year := now.Year()
	switch {
	case len(start) >= 4:
		if y, err := strconv.Atoi(start[:4]); err == nil {
			year = y
		}
	case len(latestDate) >= 4:
		if y, err := strconv.Atoi(latestDate[:4]); err == nil {
			year = y
		}
	}
	if start == "" {
		start = fmt.Sprintf("%04d-01-01", year)
	}
	if end == "" {
		end = fmt.Sprintf("%04d-01-01", year+1)
	}
	return start, end
}
