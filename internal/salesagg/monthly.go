package salesagg

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyTotal aggregates every row sharing one calendar month.
type MonthlyTotal struct {
	Month string          `json:"month"` // YYYY-MM
	Total decimal.Decimal `json:"total"`
	Rows  int             `json:"rows"`
}

// MonthlyTotals groups rows by calendar month. Totals accumulate at full
// precision and are rounded to two decimals once, at emission. A month with
// no activity is absent from the result, not zero; callers needing a
// contiguous series must fill the gaps themselves.
func MonthlyTotals(rows []FactRow) []MonthlyTotal {
	type bucket struct {
		total decimal.Decimal
		rows  int
	}
	buckets := make(map[string]*bucket)
	for _, row := range rows {
		key := row.Date[:7]
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.total = b.total.Add(row.Amount)
		b.rows++
	}

	months := make([]string, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	// Zero-padded YYYY-MM keys sort chronologically.
	sort.Strings(months)

	out := make([]MonthlyTotal, 0, len(months))
	for _, month := range months {
		out = append(out, MonthlyTotal{
			Month: month,
			Total: buckets[month].total.Round(2),
			Rows:  buckets[month].rows,
		})
	}
	return out
}
