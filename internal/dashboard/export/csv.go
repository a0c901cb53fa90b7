// Package export serialises dashboard aggregates for download. Figures are
// emitted with the engine's contractual precision: currency two decimals,
// percentages one.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

// WriteMonthlyCSV emits the monthly revenue series as CSV.
func WriteMonthlyCSV(w io.Writer, totals []salesagg.MonthlyTotal) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Month", "Revenue", "Invoices"}); err != nil {
		return err
	}
	for _, total := range totals {
		if err := writer.Write([]string{
			total.Month,
			total.Total.StringFixed(2),
			strconv.Itoa(total.Rows),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDealersCSV emits the dealer leaderboard as CSV.
func WriteDealersCSV(w io.Writer, dealers []salesagg.DealerAggregate) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Dealer", "Revenue", "Invoices", "Revenue Share %", "Latest Month", "Latest Month Avg"}); err != nil {
		return err
	}
	for _, dealer := range dealers {
		if err := writer.Write([]string{
			dealer.Name,
			dealer.Revenue.StringFixed(2),
			strconv.Itoa(dealer.Transactions),
			dealer.RevenueShare.StringFixed(1),
			dealer.LatestMonth,
			dealer.LatestMonthAvg.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRepsCSV emits the sales-rep leaderboard as CSV.
func WriteRepsCSV(w io.Writer, reps []salesagg.DimensionAggregate) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Rep", "Revenue", "Invoices", "Revenue Share %", "Distinct Dealers"}); err != nil {
		return err
	}
	for _, rep := range reps {
		if err := writer.Write([]string{
			rep.Name,
			rep.Revenue.StringFixed(2),
			strconv.Itoa(rep.Transactions),
			rep.RevenueShare.StringFixed(1),
			strconv.Itoa(rep.DistinctDealers),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
