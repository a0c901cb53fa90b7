// Package salesagg implements the in-memory sales aggregation engine behind
// the dashboard: monthly rollups, dimension leaderboards, the month-over-month
// growth rate and the trailing active-dealer window. Every function here is
// pure and recomputes from the row set it is handed; the row source and the
// presentation layer live elsewhere.
package salesagg

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is one invoice line as delivered by the row source, before
// normalisation. Amount is loosely typed because upstream exports mix
// numerics, numeric strings and nulls.
type RawRow struct {
	TransactionDate string
	Amount          any
	DealerID        int64
	AgentID         *int64
	Reference       string
	Collection      string
}

// FactRow is the canonical invoice line every aggregator operates on.
// Amount is always a finite decimal; unparsable source amounts were zeroed
// during normalisation, never NaN or null.
type FactRow struct {
	Date       string          `json:"transaction_date"` // YYYY-MM-DD
	Amount     decimal.Decimal `json:"amount"`
	DealerID   int64           `json:"dealer_id"`
	AgentID    *int64          `json:"agent_id,omitempty"` // nil = unassigned rep
	Reference  string          `json:"reference,omitempty"`
	Collection string          `json:"collection,omitempty"` // "" = untagged
}

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, time.RFC3339, "2006-01-02 15:04:05"}

// Normalize coerces raw rows into FactRows. The returned count reports how
// many amounts could not be parsed and were zeroed; callers should surface it
// as a data-quality warning. An unparsable date fails the whole call because
// silently dropping the row would corrupt every downstream total.
func Normalize(raws []RawRow) ([]FactRow, int, error) {
	rows := make([]FactRow, 0, len(raws))
	coerced := 0
	for i, raw := range raws {
		date, err := normalizeDate(raw.TransactionDate)
		if err != nil {
			return nil, 0, fmt.Errorf("salesagg: row %d: %w", i, err)
		}
		amount, ok := normalizeAmount(raw.Amount)
		if !ok {
			coerced++
		}
		row := FactRow{
			Date:       date,
			Amount:     amount,
			DealerID:   raw.DealerID,
			Reference:  raw.Reference,
			Collection: raw.Collection,
		}
		if raw.AgentID != nil && *raw.AgentID != 0 {
			id := *raw.AgentID
			row.AgentID = &id
		}
		rows = append(rows, row)
	}
	return rows, coerced, nil
}

func normalizeDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("unparsable transaction date %q", value)
}

func normalizeAmount(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
