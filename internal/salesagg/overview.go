package salesagg

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// NameDirectory carries the display-name lookups resolved by the row source.
// The engine never resolves names itself; missing entries fall back to
// "Dealer {id}" / "Rep {id}".
type NameDirectory struct {
	Dealers map[int64]string
	Reps    map[int64]string
}

// Overview is the top-level composite handed to the presentation layer. It is
// recomputed from the supplied rows on every call and has no identity or
// persistence of its own.
type Overview struct {
	Start          string               `json:"start"`
	End            string               `json:"end"`
	Rows           []FactRow            `json:"rows"`
	Monthly        []MonthlyTotal       `json:"monthly_totals"`
	GrandTotal     decimal.Decimal      `json:"grand_total"`
	InvoiceCount   int                  `json:"invoice_count"`
	ActiveDealers  int                  `json:"active_dealers"`
	GrowthRate     decimal.Decimal      `json:"growth_rate_pct"`
	Dealers        []DealerAggregate    `json:"dealers"`
	Reps           []DimensionAggregate `json:"reps"`
	Collections    []DimensionAggregate `json:"collections"`
	CoercedAmounts int                  `json:"coerced_amounts,omitempty"`
}

// BuildOverview runs every aggregator over the same normalised row set and
// assembles the dashboard composite. Dimension shares are computed against
// the unrounded grand total so they reconcile with the emitted totals.
func BuildOverview(rows []FactRow, names NameDirectory, windowDays int) Overview {
	grand := decimal.Zero
	for _, row := range rows {
		grand = grand.Add(row.Amount)
	}
	monthly := MonthlyTotals(rows)
	return Overview{
		Rows:          rows,
		Monthly:       monthly,
		GrandTotal:    grand.Round(2),
		InvoiceCount:  len(rows),
		ActiveDealers: ActiveDealers(rows, windowDays),
		GrowthRate:    GrowthRate(monthly),
		Dealers:       AggregateDealers(rows, names.Dealers, grand),
		Reps:          AggregateReps(rows, names.Reps, grand),
		Collections:   AggregateCollections(rows, grand),
	}
}

// EntityOverview is the narrower per-dealer or per-rep view: the entity's
// monthly series, dealer breakdown and totals only.
type EntityOverview struct {
	Key          string            `json:"key"`
	Name         string            `json:"name"`
	Monthly      []MonthlyTotal    `json:"monthly_totals"`
	Dealers      []DealerAggregate `json:"dealers"`
	Total        decimal.Decimal   `json:"total"`
	Transactions int               `json:"transactions"`
}

// BuildDealerOverview narrows the row set to a single dealer.
func BuildDealerOverview(rows []FactRow, dealerID int64, names NameDirectory) EntityOverview {
	scoped := make([]FactRow, 0)
	for _, row := range rows {
		if row.DealerID == dealerID {
			scoped = append(scoped, row)
		}
	}
	key := strconv.FormatInt(dealerID, 10)
	return buildEntityOverview(key, displayName(names.Dealers, dealerID, "Dealer"), scoped, names)
}

// BuildRepOverview narrows the row set to one sales rep's assigned sales.
func BuildRepOverview(rows []FactRow, repID int64, names NameDirectory) EntityOverview {
	scoped := make([]FactRow, 0)
	for _, row := range rows {
		if row.AgentID != nil && *row.AgentID == repID {
			scoped = append(scoped, row)
		}
	}
	key := strconv.FormatInt(repID, 10)
	return buildEntityOverview(key, displayName(names.Reps, repID, "Rep"), scoped, names)
}

func buildEntityOverview(key, name string, scoped []FactRow, names NameDirectory) EntityOverview {
	grand := decimal.Zero
	for _, row := range scoped {
		grand = grand.Add(row.Amount)
	}
	return EntityOverview{
		Key:          key,
		Name:         name,
		Monthly:      MonthlyTotals(scoped),
		Dealers:      AggregateDealers(scoped, names.Dealers, grand),
		Total:        grand.Round(2),
		Transactions: len(scoped),
	}
}
