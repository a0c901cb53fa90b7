package salesagg

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// UncategorizedKey is the sentinel bucket for rows without a collection tag.
const UncategorizedKey = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// DimensionAggregate is one member of a rollup axis (sales rep or product
// collection). Dealer rollups use DealerAggregate, which carries two extra
// fields.
type DimensionAggregate struct {
	Key             string          `json:"key"`
	Name            string          `json:"name"`
	Revenue         decimal.Decimal `json:"revenue"`
	Transactions    int             `json:"transactions"`
	RevenueShare    decimal.Decimal `json:"revenue_share_pct"`
	DistinctDealers int             `json:"distinct_dealers"`
}

// DealerAggregate extends the shared aggregate shape with the dealer's most
// recent month of activity and the average order value in that month.
type DealerAggregate struct {
	Key            string          `json:"key"`
	Name           string          `json:"name"`
	Revenue        decimal.Decimal `json:"revenue"`
	Transactions   int             `json:"transactions"`
	RevenueShare   decimal.Decimal `json:"revenue_share_pct"`
	LatestMonth    string          `json:"latest_month,omitempty"`
	LatestMonthAvg decimal.Decimal `json:"latest_month_avg"`
}

type monthSlot struct {
	revenue decimal.Decimal
	rows    int
}

type accumulator struct {
	revenue decimal.Decimal
	rows    int
	dealers map[int64]struct{}
	months  map[string]*monthSlot
}

// aggregate is the shared group-and-reduce pass every axis uses: one
// iteration into a key->accumulator map, then keys in descending revenue
// order. keyFn returning false excludes the row from the axis. The sort is
// stable, so revenue ties keep first-seen row order.
func aggregate(rows []FactRow, keyFn func(FactRow) (string, bool), trackMonths bool) ([]string, map[string]*accumulator) {
	order := make([]string, 0)
	groups := make(map[string]*accumulator)
	for _, row := range rows {
		key, ok := keyFn(row)
		if !ok {
			continue
		}
		acc := groups[key]
		if acc == nil {
			acc = &accumulator{dealers: make(map[int64]struct{})}
			if trackMonths {
				acc.months = make(map[string]*monthSlot)
			}
			groups[key] = acc
			order = append(order, key)
		}
		acc.revenue = acc.revenue.Add(row.Amount)
		acc.rows++
		acc.dealers[row.DealerID] = struct{}{}
		if trackMonths {
			month := row.Date[:7]
			slot := acc.months[month]
			if slot == nil {
				slot = &monthSlot{}
				acc.months[month] = slot
			}
			slot.revenue = slot.revenue.Add(row.Amount)
			slot.rows++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]].revenue.GreaterThan(groups[order[j]].revenue)
	})
	return order, groups
}

// share expresses revenue as a percentage of grandTotal with one decimal
// place. A zero grand total yields zero, never a division error.
func share(revenue, grandTotal decimal.Decimal) decimal.Decimal {
	if grandTotal.IsZero() {
		return decimal.Zero
	}
	return revenue.Div(grandTotal).Mul(hundred).Round(1)
}

func displayName(names map[int64]string, id int64, dimension string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s %d", dimension, id)
}

// AggregateDealers rolls up revenue per purchasing dealer. grandTotal is
// supplied by the caller (normally the unrounded sum over the whole row set)
// so shares reconcile across axes.
func AggregateDealers(rows []FactRow, names map[int64]string, grandTotal decimal.Decimal) []DealerAggregate {
	order, groups := aggregate(rows, func(row FactRow) (string, bool) {
		return strconv.FormatInt(row.DealerID, 10), true
	}, true)

	out := make([]DealerAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		id, _ := strconv.ParseInt(key, 10, 64)
		agg := DealerAggregate{
			Key:          key,
			Name:         displayName(names, id, "Dealer"),
			Revenue:      acc.revenue.Round(2),
			Transactions: acc.rows,
			RevenueShare: share(acc.revenue, grandTotal),
		}
		if month, slot := latestMonth(acc.months); slot != nil {
			agg.LatestMonth = month
			agg.LatestMonthAvg = slot.revenue.Div(decimal.NewFromInt(int64(slot.rows))).Round(2)
		}
		out = append(out, agg)
	}
	return out
}

func latestMonth(months map[string]*monthSlot) (string, *monthSlot) {
	latest := ""
	for month := range months {
		if month > latest {
			latest = month
		}
	}
	if latest == "" {
		return "", nil
	}
	return latest, months[latest]
}

// AggregateReps rolls up revenue per assigned sales rep. Rows without a rep
// are excluded from this axis entirely: unassigned sales are invisible to the
// rep leaderboard by design, not by omission.
func AggregateReps(rows []FactRow, names map[int64]string, grandTotal decimal.Decimal) []DimensionAggregate {
	order, groups := aggregate(rows, func(row FactRow) (string, bool) {
		if row.AgentID == nil {
			return "", false
		}
		return strconv.FormatInt(*row.AgentID, 10), true
	}, false)

	out := make([]DimensionAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		id, _ := strconv.ParseInt(key, 10, 64)
		out = append(out, DimensionAggregate{
			Key:             key,
			Name:            displayName(names, id, "Rep"),
			Revenue:         acc.revenue.Round(2),
			Transactions:    acc.rows,
			RevenueShare:    share(acc.revenue, grandTotal),
			DistinctDealers: len(acc.dealers),
		})
	}
	return out
}

// AggregateCollections rolls up revenue per product collection. Untagged rows
// collapse into the single Uncategorized bucket rather than being dropped.
func AggregateCollections(rows []FactRow, grandTotal decimal.Decimal) []DimensionAggregate {
	order, groups := aggregate(rows, func(row FactRow) (string, bool) {
		if row.Collection == "" {
			return UncategorizedKey, true
		}
		return row.Collection, true
	}, false)

	out := make([]DimensionAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		out = append(out, DimensionAggregate{
			Key:             key,
			Name:            key,
			Revenue:         acc.revenue.Round(2),
			Transactions:    acc.rows,
			RevenueShare:    share(acc.revenue, grandTotal),
			DistinctDealers: len(acc.dealers),
		})
	}
	return out
}
