// Package dashboard serves the sales-analytics dashboard: it fetches fact
// rows from the invoice store, runs them through the salesagg engine and
// caches the resulting composites.
package dashboard

import (
	"context"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

// RowQuery addresses a slice of the fact table. Start is inclusive, End
// exclusive; both are YYYY-MM-DD. Nil filters mean "all".
type RowQuery struct {
	Start    string
	End      string
	DealerID *int64
	AgentID  *int64
}

// Repository is the row-source contract: raw fact rows for a reporting window
// plus the display-name lookups the engine consumes. Name resolution happens
// here, never inside the aggregation engine.
type Repository interface {
	FactRows(ctx context.Context, q RowQuery) ([]salesagg.RawRow, error)
	LatestTransactionDate(ctx context.Context) (string, error)
	DealerNames(ctx context.Context, ids []int64) (map[int64]string, error)
	RepNames(ctx context.Context, ids []int64) (map[int64]string, error)
}
