package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs the postgres-backed row source.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) FactRows(ctx context.Context, q RowQuery) ([]salesagg.RawRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT invoice_date, amount, dealer_id, agent_id, invoice_no, collection
	FROM invoice_lines
	WHERE invoice_date >= $1 AND invoice_date < $2`)
	args := []interface{}{q.Start, q.End}
	if q.DealerID != nil {
		args = append(args, *q.DealerID)
		sb.WriteString(" AND dealer_id = $" + strconv.Itoa(len(args)))
	}
	if q.AgentID != nil {
		args = append(args, *q.AgentID)
		sb.WriteString(" AND agent_id = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY invoice_date, id")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard.FactRows: %w", err)
	}
	defer rows.Close()

	raws := make([]salesagg.RawRow, 0)
	for rows.Next() {
		var (
			date       time.Time
			amount     decimal.Decimal
			dealerID   int64
			agentID    *int64
			invoiceNo  *string
			collection *string
		)
		if err := rows.Scan(&date, &amount, &dealerID, &agentID, &invoiceNo, &collection); err != nil {
			return nil, fmt.Errorf("dashboard.FactRows scan: %w", err)
		}
		raw := salesagg.RawRow{
			TransactionDate: date.Format("2006-01-02"),
			Amount:          amount,
			DealerID:        dealerID,
			AgentID:         agentID,
		}
		if invoiceNo != nil {
			raw.Reference = *invoiceNo
		}
		if collection != nil {
			raw.Collection = *collection
		}
		raws = append(raws, raw)
	}
	return raws, rows.Err()
}

// LatestTransactionDate reports the most recent invoice date in the fact
// table, or an empty string when the table has no data.
func (r *repository) LatestTransactionDate(ctx context.Context) (string, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx, `SELECT MAX(invoice_date) FROM invoice_lines`).Scan(&latest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("dashboard.LatestTransactionDate: %w", err)
	}
	if latest == nil {
		return "", nil
	}
	return latest.Format("2006-01-02"), nil
}

func (r *repository) DealerNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return r.nameMap(ctx, `SELECT id, name FROM dealers WHERE id = ANY($1)`, ids)
}

func (r *repository) RepNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return r.nameMap(ctx, `SELECT id, name FROM sales_reps WHERE id = ANY($1)`, ids)
}

func (r *repository) nameMap(ctx context.Context, query string, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("dashboard.nameMap: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("dashboard.nameMap scan: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
