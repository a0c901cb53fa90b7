package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

type mockRepo struct {
	rows        []salesagg.RawRow
	rowsErr     error
	rowCalls    int
	lastQuery   RowQuery
	latest      string
	latestErr   error
	latestCalls int
	dealerNames map[int64]string
	repNames    map[int64]string
}

func (m *mockRepo) FactRows(ctx context.Context, q RowQuery) ([]salesagg.RawRow, error) {
	m.rowCalls++
	m.lastQuery = q
	return m.rows, m.rowsErr
}

func (m *mockRepo) LatestTransactionDate(ctx context.Context) (string, error) {
	m.latestCalls++
	return m.latest, m.latestErr
}

func (m *mockRepo) DealerNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return m.dealerNames, nil
}

func (m *mockRepo) RepNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return m.repNames, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, nil, 90)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func agentID(id int64) *int64 {
	return &id
}

func sampleRows() []salesagg.RawRow {
	return []salesagg.RawRow{
		{TransactionDate: "2024-01-05", Amount: 100.0, DealerID: 1, AgentID: agentID(5)},
		{TransactionDate: "2024-01-20", Amount: "50", DealerID: 2, AgentID: agentID(5)},
		{TransactionDate: "2024-02-01", Amount: 200.0, DealerID: 1, Collection: "Lighting"},
	}
}

func TestGetOverviewCaches(t *testing.T) {
	repo := &mockRepo{
		rows:        sampleRows(),
		latest:      "2024-02-01",
		dealerNames: map[int64]string{1: "Acme Supply", 2: "Borealis Trading"},
		repNames:    map[int64]string{5: "Dana"},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	filter := Filter{Start: "2024-01-01", End: "2025-01-01"}
	overview, err := svc.GetOverview(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.InvoiceCount != 3 {
		t.Fatalf("expected 3 invoices, got %d", overview.InvoiceCount)
	}
	if !overview.GrandTotal.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("grand total %s", overview.GrandTotal)
	}
	if repo.rowCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.rowCalls)
	}

	// Second call should hit cache.
	overview, err = svc.GetOverview(ctx, filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rowCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.rowCalls)
	}
	if overview.Dealers[0].Name != "Acme Supply" {
		t.Fatalf("cache round trip lost names: %q", overview.Dealers[0].Name)
	}

	// Bumping the cache should trigger reload.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if _, err := svc.GetOverview(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rowCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.rowCalls)
	}
}

func TestGetOverviewResolvesWindowFromData(t *testing.T) {
	repo := &mockRepo{rows: sampleRows(), latest: "2024-08-15"}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	overview, err := svc.GetOverview(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.Start != "2024-01-01" || overview.End != "2025-01-01" {
		t.Fatalf("window [%s, %s), want data-anchored 2024", overview.Start, overview.End)
	}
	if repo.lastQuery.Start != "2024-01-01" || repo.lastQuery.End != "2025-01-01" {
		t.Fatalf("row query used wrong window %+v", repo.lastQuery)
	}
	if repo.latestCalls != 1 {
		t.Fatalf("expected a single latest-date lookup, got %d", repo.latestCalls)
	}
}

func TestGetOverviewLookupFailureFallsBackToNow(t *testing.T) {
	repo := &mockRepo{rows: nil, latestErr: errors.New("row source down")}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })

	overview, err := svc.GetOverview(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("lookup failure must not fail the request: %v", err)
	}
	if overview.Start != "2025-01-01" || overview.End != "2026-01-01" {
		t.Fatalf("window [%s, %s), want current-year fallback", overview.Start, overview.End)
	}
	if overview.InvoiceCount != 0 || overview.ActiveDealers != 0 {
		t.Fatalf("empty source must yield zero counts: %+v", overview)
	}
}

func TestGetOverviewSurfacesCoercedAmounts(t *testing.T) {
	rows := sampleRows()
	rows = append(rows, salesagg.RawRow{TransactionDate: "2024-02-02", Amount: "garbage", DealerID: 3})
	repo := &mockRepo{rows: rows, latest: "2024-02-02"}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	overview, err := svc.GetOverview(context.Background(), Filter{Start: "2024-01-01", End: "2025-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.CoercedAmounts != 1 {
		t.Fatalf("expected 1 coerced amount surfaced, got %d", overview.CoercedAmounts)
	}
	if overview.InvoiceCount != 4 {
		t.Fatalf("coerced row must still count, got %d invoices", overview.InvoiceCount)
	}
}

func TestGetDealerOverviewScopesQuery(t *testing.T) {
	repo := &mockRepo{
		rows: []salesagg.RawRow{
			{TransactionDate: "2024-01-05", Amount: 100.0, DealerID: 1},
			{TransactionDate: "2024-02-01", Amount: 200.0, DealerID: 1},
		},
		latest:      "2024-02-01",
		dealerNames: map[int64]string{1: "Acme Supply"},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	view, err := svc.GetDealerOverview(context.Background(), 1, Filter{Start: "2024-01-01", End: "2025-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQuery.DealerID == nil || *repo.lastQuery.DealerID != 1 {
		t.Fatalf("row query not scoped to dealer: %+v", repo.lastQuery)
	}
	if view.Name != "Acme Supply" || view.Transactions != 2 {
		t.Fatalf("unexpected dealer view %+v", view)
	}
	if !view.Total.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("dealer total %s", view.Total)
	}
}

func TestGetRepOverviewScopesQuery(t *testing.T) {
	repo := &mockRepo{
		rows: []salesagg.RawRow{
			{TransactionDate: "2024-01-05", Amount: 100.0, DealerID: 1, AgentID: agentID(5)},
			{TransactionDate: "2024-01-20", Amount: 50.0, DealerID: 2, AgentID: agentID(5)},
		},
		latest:   "2024-01-20",
		repNames: map[int64]string{5: "Dana"},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	view, err := svc.GetRepOverview(context.Background(), 5, Filter{Start: "2024-01-01", End: "2025-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQuery.AgentID == nil || *repo.lastQuery.AgentID != 5 {
		t.Fatalf("row query not scoped to rep: %+v", repo.lastQuery)
	}
	if view.Name != "Dana" || len(view.Dealers) != 2 {
		t.Fatalf("unexpected rep view %+v", view)
	}
}

func TestGetOverviewPropagatesRowError(t *testing.T) {
	repo := &mockRepo{rowsErr: errors.New("boom"), latest: "2024-01-01"}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	if _, err := svc.GetOverview(context.Background(), Filter{Start: "2024-01-01", End: "2025-01-01"}); err == nil {
		t.Fatal("expected row-source error to propagate")
	}
}
