package salesagg

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func overviewFixture() []FactRow {
	return []FactRow{
		repRow("2024-01-05", "100", 1, 5),
		repRow("2024-01-20", "50", 2, 5),
		collectionRow("2024-02-01", "200", 1, "Lighting"),
		factRow("2024-02-10", "150", 3),
	}
}

func TestBuildOverviewAssembly(t *testing.T) {
	names := NameDirectory{
		Dealers: map[int64]string{1: "Acme Supply", 2: "Borealis Trading"},
		Reps:    map[int64]string{5: "Dana"},
	}
	overview := BuildOverview(overviewFixture(), names, 90)

	if overview.InvoiceCount != 4 {
		t.Fatalf("invoice count %d", overview.InvoiceCount)
	}
	if !overview.GrandTotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("grand total %s", overview.GrandTotal)
	}
	if len(overview.Monthly) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(overview.Monthly))
	}
	// Jan 150 -> Feb 350 is a 133.3% increase.
	if !overview.GrowthRate.Equal(decimal.RequireFromString("133.3")) {
		t.Fatalf("growth rate %s", overview.GrowthRate)
	}
	if overview.ActiveDealers != 3 {
		t.Fatalf("active dealers %d", overview.ActiveDealers)
	}
	if len(overview.Dealers) != 3 || len(overview.Reps) != 1 || len(overview.Collections) != 2 {
		t.Fatalf("aggregate sizes %d/%d/%d", len(overview.Dealers), len(overview.Reps), len(overview.Collections))
	}
	if overview.Dealers[0].Name != "Acme Supply" {
		t.Fatalf("top dealer %q", overview.Dealers[0].Name)
	}
}

func TestBuildOverviewEmptyInput(t *testing.T) {
	overview := BuildOverview(nil, NameDirectory{}, 90)
	if overview.InvoiceCount != 0 || overview.ActiveDealers != 0 {
		t.Fatalf("empty input must produce zero counts: %+v", overview)
	}
	if !overview.GrandTotal.IsZero() || !overview.GrowthRate.IsZero() {
		t.Fatalf("empty input must produce zero totals: %s %s", overview.GrandTotal, overview.GrowthRate)
	}
	if len(overview.Monthly) != 0 || len(overview.Dealers) != 0 {
		t.Fatal("empty input must produce empty collections")
	}
}

func TestBuildOverviewIdempotent(t *testing.T) {
	rows := overviewFixture()
	names := NameDirectory{Dealers: map[int64]string{1: "Acme Supply"}}

	first, err := json.Marshal(BuildOverview(rows, names, 90))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(BuildOverview(rows, names, 90))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("two runs over the same rows must serialise identically")
	}
}

func TestBuildDealerOverview(t *testing.T) {
	names := NameDirectory{Dealers: map[int64]string{1: "Acme Supply"}}
	view := BuildDealerOverview(overviewFixture(), 1, names)

	if view.Name != "Acme Supply" || view.Transactions != 2 {
		t.Fatalf("unexpected dealer view %+v", view)
	}
	if !view.Total.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("dealer total %s", view.Total)
	}
	if len(view.Monthly) != 2 {
		t.Fatalf("expected 2 months, got %d", len(view.Monthly))
	}
}

func TestBuildRepOverview(t *testing.T) {
	view := BuildRepOverview(overviewFixture(), 5, NameDirectory{})

	if view.Name != "Rep 5" || view.Transactions != 2 {
		t.Fatalf("unexpected rep view %+v", view)
	}
	if !view.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("rep total %s", view.Total)
	}
	if len(view.Dealers) != 2 {
		t.Fatalf("rep view should break down by dealer, got %d", len(view.Dealers))
	}
	// Shares inside the narrowed view are relative to the rep's own total.
	if !view.Dealers[0].RevenueShare.Equal(decimal.RequireFromString("66.7")) {
		t.Fatalf("top dealer share %s", view.Dealers[0].RevenueShare)
	}
}
