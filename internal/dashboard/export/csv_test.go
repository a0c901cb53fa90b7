package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

func TestWriteMonthlyCSV(t *testing.T) {
	totals := []salesagg.MonthlyTotal{
		{Month: "2024-01", Total: decimal.RequireFromString("150"), Rows: 2},
		{Month: "2024-02", Total: decimal.RequireFromString("200.5"), Rows: 1},
	}
	buf := &bytes.Buffer{}
	if err := WriteMonthlyCSV(buf, totals); err != nil {
		t.Fatalf("monthly csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][1] != "150.00" || records[2][1] != "200.50" {
		t.Fatalf("currency must carry two decimals: %v %v", records[1], records[2])
	}
}

func TestWriteDealersCSV(t *testing.T) {
	dealers := []salesagg.DealerAggregate{
		{
			Name:           "Acme Supply",
			Revenue:        decimal.RequireFromString("300"),
			Transactions:   2,
			RevenueShare:   decimal.RequireFromString("30"),
			LatestMonth:    "2024-02",
			LatestMonthAvg: decimal.RequireFromString("150"),
		},
	}
	buf := &bytes.Buffer{}
	if err := WriteDealersCSV(buf, dealers); err != nil {
		t.Fatalf("dealers csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(records))
	}
	if records[1][3] != "30.0" {
		t.Fatalf("share must carry one decimal, got %q", records[1][3])
	}
}
