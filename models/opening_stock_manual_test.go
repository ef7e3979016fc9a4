package models_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/models"
)

// A manual opening row is a deliberate correction: the cascade re-closes its
// day from it but never overwrites the row itself.
func TestManualOpening_SurvivesCascade(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Tea Box")

	today := ledgerToday(t, org)
	d2 := today.AddDate(0, 0, -2)
	d1 := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d2,
		Qty:       decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("CreateOpeningStock d2: %v", err)
	}
	// Stock count correction on d1.
	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(3),
		Note:      "physical count",
	}); err != nil {
		t.Fatalf("CreateOpeningStock d1: %v", err)
	}

	// Backdated restock moves d2's closing but must not touch the manual row.
	if _, err := models.CreateRestocking(ctx, &models.NewRestocking{
		ItemId:    item.ID,
		StockDate: d2,
		Qty:       decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("CreateRestocking: %v", err)
	}

	if qty, _ := fetchClosingQty(t, ctx, org, item.ID, d2); !qty.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("closing d2 = %s, want 15", qty.String())
	}

	opening := fetchOpeningRow(t, ctx, org, item.ID, d1)
	if opening == nil {
		t.Fatalf("manual opening row missing")
	}
	if opening.Source != models.OpeningSourceManual {
		t.Fatalf("opening source = %s, want manual", opening.Source)
	}
	if !opening.Qty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("manual opening qty = %s, want 3", opening.Qty.String())
	}

	// d1 still closes from the manual opening, not from d2's new closing.
	if qty, _ := fetchClosingQty(t, ctx, org, item.ID, d1); !qty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("closing d1 = %s, want 3", qty.String())
	}
}

func TestOpeningStock_RejectsFutureDate(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Future Item")

	tomorrow := ledgerToday(t, org).AddDate(0, 0, 1)
	_, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: tomorrow,
		Qty:       decimal.NewFromInt(1),
	})
	if !errors.Is(err, models.ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}
}

func TestOpeningStock_RejectsNegativeQty(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Negative Item")

	today := ledgerToday(t, org)
	_, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: today,
		Qty:       decimal.NewFromInt(-1),
	})
	if err == nil {
		t.Fatalf("expected error for negative opening qty")
	}
}

// Re-entering an opening for the same key overwrites in place and re-marks the
// row manual; there is never a second row for the same natural key.
func TestOpeningStock_OverwritesSameKey(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Rewrite Item")

	today := ledgerToday(t, org)
	d1 := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(8),
	}); err != nil {
		t.Fatalf("first CreateOpeningStock: %v", err)
	}
	row, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(12),
	})
	if err != nil {
		t.Fatalf("second CreateOpeningStock: %v", err)
	}
	if !row.Qty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("overwritten qty = %s, want 12", row.Qty.String())
	}

	if qty, _ := fetchClosingQty(t, ctx, org, item.ID, d1); !qty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("closing d1 = %s, want 12", qty.String())
	}
}
