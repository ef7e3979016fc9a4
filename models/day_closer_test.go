package models_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
)

// closing = max(0, opening + restocking - sales - waste), recorded with its
// component breakdown.
func TestDayCloser_Conservation(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Rice 5kg")

	today := ledgerToday(t, org)
	day := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("CreateOpeningStock: %v", err)
	}
	if _, err := models.CreateRestocking(ctx, &models.NewRestocking{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("CreateRestocking: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := models.CreateWasteSpoilage(ctx, &models.NewWasteSpoilage{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(1),
		Reason:    "spoiled",
	}); err != nil {
		t.Fatalf("CreateWasteSpoilage: %v", err)
	}

	qty, ok := fetchClosingQty(t, ctx, org, item.ID, day)
	if !ok {
		t.Fatalf("expected closing row for %s", day.Format("2006-01-02"))
	}
	if !qty.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("closing qty = %s, want 11", qty.String())
	}
}

// An oversell driven by waste (which has no availability guard) clamps the
// closing at zero instead of going negative.
func TestDayCloser_ClampsNegativeToZero(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Milk 1L")

	today := ledgerToday(t, org)
	day := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("CreateOpeningStock: %v", err)
	}
	if _, err := models.CreateWasteSpoilage(ctx, &models.NewWasteSpoilage{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(10),
		Reason:    "flood damage",
	}); err != nil {
		t.Fatalf("CreateWasteSpoilage: %v", err)
	}

	qty, ok := fetchClosingQty(t, ctx, org, item.ID, day)
	if !ok {
		t.Fatalf("expected closing row")
	}
	if !qty.IsZero() {
		t.Fatalf("closing qty = %s, want 0", qty.String())
	}
}

// With no opening row and no previous closing, the opening resolves to zero
// and the day closes on its movements alone.
func TestDayCloser_DefaultsOpeningToZero(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Sugar 1kg")

	today := ledgerToday(t, org)
	day := today.AddDate(0, 0, -1)

	if _, err := models.CreateRestocking(ctx, &models.NewRestocking{
		ItemId:    item.ID,
		StockDate: day,
		Qty:       decimal.NewFromInt(7),
	}); err != nil {
		t.Fatalf("CreateRestocking: %v", err)
	}

	qty, ok := fetchClosingQty(t, ctx, org, item.ID, day)
	if !ok {
		t.Fatalf("expected closing row")
	}
	if !qty.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("closing qty = %s, want 7", qty.String())
	}
}

// A past-date batch closing save settles the date and cascades the new
// balances into the following days.
func TestSaveClosingEntries_PastDateCascadesForward(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Charcoal Bag")

	today := ledgerToday(t, org)
	d2 := today.AddDate(0, 0, -2)
	d1 := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d2,
		Qty:       decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("CreateOpeningStock: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		ItemId:    item.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(2),
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	// A restocking row recorded outside the usual trigger path leaves d2 and
	// everything after it stale until the next batch save.
	if err := config.GetDB().WithContext(ctx).Create(&models.Restocking{
		OrganizationId: org.ID.String(),
		BranchId:       org.PrimaryBranchId,
		ItemId:         item.ID,
		StockDate:      d2,
		Qty:            decimal.NewFromInt(5),
	}).Error; err != nil {
		t.Fatalf("insert restocking row: %v", err)
	}

	results, err := models.SaveClosingEntries(ctx, d2)
	if err != nil {
		t.Fatalf("SaveClosingEntries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 closing result, got %d", len(results))
	}
	if !results[0].ClosingQty.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("closing d2 = %s, want 15", results[0].ClosingQty.String())
	}
	if qty, _ := fetchClosingQty(t, ctx, org, item.ID, d1); !qty.Equal(decimal.NewFromInt(13)) {
		t.Fatalf("closing d1 = %s, want cascaded 13", qty.String())
	}
}

// Closing today is allowed (end-of-day save) but must never open tomorrow.
func TestRecalculateClosingStock_TodayNeverOpensTomorrow(t *testing.T) {
	ctx, org := setupLedgerScope(t)
	item := seedItem(t, ctx, "Eggs tray")

	today := ledgerToday(t, org)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: today,
		Qty:       decimal.NewFromInt(30),
	}); err != nil {
		t.Fatalf("CreateOpeningStock: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		ItemId:    item.ID,
		StockDate: today,
		Qty:       decimal.NewFromInt(12),
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	results, err := models.RecalculateClosingStock(ctx, today)
	if err != nil {
		t.Fatalf("RecalculateClosingStock: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 closing result, got %d", len(results))
	}
	if !results[0].ClosingQty.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("closing qty = %s, want 18", results[0].ClosingQty.String())
	}

	tomorrow := today.AddDate(0, 0, 1)
	if row := fetchOpeningRow(t, ctx, org, item.ID, tomorrow); row != nil {
		t.Fatalf("tomorrow must not have an opening row while today is still open")
	}
}
