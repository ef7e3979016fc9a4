package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/thurasoft/stockledger_backend/config"
	"gorm.io/gorm"
)

// ClosingResult reports one settled ledger day.
type ClosingResult struct {
	ItemId     int             `json:"item_id"`
	StockDate  time.Time       `json:"stock_date"`
	OpeningQty decimal.Decimal `json:"opening_qty"`
	RestockQty decimal.Decimal `json:"restock_qty"`
	SalesQty   decimal.Decimal `json:"sales_qty"`
	WasteQty   decimal.Decimal `json:"waste_qty"`
	ClosingQty decimal.Decimal `json:"closing_qty"`
	// Changed is true when the persisted closing quantity differs from what
	// was stored before (or no closing row existed). Drives cascade
	// continuation.
	Changed bool `json:"changed"`
}

// resolveOpeningQty resolves the opening quantity for a ledger day:
// same-day opening row, else the previous day's closing row, else zero.
// The legacy Item.CurrentQty column is never consulted.
func resolveOpeningQty(tx *gorm.DB, scope *Scope, itemId int, date time.Time) (decimal.Decimal, error) {
	opening, err := getOpeningRow(tx, scope, itemId, date)
	if err != nil {
		return decimal.Zero, err
	}
	if opening != nil {
		return opening.Qty, nil
	}

	prevClosing, err := getClosingRow(tx, scope, itemId, date.AddDate(0, 0, -1))
	if err != nil {
		return decimal.Zero, err
	}
	if prevClosing != nil {
		return prevClosing.Qty, nil
	}

	return decimal.Zero, nil
}

// CloseItemDay derives and persists the closing quantity for one
// (item, date, scope) ledger day:
//
//	closing = max(0, opening + restocking - sales - waste)
//
// The upsert records the component breakdown and the acting user. Callers
// guarantee date is not after the organization's today.
func CloseItemDay(tx *gorm.DB, scope *Scope, itemId int, date time.Time, userId int) (*ClosingResult, error) {
	opening, err := resolveOpeningQty(tx, scope, itemId, date)
	if err != nil {
		return nil, err
	}
	restock, err := sumRestockingQty(tx, scope, itemId, date)
	if err != nil {
		return nil, err
	}
	sales, err := sumSalesQty(tx, scope, itemId, date, 0)
	if err != nil {
		return nil, err
	}
	waste, err := sumWasteQty(tx, scope, itemId, date)
	if err != nil {
		return nil, err
	}

	closing := opening.Add(restock).Sub(sales).Sub(waste)
	if closing.IsNegative() {
		// The conservation law clamps at zero; the absorbed shortfall is
		// logged so data-entry mistakes stay visible.
		config.GetLogger().WithFields(logrus.Fields{
			"organization_id": scope.OrganizationId,
			"branch_id":       scope.BranchId,
			"item_id":         itemId,
			"stock_date":      date.Format("2006-01-02"),
			"shortfall":       closing.Neg().String(),
		}).Warn("closing stock clamped to zero on oversell")
		closing = decimal.Zero
	}

	existing, err := getClosingRow(tx, scope, itemId, date)
	if err != nil {
		return nil, err
	}
	changed := existing == nil || !existing.Qty.Equal(closing)

	row := &ClosingStock{
		OrganizationId: scope.OrganizationId,
		BranchId:       scope.BranchId,
		ItemId:         itemId,
		StockDate:      date,
		Qty:            closing,
		OpeningQty:     opening,
		RestockQty:     restock,
		SalesQty:       sales,
		WasteQty:       waste,
		RecordedBy:     userId,
	}
	if err := upsertClosingStock(tx, row); err != nil {
		return nil, err
	}

	return &ClosingResult{
		ItemId:     itemId,
		StockDate:  date,
		OpeningQty: opening,
		RestockQty: restock,
		SalesQty:   sales,
		WasteQty:   waste,
		ClosingQty: closing,
		Changed:    changed,
	}, nil
}
