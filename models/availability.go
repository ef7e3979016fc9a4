package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InsufficientStockError blocks a sale whose quantity exceeds the computed
// availability for its ledger day.
type InsufficientStockError struct {
	ItemId    int
	StockDate time.Time
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d on %s: requested %s, available %s",
		e.ItemId, e.StockDate.Format("2006-01-02"), e.Requested.String(), e.Available.String())
}

// AvailableQuantity computes what can still be sold for (item, date, scope):
//
//	available = opening + restocking - sales(excluding exceptSaleId) - waste
//
// The opening quantity is resolved exactly as the day closer resolves it, so
// validation-time and settlement-time arithmetic can never diverge.
// exceptSaleId = 0 validates a new sale; a positive id validates an edit of
// that sale.
func AvailableQuantity(tx *gorm.DB, scope *Scope, itemId int, date time.Time, exceptSaleId int) (decimal.Decimal, error) {
	opening, err := resolveOpeningQty(tx, scope, itemId, date)
	if err != nil {
		return decimal.Zero, err
	}
	restock, err := sumRestockingQty(tx, scope, itemId, date)
	if err != nil {
		return decimal.Zero, err
	}
	sales, err := sumSalesQty(tx, scope, itemId, date, exceptSaleId)
	if err != nil {
		return decimal.Zero, err
	}
	waste, err := sumWasteQty(tx, scope, itemId, date)
	if err != nil {
		return decimal.Zero, err
	}
	return opening.Add(restock).Sub(sales).Sub(waste), nil
}

// guardSaleQty rejects the candidate quantity when it exceeds availability.
func guardSaleQty(tx *gorm.DB, scope *Scope, itemId int, date time.Time, qty decimal.Decimal, exceptSaleId int) error {
	available, err := AvailableQuantity(tx, scope, itemId, date, exceptSaleId)
	if err != nil {
		return err
	}
	if available.LessThanOrEqual(decimal.Zero) || qty.GreaterThan(available) {
		return &InsufficientStockError{
			ItemId:    itemId,
			StockDate: date,
			Requested: qty,
			Available: available,
		}
	}
	return nil
}
