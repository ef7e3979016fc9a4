package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OpenResult reports one propagated opening quantity.
type OpenResult struct {
	ItemId    int             `json:"item_id"`
	StockDate time.Time       `json:"stock_date"`
	Qty       decimal.Decimal `json:"qty"`
	// Changed is true when the effective opening quantity differs from what
	// was stored before. Drives cascade continuation.
	Changed bool `json:"changed"`
	// Blocked is true when a manual opening row exists for the key; manual
	// historical corrections are never auto-overwritten.
	Blocked bool `json:"blocked"`
}

// OpenItemDay writes a day's closing quantity as the next day's opening.
// Auto-derived rows are overwritten in place (prices preserved); a missing row
// is created with prices inherited from the item master; manual rows are left
// untouched.
func OpenItemDay(tx *gorm.DB, scope *Scope, itemId int, nextDate time.Time, qty decimal.Decimal, userId int) (*OpenResult, error) {
	existing, err := getOpeningRow(tx, scope, itemId, nextDate)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Source == OpeningSourceManual {
			return &OpenResult{
				ItemId:    itemId,
				StockDate: nextDate,
				Qty:       existing.Qty,
				Changed:   false,
				Blocked:   true,
			}, nil
		}
		if existing.Qty.Equal(qty) {
			return &OpenResult{ItemId: itemId, StockDate: nextDate, Qty: qty, Changed: false}, nil
		}
		if err := tx.Model(existing).Updates(map[string]interface{}{
			"qty":         qty,
			"recorded_by": userId,
		}).Error; err != nil {
			return nil, err
		}
		return &OpenResult{ItemId: itemId, StockDate: nextDate, Qty: qty, Changed: true}, nil
	}

	item, err := getItem(tx, scope.OrganizationId, itemId)
	if err != nil {
		return nil, err
	}
	row := &OpeningStock{
		OrganizationId: scope.OrganizationId,
		BranchId:       scope.BranchId,
		ItemId:         itemId,
		StockDate:      nextDate,
		Qty:            qty,
		CostPrice:      item.CostPrice,
		SellingPrice:   item.SellingPrice,
		Source:         OpeningSourceAuto,
		Note:           "auto-derived from previous day closing",
		RecordedBy:     userId,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, err
	}

	// With no prior row the effective opening was zero.
	return &OpenResult{
		ItemId:    itemId,
		StockDate: nextDate,
		Qty:       qty,
		Changed:   !qty.IsZero(),
	}, nil
}
