package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClosingStock is the derived end-of-day quantity for an item, one row per
// (organization, branch, item, date). The component columns keep the audit
// breakdown the quantity was computed from. Rows are recomputed in place:
// re-closing a day upserts by the natural key.
type ClosingStock struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"uniqueIndex:idx_closing_natural;not null" json:"organization_id"`
	BranchId       int             `gorm:"uniqueIndex:idx_closing_natural;not null" json:"branch_id"`
	ItemId         int             `gorm:"uniqueIndex:idx_closing_natural;not null" json:"item_id"`
	StockDate      time.Time       `gorm:"uniqueIndex:idx_closing_natural;not null" json:"stock_date"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	OpeningQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_qty"`
	RestockQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"restock_qty"`
	SalesQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_qty"`
	WasteQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"waste_qty"`
	RecordedBy     int             `gorm:"index" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func getClosingRow(tx *gorm.DB, scope *Scope, itemId int, date time.Time) (*ClosingStock, error) {
	var row ClosingStock
	err := tx.
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			scope.OrganizationId, scope.BranchId, itemId, date).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// upsertClosingStock recomputes-and-overwrites the derived fields for the
// natural key. Insert-or-update keeps re-closing a day idempotent.
func upsertClosingStock(tx *gorm.DB, row *ClosingStock) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"}, {Name: "branch_id"}, {Name: "item_id"}, {Name: "stock_date"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"qty", "opening_qty", "restock_qty", "sales_qty", "waste_qty", "recorded_by", "updated_at",
		}),
	}).Create(row).Error
}
