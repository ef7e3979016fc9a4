package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/gorm"
)

// Restocking is one recorded stock addition. Rows are independent facts and
// accumulate per (organization, branch, item, date); they are never merged or
// overwritten by the engine.
type Restocking struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index:idx_restocking_key;not null" json:"organization_id"`
	BranchId       int             `gorm:"index:idx_restocking_key;not null" json:"branch_id"`
	ItemId         int             `gorm:"index:idx_restocking_key;not null" json:"item_id"`
	StockDate      time.Time       `gorm:"index:idx_restocking_key;not null" json:"stock_date"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	Supplier       string          `gorm:"size:100" json:"supplier"`
	Note           string          `gorm:"size:255" json:"note"`
	RecordedBy     int             `gorm:"index" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRestocking struct {
	ItemId    int             `json:"item_id" validate:"required,gt=0"`
	StockDate time.Time       `json:"stock_date" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Supplier  string          `json:"supplier"`
	Note      string          `json:"note"`
}

func sumRestockingQty(tx *gorm.DB, scope *Scope, itemId int, date time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&Restocking{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			scope.OrganizationId, scope.BranchId, itemId, date).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CreateRestocking records a stock addition. A past-date addition re-closes
// the owning day and cascades the new closing balance forward.
func CreateRestocking(ctx context.Context, input *NewRestocking) (*Restocking, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.Qty.IsPositive() {
		return nil, errors.New("restocking quantity must be positive")
	}

	scope, err := ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	org, err := GetOrganization(ctx)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	date, err := utils.ConvertToDate(input.StockDate, org.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := OrganizationToday(org)
	if err != nil {
		return nil, err
	}
	if date.After(today) {
		return nil, ErrFutureDate
	}
	if err := utils.ValidateResourceId[Item](ctx, scope.OrganizationId, input.ItemId); err != nil {
		return nil, errors.New("item not found")
	}

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "stockLock", "restocking.go", "CreateRestocking")
	if err != nil {
		return nil, err
	}

	row := Restocking{
		OrganizationId: scope.OrganizationId,
		BranchId:       scope.BranchId,
		ItemId:         input.ItemId,
		StockDate:      date,
		Qty:            input.Qty,
		UnitCost:       input.UnitCost,
		Supplier:       input.Supplier,
		Note:           input.Note,
		RecordedBy:     userId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Create(&row).Error
	release()
	if err != nil {
		return nil, err
	}

	runCascadeAfterWrite(ctx, org, date, today, "restocking.go", "CreateRestocking")

	return &row, nil
}
