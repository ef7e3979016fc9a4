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

// WasteSpoilage is one recorded waste/spoilage deduction for a ledger day.
type WasteSpoilage struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index:idx_waste_key;not null" json:"organization_id"`
	BranchId       int             `gorm:"index:idx_waste_key;not null" json:"branch_id"`
	ItemId         int             `gorm:"index:idx_waste_key;not null" json:"item_id"`
	StockDate      time.Time       `gorm:"index:idx_waste_key;not null" json:"stock_date"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	Reason         string          `gorm:"size:255" json:"reason"`
	RecordedBy     int             `gorm:"index" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWasteSpoilage struct {
	ItemId    int             `json:"item_id" validate:"required,gt=0"`
	StockDate time.Time       `json:"stock_date" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
	Reason    string          `json:"reason"`
}

func sumWasteQty(tx *gorm.DB, scope *Scope, itemId int, date time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&WasteSpoilage{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			scope.OrganizationId, scope.BranchId, itemId, date).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CreateWasteSpoilage records a waste/spoilage deduction. A past-date entry
// re-closes the owning day and cascades forward.
func CreateWasteSpoilage(ctx context.Context, input *NewWasteSpoilage) (*WasteSpoilage, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.Qty.IsPositive() {
		return nil, errors.New("waste quantity must be positive")
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

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "stockLock", "wasteSpoilage.go", "CreateWasteSpoilage")
	if err != nil {
		return nil, err
	}

	row := WasteSpoilage{
		OrganizationId: scope.OrganizationId,
		BranchId:       scope.BranchId,
		ItemId:         input.ItemId,
		StockDate:      date,
		Qty:            input.Qty,
		Reason:         input.Reason,
		RecordedBy:     userId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Create(&row).Error
	release()
	if err != nil {
		return nil, err
	}

	runCascadeAfterWrite(ctx, org, date, today, "wasteSpoilage.go", "CreateWasteSpoilage")

	return &row, nil
}
