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

// Sale is one recorded sale deduction for a ledger day.
type Sale struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index:idx_sale_key;not null" json:"organization_id"`
	BranchId       int             `gorm:"index:idx_sale_key;not null" json:"branch_id"`
	ItemId         int             `gorm:"index:idx_sale_key;not null" json:"item_id"`
	StockDate      time.Time       `gorm:"index:idx_sale_key;not null" json:"stock_date"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Note           string          `gorm:"size:255" json:"note"`
	RecordedBy     int             `gorm:"index" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	ItemId    int             `json:"item_id" validate:"required,gt=0"`
	StockDate time.Time       `json:"stock_date" validate:"required"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      string          `json:"note"`
}

func sumSalesQty(tx *gorm.DB, scope *Scope, itemId int, date time.Time, exceptSaleId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	dbCtx := tx.Model(&Sale{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			scope.OrganizationId, scope.BranchId, itemId, date)
	if exceptSaleId > 0 {
		dbCtx = dbCtx.Where("id != ?", exceptSaleId)
	}
	if err := dbCtx.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (input *NewSale) validate(ctx context.Context, scope *Scope) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.Qty.IsPositive() {
		return errors.New("sale quantity must be positive")
	}
	if err := utils.ValidateResourceId[Item](ctx, scope.OrganizationId, input.ItemId); err != nil {
		return errors.New("item not found")
	}
	return nil
}

// CreateSale records a sale after the availability guard passes. A past-date
// sale re-closes its day and cascades the new balance forward; the cascade
// outcome never fails the sale itself.
func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {

	scope, err := ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, scope); err != nil {
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

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "stockLock", "sale.go", "CreateSale")
	if err != nil {
		return nil, err
	}

	sale := Sale{
		OrganizationId: scope.OrganizationId,
		BranchId:       scope.BranchId,
		ItemId:         input.ItemId,
		StockDate:      date,
		Qty:            input.Qty,
		UnitPrice:      input.UnitPrice,
		Note:           input.Note,
		RecordedBy:     userId,
	}

	db := config.GetDB()
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := guardSaleQty(tx, scope, input.ItemId, date, input.Qty, 0); err != nil {
			return err
		}
		return tx.Create(&sale).Error
	})
	release()
	if txErr != nil {
		return nil, txErr
	}

	runCascadeAfterWrite(ctx, org, date, today, "sale.go", "CreateSale")

	return &sale, nil
}

// UpdateSale edits a recorded sale. The availability guard re-runs with the
// sale's own quantity excluded. When the date or quantity of a historical sale
// changes, the cascade re-runs from the earliest affected day.
func UpdateSale(ctx context.Context, id int, input *NewSale) (*Sale, error) {

	scope, err := ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, scope); err != nil {
		return nil, err
	}
	org, err := GetOrganization(ctx)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	newDate, err := utils.ConvertToDate(input.StockDate, org.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := OrganizationToday(org)
	if err != nil {
		return nil, err
	}
	if newDate.After(today) {
		return nil, ErrFutureDate
	}

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "stockLock", "sale.go", "UpdateSale")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var sale Sale
	var oldDate time.Time
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("organization_id = ? AND branch_id = ? AND id = ?", scope.OrganizationId, scope.BranchId, id).
			First(&sale).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		oldDate, err = utils.ConvertToDate(sale.StockDate, org.Timezone)
		if err != nil {
			return err
		}
		if err := guardSaleQty(tx, scope, input.ItemId, newDate, input.Qty, sale.ID); err != nil {
			return err
		}
		return tx.Model(&sale).Updates(map[string]interface{}{
			"item_id":     input.ItemId,
			"stock_date":  newDate,
			"qty":         input.Qty,
			"unit_price":  input.UnitPrice,
			"note":        input.Note,
			"recorded_by": userId,
		}).Error
	})
	release()
	if txErr != nil {
		return nil, txErr
	}

	// Re-close from the earliest day the edit touched.
	cascadeFrom := newDate
	if oldDate.Before(newDate) {
		cascadeFrom = oldDate
	}
	runCascadeAfterWrite(ctx, org, cascadeFrom, today, "sale.go", "UpdateSale")

	return &sale, nil
}
