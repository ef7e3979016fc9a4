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

// OpeningStock is one ledger day's opening quantity for an item, keyed by
// (organization, branch, item, date). Source marks whether the row was
// hand-entered or derived from the previous day's closing.
type OpeningStock struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"uniqueIndex:idx_opening_natural;not null" json:"organization_id"`
	BranchId       int             `gorm:"uniqueIndex:idx_opening_natural;not null" json:"branch_id"`
	ItemId         int             `gorm:"uniqueIndex:idx_opening_natural;not null" json:"item_id"`
	StockDate      time.Time       `gorm:"uniqueIndex:idx_opening_natural;not null" json:"stock_date"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	Source         OpeningSource   `gorm:"size:1;not null;default:'A'" json:"source"`
	Note           string          `gorm:"size:255" json:"note"`
	RecordedBy     int             `gorm:"index" json:"recorded_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOpeningStock struct {
	ItemId       int             `json:"item_id" validate:"required,gt=0"`
	StockDate    time.Time       `json:"stock_date" validate:"required"`
	Qty          decimal.Decimal `json:"qty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Note         string          `json:"note"`
}

func getOpeningRow(tx *gorm.DB, scope *Scope, itemId int, date time.Time) (*OpeningStock, error) {
	var row OpeningStock
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

// CreateOpeningStock records a manual opening entry for a historical (or
// current) date. Manual rows take precedence: an existing row for the key is
// overwritten and re-marked as manual, and the cascade will never auto-replace
// it afterwards. A past-date entry re-closes that day and cascades forward.
func CreateOpeningStock(ctx context.Context, input *NewOpeningStock) (*OpeningStock, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
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
	if input.Qty.IsNegative() {
		return nil, errors.New("opening quantity cannot be negative")
	}

	db := config.GetDB()
	if err := utils.ValidateResourceId[Item](ctx, scope.OrganizationId, input.ItemId); err != nil {
		return nil, errors.New("item not found")
	}

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "stockLock", "openingStock.go", "CreateOpeningStock")
	if err != nil {
		return nil, err
	}

	var row *OpeningStock
	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := getOpeningRow(tx, scope, input.ItemId, date)
		if err != nil {
			return err
		}
		if existing != nil {
			updates := map[string]interface{}{
				"qty":         input.Qty,
				"source":      OpeningSourceManual,
				"note":        input.Note,
				"recorded_by": userId,
			}
			if !input.CostPrice.IsZero() {
				updates["cost_price"] = input.CostPrice
			}
			if !input.SellingPrice.IsZero() {
				updates["selling_price"] = input.SellingPrice
			}
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return err
			}
			row, err = getOpeningRow(tx, scope, input.ItemId, date)
			return err
		}

		item, err := getItem(tx, scope.OrganizationId, input.ItemId)
		if err != nil {
			return err
		}
		costPrice := input.CostPrice
		if costPrice.IsZero() {
			costPrice = item.CostPrice
		}
		sellingPrice := input.SellingPrice
		if sellingPrice.IsZero() {
			sellingPrice = item.SellingPrice
		}
		row = &OpeningStock{
			OrganizationId: scope.OrganizationId,
			BranchId:       scope.BranchId,
			ItemId:         input.ItemId,
			StockDate:      date,
			Qty:            input.Qty,
			CostPrice:      costPrice,
			SellingPrice:   sellingPrice,
			Source:         OpeningSourceManual,
			Note:           input.Note,
			RecordedBy:     userId,
		}
		return tx.Create(row).Error
	})
	release()
	if txErr != nil {
		return nil, txErr
	}

	runCascadeAfterWrite(ctx, org, date, today, "openingStock.go", "CreateOpeningStock")

	return row, nil
}
