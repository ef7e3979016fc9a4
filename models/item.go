package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/gorm"
)

type Item struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;not null" json:"organization_id"`
	Name           string          `gorm:"index;size:100;not null" json:"name"`
	Sku            string          `gorm:"size:100" json:"sku"`
	Unit           string          `gorm:"size:20" json:"unit"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	// CurrentQty is the legacy global quantity column. The ledger engine never
	// reads or writes it; it remains only as a migration source for
	// opening-stock backfill (see cmd/opening-stock-backfill).
	CurrentQty decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_qty"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name         string          `json:"name" validate:"required"`
	Sku          string          `json:"sku"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

func (input *NewItem) validate(ctx context.Context, organizationId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Item](ctx, organizationId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Item](ctx, organizationId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}

	if err := input.validate(ctx, organizationId, 0); err != nil {
		return nil, err
	}

	item := Item{
		OrganizationId: organizationId,
		Name:           input.Name,
		Sku:            input.Sku,
		Unit:           input.Unit,
		CostPrice:      input.CostPrice,
		SellingPrice:   input.SellingPrice,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

// ListActiveItems returns every active item of the organization.
// Items are organization-level; branches share one catalog.
func ListActiveItems(tx *gorm.DB, organizationId string) ([]*Item, error) {
	var items []*Item
	if err := tx.
		Where("organization_id = ? AND is_active = ?", organizationId, true).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func getItem(tx *gorm.DB, organizationId string, id int) (*Item, error) {
	var item Item
	if err := tx.Where("organization_id = ? AND id = ?", organizationId, id).First(&item).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}
