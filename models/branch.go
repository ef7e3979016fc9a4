package models

import (
	"context"
	"time"

	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
)

type Branch struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;not null" json:"organization_id"`
	Name           string    `gorm:"index;size:100;not null" json:"name"`
	Phone          string    `gorm:"size:20" json:"phone"`
	Address        string    `gorm:"type:text" json:"address"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBranch struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBranch) validate(ctx context.Context, organizationId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Branch](ctx, organizationId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Branch](ctx, organizationId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateBranch(ctx context.Context, input *NewBranch) (*Branch, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}

	if err := input.validate(ctx, organizationId, 0); err != nil {
		return nil, err
	}

	branch := Branch{
		OrganizationId: organizationId,
		Name:           input.Name,
		Phone:          input.Phone,
		Address:        input.Address,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, err
	}

	return &branch, nil
}

func GetBranches(ctx context.Context) ([]*Branch, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}
	return utils.FetchAllModels[Branch](ctx, organizationId)
}
