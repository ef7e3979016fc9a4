package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/gorm"
)

type Organization struct {
	ID              uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Email           string    `gorm:"size:100" json:"email"`
	Timezone        string    `gorm:"size:50;not null;default:'UTC'" json:"timezone"`
	PrimaryBranchId int       `json:"primary_branch_id"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrganization struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Timezone string `json:"timezone"`
}

func (org *Organization) BeforeCreate(tx *gorm.DB) error {
	_ = tx
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	return nil
}

// CreateOrganization creates the tenant root plus its primary branch.
func CreateOrganization(ctx context.Context, input *NewOrganization) (*Organization, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(input.Timezone); err != nil {
		return nil, errors.New("invalid timezone")
	}

	org := Organization{
		Name:     input.Name,
		Email:    input.Email,
		Timezone: input.Timezone,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		branch := Branch{
			OrganizationId: org.ID.String(),
			Name:           "Main Branch",
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}
		org.PrimaryBranchId = branch.ID
		return tx.Model(&org).Update("primary_branch_id", branch.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &org, nil
}

// GetOrganization loads the ctx's organization.
func GetOrganization(ctx context.Context) (*Organization, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}
	db := config.GetDB()
	var org Organization
	if err := db.WithContext(ctx).Where("id = ?", organizationId).First(&org).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &org, nil
}

// OrganizationToday returns the current calendar date in the organization's timezone.
// Every "is this a past date?" decision in the ledger goes through this.
func OrganizationToday(org *Organization) (time.Time, error) {
	return utils.TodayInZone(org.Timezone)
}
