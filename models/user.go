package models

import (
	"context"
	"errors"
	"time"

	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
)

// User is the acting-identity substrate for scope resolution and audit fields.
// Authentication and session handling live outside this engine.
type User struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;not null" json:"organization_id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Email          string    `gorm:"size:100" json:"email"`
	Role           UserRole  `gorm:"size:1;not null;default:'C'" json:"role"`
	BranchId       int       `gorm:"index" json:"branch_id"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Role     UserRole `json:"role" validate:"required,oneof=O C"`
	BranchId int      `json:"branch_id"`
}

func (input *NewUser) validate(ctx context.Context, organizationId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	// clerks must be pinned to an existing branch
	if input.Role == UserRoleClerk {
		if input.BranchId <= 0 {
			return errors.New("branch is required for clerk role")
		}
		if err := utils.ValidateResourceId[Branch](ctx, organizationId, input.BranchId); err != nil {
			return errors.New("branch not found")
		}
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}

	if err := input.validate(ctx, organizationId); err != nil {
		return nil, err
	}

	user := User{
		OrganizationId: organizationId,
		Name:           input.Name,
		Email:          input.Email,
		Role:           input.Role,
		BranchId:       input.BranchId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func GetUserById(ctx context.Context, organizationId string, id int) (*User, error) {
	return utils.FetchModel[User](ctx, organizationId, id)
}
