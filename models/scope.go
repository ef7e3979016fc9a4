package models

import (
	"context"
	"errors"

	"github.com/thurasoft/stockledger_backend/utils"
)

// Scope is the (organization, branch) pair partitioning every ledger row.
type Scope struct {
	OrganizationId string
	BranchId       int
}

// ResolveScope resolves the acting user's effective ledger scope.
// Owners take the branch from the request context; clerks always act in
// their pinned branch regardless of what the request claims.
func ResolveScope(ctx context.Context) (*Scope, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, ErrOrganizationIdRequired
	}

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	user, err := GetUserById(ctx, organizationId, userId)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("user is inactive")
	}

	branchId := user.BranchId
	if user.Role == UserRoleOwner {
		if ctxBranch, ok := utils.GetBranchIdFromContext(ctx); ok && ctxBranch > 0 {
			branchId = ctxBranch
		}
	}
	if branchId <= 0 {
		return nil, ErrBranchIdRequired
	}

	if err := utils.ValidateResourceId[Branch](ctx, organizationId, branchId); err != nil {
		return nil, errors.New("branch not found")
	}

	return &Scope{OrganizationId: organizationId, BranchId: branchId}, nil
}
