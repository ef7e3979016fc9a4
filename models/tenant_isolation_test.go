package models_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/utils"
)

// Ledger rows of one organization must be invisible to another, and a
// cross-tenant item reference must fail validation.
func TestTenantIsolation_AcrossOrganizations(t *testing.T) {
	ctxA, orgA := setupLedgerScope(t)
	itemA := seedItem(t, ctxA, "Org A Item")

	// Second tenant on the same database.
	orgB, err := models.CreateOrganization(context.Background(), &models.NewOrganization{
		Name:     "Other Shop",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateOrganization B: %v", err)
	}
	ctxB := utils.SetOrganizationIdInContext(context.Background(), orgB.ID.String())
	ownerB, err := models.CreateUser(ctxB, &models.NewUser{
		Name:     "Owner B",
		Role:     models.UserRoleOwner,
		BranchId: orgB.PrimaryBranchId,
	})
	if err != nil {
		t.Fatalf("CreateUser B: %v", err)
	}
	ctxB = utils.SetUserIdInContext(ctxB, ownerB.ID)
	ctxB = utils.SetBranchIdInContext(ctxB, orgB.PrimaryBranchId)

	today := ledgerToday(t, orgA)
	d1 := today.AddDate(0, 0, -1)
	if _, err := models.CreateOpeningStock(ctxA, &models.NewOpeningStock{
		ItemId:    itemA.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(9),
	}); err != nil {
		t.Fatalf("CreateOpeningStock A: %v", err)
	}

	// Org B cannot record against org A's item.
	if _, err := models.CreateSale(ctxB, &models.NewSale{
		ItemId:    itemA.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(1),
	}); err == nil {
		t.Fatalf("expected cross-tenant item reference to fail")
	}

	// Org A's ledger is untouched by org B's cascade runs.
	if _, err := models.CascadeUpdateFromDate(ctxB, d1); err != nil {
		t.Fatalf("CascadeUpdateFromDate B: %v", err)
	}
	if qty, ok := fetchClosingQty(t, ctxA, orgA, itemA.ID, d1); !ok || !qty.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("org A closing = %s, want 9", qty.String())
	}
}
