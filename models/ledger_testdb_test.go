package models_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newLedgerTestDB wires an in-memory SQLite database into the package globals.
// Each test gets its own named database so parallel packages cannot collide.
func newLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Use(config.NewTenantGuardPlugin()); err != nil {
		t.Fatalf("register tenant guard: %v", err)
	}
	config.SetDB(db)
	models.MigrateTable()
	return db
}

// setupLedgerScope creates an organization with its main branch and an owner,
// and returns a context carrying the full acting scope.
func setupLedgerScope(t *testing.T) (context.Context, *models.Organization) {
	t.Helper()
	newLedgerTestDB(t)

	ctx := context.Background()
	org, err := models.CreateOrganization(ctx, &models.NewOrganization{
		Name:     "Test Shop",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	ctx = utils.SetOrganizationIdInContext(ctx, org.ID.String())

	owner, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Owner",
		Role:     models.UserRoleOwner,
		BranchId: org.PrimaryBranchId,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ctx = utils.SetUserIdInContext(ctx, owner.ID)
	ctx = utils.SetBranchIdInContext(ctx, org.PrimaryBranchId)

	return ctx, org
}

func seedItem(t *testing.T, ctx context.Context, name string) *models.Item {
	t.Helper()
	item, err := models.CreateItem(ctx, &models.NewItem{
		Name:         name,
		Unit:         "pc",
		CostPrice:    decimal.NewFromInt(100),
		SellingPrice: decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func ledgerToday(t *testing.T, org *models.Organization) time.Time {
	t.Helper()
	today, err := models.OrganizationToday(org)
	if err != nil {
		t.Fatalf("OrganizationToday: %v", err)
	}
	return today
}

func fetchClosingQty(t *testing.T, ctx context.Context, org *models.Organization, itemId int, date time.Time) (decimal.Decimal, bool) {
	t.Helper()
	db := config.GetDB()
	var row models.ClosingStock
	err := db.WithContext(ctx).
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			org.ID.String(), org.PrimaryBranchId, itemId, date).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, false
		}
		t.Fatalf("fetch closing row: %v", err)
	}
	return row.Qty, true
}

func fetchOpeningRow(t *testing.T, ctx context.Context, org *models.Organization, itemId int, date time.Time) *models.OpeningStock {
	t.Helper()
	db := config.GetDB()
	var row models.OpeningStock
	err := db.WithContext(ctx).
		Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date = ?",
			org.ID.String(), org.PrimaryBranchId, itemId, date).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		t.Fatalf("fetch opening row: %v", err)
	}
	return &row
}
