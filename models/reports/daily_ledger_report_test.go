package reports_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/models/reports"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupReportScope(t *testing.T) (context.Context, *models.Organization) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
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

	ctx := context.Background()
	org, err := models.CreateOrganization(ctx, &models.NewOrganization{Name: "Report Shop", Timezone: "UTC"})
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

// The report reads the settled component breakdown, one row per item per day.
func TestDailyLedgerReport_ReturnsComponentBreakdown(t *testing.T) {
	ctx, org := setupReportScope(t)

	item, err := models.CreateItem(ctx, &models.NewItem{Name: "Report Item", Unit: "pc"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	today, err := models.OrganizationToday(org)
	if err != nil {
		t.Fatalf("OrganizationToday: %v", err)
	}
	d2 := today.AddDate(0, 0, -2)
	d1 := today.AddDate(0, 0, -1)

	if _, err := models.CreateOpeningStock(ctx, &models.NewOpeningStock{
		ItemId:    item.ID,
		StockDate: d2,
		Qty:       decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("CreateOpeningStock: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		ItemId:    item.ID,
		StockDate: d1,
		Qty:       decimal.NewFromInt(4),
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	rows, err := reports.GetDailyLedgerReport(ctx, d2, d1)
	if err != nil {
		t.Fatalf("GetDailyLedgerReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d report rows, want 2", len(rows))
	}
	if rows[0].ItemName != "Report Item" {
		t.Fatalf("item name = %q", rows[0].ItemName)
	}
	if !rows[0].ClosingQty.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("d2 closing = %s, want 10", rows[0].ClosingQty.String())
	}
	if !rows[1].SalesQty.Equal(decimal.NewFromInt(4)) || !rows[1].ClosingQty.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("d1 sales/closing = %s/%s, want 4/6", rows[1].SalesQty.String(), rows[1].ClosingQty.String())
	}
}
