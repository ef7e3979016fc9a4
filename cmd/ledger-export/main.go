package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/models/reports"
	"github.com/thurasoft/stockledger_backend/utils"
)

func main() {
	orgID := flag.String("org-id", "", "Required: organization id (uuid)")
	branchID := flag.Int("branch-id", 0, "Optional: branch id (default = primary branch)")
	month := flag.String("month", "", "Month to export (YYYY-MM; default = current month)")
	userID := flag.Int("user-id", 0, "Optional: acting user id (default = first active owner)")
	out := flag.String("out", "", "Output file (default = ledger-<month>.xlsx)")
	flag.Parse()

	if strings.TrimSpace(*orgID) == "" {
		fmt.Fprintln(os.Stderr, "--org-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	var org models.Organization
	if err := db.Where("id = ?", strings.TrimSpace(*orgID)).First(&org).Error; err != nil {
		fmt.Fprintf(os.Stderr, "organization not found: %v\n", err)
		os.Exit(1)
	}

	monthStart, err := models.OrganizationToday(&org)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve month: %v\n", err)
		os.Exit(1)
	}
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, monthStart.Location())
	if strings.TrimSpace(*month) != "" {
		monthStart, err = time.Parse("2006-01", strings.TrimSpace(*month))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid month: %v\n", err)
			os.Exit(1)
		}
	}
	monthEnd := monthStart.AddDate(0, 1, -1)

	branch := *branchID
	if branch == 0 {
		branch = org.PrimaryBranchId
	}

	actingUser := *userID
	if actingUser == 0 {
		var owner models.User
		if err := db.Where("organization_id = ? AND role = ? AND is_active = ?", org.ID.String(), models.UserRoleOwner, true).
			Order("id ASC").First(&owner).Error; err != nil {
			fmt.Fprintln(os.Stderr, "no active owner for organization; pass --user-id")
			os.Exit(1)
		}
		actingUser = owner.ID
	}

	ctx := utils.SetOrganizationIdInContext(context.Background(), org.ID.String())
	ctx = utils.SetBranchIdInContext(ctx, branch)
	ctx = utils.SetUserIdInContext(ctx, actingUser)

	data, err := reports.GetDailyLedgerReport(ctx, monthStart, monthEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger report: %v\n", err)
		os.Exit(1)
	}

	filename := strings.TrimSpace(*out)
	if filename == "" {
		filename = fmt.Sprintf("ledger-%s.xlsx", monthStart.Format("2006-01"))
	}
	if err := reports.ExportDailyLedgerExcel(data, filename); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d ledger rows to %s\n", len(data), filename)
}
