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
	"github.com/thurasoft/stockledger_backend/utils"
)

func main() {
	orgID := flag.String("org-id", "", "Organization id (uuid); default = all organizations")
	branchID := flag.Int("branch-id", 0, "Optional: branch id (default = every branch of the organization)")
	fromDateStr := flag.String("from", "", "Optional: rebuild from date (YYYY-MM-DD). Defaults to earliest ledger date for the scope.")
	userID := flag.Int("user-id", 0, "Optional: acting user id (default = first active owner of the organization)")
	dryRun := flag.Bool("dry-run", false, "Print scopes without rebuilding")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing scopes and continue rebuilding others")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	var orgIds []string
	if strings.TrimSpace(*orgID) != "" {
		orgIds = []string{strings.TrimSpace(*orgID)}
	} else {
		if err := db.Model(&models.Organization{}).Where("is_active = ?", true).Pluck("id", &orgIds).Error; err != nil {
			fmt.Fprintf(os.Stderr, "list organizations: %v\n", err)
			os.Exit(1)
		}
	}

	for _, oid := range orgIds {
		var branchIds []int
		if *branchID > 0 {
			branchIds = []int{*branchID}
		} else {
			if err := db.Model(&models.Branch{}).Where("organization_id = ? AND is_active = ?", oid, true).Pluck("id", &branchIds).Error; err != nil {
				fmt.Fprintf(os.Stderr, "list branches for %s: %v\n", oid, err)
				os.Exit(1)
			}
		}

		actingUser := *userID
		if actingUser == 0 {
			var owner models.User
			if err := db.Where("organization_id = ? AND role = ? AND is_active = ?", oid, models.UserRoleOwner, true).
				Order("id ASC").First(&owner).Error; err != nil {
				fmt.Fprintf(os.Stderr, "no active owner for %s, skipping\n", oid)
				continue
			}
			actingUser = owner.ID
		}

		for _, bid := range branchIds {
			start, err := earliestLedgerDate(oid, bid)
			if strings.TrimSpace(*fromDateStr) != "" {
				start, err = time.Parse("2006-01-02", strings.TrimSpace(*fromDateStr))
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "resolve start date org=%s branch=%d: %v\n", oid, bid, err)
				os.Exit(1)
			}
			if start.IsZero() {
				fmt.Printf("org=%s branch=%d: no ledger rows, nothing to rebuild\n", oid, bid)
				continue
			}

			if *dryRun {
				fmt.Printf("dry-run: would rebuild org=%s branch=%d from=%s\n", oid, bid, start.Format("2006-01-02"))
				continue
			}

			ctx := utils.SetOrganizationIdInContext(context.Background(), oid)
			ctx = utils.SetBranchIdInContext(ctx, bid)
			ctx = utils.SetUserIdInContext(ctx, actingUser)

			fmt.Printf("Rebuilding org=%s branch=%d from=%s\n", oid, bid, start.Format("2006-01-02"))
			result, err := models.CascadeUpdateFromDate(ctx, start)
			if err != nil {
				if *continueOnError {
					fmt.Fprintf(os.Stderr, "rebuild failed (skipping): %v\n", err)
					continue
				}
				fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  updates=%d truncated=%v errors=%d\n", result.Updates, result.Truncated, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  item=%d date=%s: %s\n", e.ItemId, e.StockDate.Format("2006-01-02"), e.Message)
			}
		}
	}

	fmt.Println("ledger rebuild complete")
}

// earliestLedgerDate finds the first recorded ledger date for the scope across
// every ledger table. Zero time means the scope has no ledger rows at all.
func earliestLedgerDate(organizationId string, branchId int) (time.Time, error) {
	db := config.GetDB()
	var row struct {
		D *time.Time
	}
	err := db.Raw(`
		SELECT MIN(d) AS d FROM (
			SELECT MIN(stock_date) AS d FROM opening_stocks WHERE organization_id = ? AND branch_id = ?
			UNION ALL
			SELECT MIN(stock_date) AS d FROM closing_stocks WHERE organization_id = ? AND branch_id = ?
			UNION ALL
			SELECT MIN(stock_date) AS d FROM restockings WHERE organization_id = ? AND branch_id = ?
			UNION ALL
			SELECT MIN(stock_date) AS d FROM sales WHERE organization_id = ? AND branch_id = ?
			UNION ALL
			SELECT MIN(stock_date) AS d FROM waste_spoilages WHERE organization_id = ? AND branch_id = ?
		) t
	`, organizationId, branchId, organizationId, branchId, organizationId, branchId,
		organizationId, branchId, organizationId, branchId).Scan(&row).Error
	if err != nil {
		return time.Time{}, err
	}
	if row.D == nil {
		return time.Time{}, nil
	}
	return *row.D, nil
}
