package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/utils"
	"gorm.io/gorm"
)

// Seeds day-one opening rows from the legacy items.current_qty column for
// organizations migrating onto the daily ledger. Items that already have any
// ledger row are left untouched. The seeded rows are marked manual so later
// cascades never overwrite them.
func main() {
	orgID := flag.String("org-id", "", "Organization ID to backfill (optional; default = all)")
	dateStr := flag.String("date", "", "Opening date (YYYY-MM-DD; default = organization's today)")
	dryRun := flag.Bool("dry-run", true, "Print actions without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		panic("database not initialized")
	}
	logger := config.GetLogger()
	if logger == nil {
		logger = logrus.New()
	}

	var orgIds []string
	if strings.TrimSpace(*orgID) != "" {
		orgIds = []string{strings.TrimSpace(*orgID)}
	} else {
		if err := db.Model(&models.Organization{}).Pluck("id", &orgIds).Error; err != nil {
			panic(err)
		}
	}

	for _, oid := range orgIds {
		if oid == "" {
			continue
		}

		var org models.Organization
		if err := db.Where("id = ?", oid).First(&org).Error; err != nil {
			logger.WithFields(logrus.Fields{"organization_id": oid}).Warn("skip organization: not found")
			continue
		}
		if org.PrimaryBranchId <= 0 {
			logger.WithFields(logrus.Fields{"organization_id": oid}).Warn("skip organization: no primary branch")
			continue
		}

		stockDate, err := models.OrganizationToday(&org)
		if err != nil {
			panic(err)
		}
		if strings.TrimSpace(*dateStr) != "" {
			d, err := time.Parse("2006-01-02", strings.TrimSpace(*dateStr))
			if err != nil {
				panic(err)
			}
			stockDate, err = utils.ConvertToDate(d, org.Timezone)
			if err != nil {
				panic(err)
			}
		}

		var items []*models.Item
		if err := db.Where("organization_id = ? AND current_qty > 0", oid).Find(&items).Error; err != nil {
			panic(err)
		}

		for _, item := range items {
			var exists int64
			if err := db.Model(&models.OpeningStock{}).
				Where("organization_id = ? AND item_id = ?", oid, item.ID).
				Count(&exists).Error; err != nil {
				panic(err)
			}
			if exists > 0 {
				continue
			}

			if *dryRun {
				logger.WithFields(logrus.Fields{
					"organization_id": oid,
					"branch_id":       org.PrimaryBranchId,
					"item_id":         item.ID,
					"stock_date":      stockDate.Format("2006-01-02"),
					"qty":             item.CurrentQty.String(),
				}).Info("dry-run: would backfill opening stock")
				continue
			}

			err = db.Transaction(func(tx *gorm.DB) error {
				row := models.OpeningStock{
					OrganizationId: oid,
					BranchId:       org.PrimaryBranchId,
					ItemId:         item.ID,
					StockDate:      stockDate,
					Qty:            item.CurrentQty,
					CostPrice:      item.CostPrice,
					SellingPrice:   item.SellingPrice,
					Source:         models.OpeningSourceManual,
					Note:           "migrated from legacy item quantity",
				}
				return tx.Create(&row).Error
			})
			if err != nil {
				panic(err)
			}
		}
	}

	fmt.Println("opening stock backfill completed")
}
