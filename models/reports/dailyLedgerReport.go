package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/models"
	"github.com/thurasoft/stockledger_backend/utils"
)

type DailyLedgerReportResponse struct {
	StockDate  time.Time       `json:"stockDate"`
	ItemId     int             `json:"itemId"`
	ItemName   string          `json:"itemName,omitempty"`
	ItemSku    string          `json:"itemSku,omitempty"`
	Unit       string          `json:"unit,omitempty"`
	OpeningQty decimal.Decimal `json:"openingQty"`
	RestockQty decimal.Decimal `json:"restockQty"`
	SalesQty   decimal.Decimal `json:"salesQty"`
	WasteQty   decimal.Decimal `json:"wasteQty"`
	ClosingQty decimal.Decimal `json:"closingQty"`
}

// GetDailyLedgerReport returns the settled ledger days of the scope's branch
// between fromDate and toDate inclusive, one row per item per day. The rows
// come from the closing table's component breakdown, so the report always
// matches what the closer actually persisted.
func GetDailyLedgerReport(ctx context.Context, fromDate, toDate time.Time) ([]*DailyLedgerReportResponse, error) {

	scope, err := models.ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	org, err := models.GetOrganization(ctx)
	if err != nil {
		return nil, err
	}

	from, err := utils.ConvertToDate(fromDate, org.Timezone)
	if err != nil {
		return nil, err
	}
	to, err := utils.ConvertToDate(toDate, org.Timezone)
	if err != nil {
		return nil, err
	}

	sql := `
SELECT
    cs.stock_date,
    cs.item_id,
    items.name AS item_name,
    items.sku AS item_sku,
    items.unit,
    cs.opening_qty,
    cs.restock_qty,
    cs.sales_qty,
    cs.waste_qty,
    cs.qty AS closing_qty
FROM closing_stocks cs
LEFT JOIN items ON items.id = cs.item_id
WHERE cs.organization_id = @organizationId
  AND cs.branch_id = @branchId
  AND cs.stock_date BETWEEN @fromDate AND @toDate
ORDER BY cs.stock_date ASC, items.name ASC;
`

	var results []*DailyLedgerReportResponse
	db := config.GetDB()
	args := map[string]interface{}{
		"organizationId": scope.OrganizationId,
		"branchId":       scope.BranchId,
		"fromDate":       from,
		"toDate":         to,
	}
	if err := db.WithContext(ctx).Raw(sql, args).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
