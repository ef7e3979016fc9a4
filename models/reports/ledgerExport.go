package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportDailyLedgerExcel writes the daily ledger rows to an .xlsx workbook.
func ExportDailyLedgerExcel(data []*DailyLedgerReportResponse, filename string) error {

	f := excelize.NewFile()
	sheetName := "DailyLedger"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// Add headers
	headings := []string{"Date", "Item", "SKU", "Unit", "Opening", "Restock", "Sales", "Waste", "Closing"}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	// Add data
	for i, d := range data {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, d.StockDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+row, d.ItemName)
		f.SetCellValue(sheetName, "C"+row, d.ItemSku)
		f.SetCellValue(sheetName, "D"+row, d.Unit)
		f.SetCellValue(sheetName, "E"+row, d.OpeningQty.String())
		f.SetCellValue(sheetName, "F"+row, d.RestockQty.String())
		f.SetCellValue(sheetName, "G"+row, d.SalesQty.String())
		f.SetCellValue(sheetName, "H"+row, d.WasteQty.String())
		f.SetCellValue(sheetName, "I"+row, d.ClosingQty.String())
	}

	if err := f.SaveAs(filename); err != nil {
		return err
	}
	return nil
}
