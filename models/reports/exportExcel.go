package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stagefront/concession_backend/utils"
)

var reportHeadings = []string{
	"S.NO", "Product", "Date", "Stock Added", "Expired Old Stock",
	"Carry Forward", "Sales", "Expired Stock", "Damage Stock", "Balance",
}

// ReportFilename is the conventional export filename for a report generated
// on the given day.
func ReportFilename(day time.Time) string {
	return fmt.Sprintf("Stock_Report_%s.xlsx", day.Format("2006-01-02"))
}

// ExportMonthlyReport writes the report workbook to filename.
func ExportMonthlyReport(report *MonthlyReport, filename string) error {
	f := buildWorkbook(report)
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("export monthly report: %w", err)
	}
	return nil
}

// WriteMonthlyReport streams the report workbook, e.g. into an HTTP response.
func WriteMonthlyReport(report *MonthlyReport, w io.Writer) error {
	f := buildWorkbook(report)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write monthly report: %w", err)
	}
	return nil
}

func buildWorkbook(report *MonthlyReport) *excelize.File {
	f := excelize.NewFile()
	sheet := "Sheet1"

	for i, h := range reportHeadings {
		f.SetCellValue(sheet, fmt.Sprintf("%c1", 'A'+i), h)
	}

	row := 2
	sno := 1
	for _, p := range report.Products {
		for _, e := range p.Entries {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sno)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.ProductName)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), utils.FormatDate(e.EntryDate))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.StockAdded)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), e.ExpiredOldStock)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), e.CarryForward)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), e.Sales)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), e.ExpiredStock)
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), e.DamageStock)
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), e.Balance)
			row++
			sno++
		}
	}

	// Totals row. Carry forward has no meaningful column total.
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), report.GrandTotal.StockAdded)
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), report.GrandTotal.ExpiredOldStock)
	f.SetCellValue(sheet, fmt.Sprintf("G%d", row), report.GrandTotal.Sales)
	f.SetCellValue(sheet, fmt.Sprintf("H%d", row), report.GrandTotal.ExpiredStock)
	f.SetCellValue(sheet, fmt.Sprintf("I%d", row), report.GrandTotal.DamageStock)
	f.SetCellValue(sheet, fmt.Sprintf("J%d", row), report.GrandTotal.ClosingBalance)

	return f
}
