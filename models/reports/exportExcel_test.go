package reports

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestReportFilename(t *testing.T) {
	day := time.Date(2025, 12, 3, 10, 30, 0, 0, time.UTC)
	if got := ReportFilename(day); got != "Stock_Report_2025-12-03.xlsx" {
		t.Fatalf("unexpected filename %s", got)
	}
}

func TestWriteMonthlyReportRoundTrip(t *testing.T) {
	agg, _ := seedWorkbook(t)
	report, err := agg.MonthlyReport(context.Background(), testTenant, 2025, 11)
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteMonthlyReport(report, &buf); err != nil {
		t.Fatalf("WriteMonthlyReport: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	cell := func(ref string) string {
		t.Helper()
		v, err := f.GetCellValue("Sheet1", ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", ref, err)
		}
		return v
	}

	for i, want := range reportHeadings {
		ref := fmt.Sprintf("%c1", 'A'+i)
		if got := cell(ref); got != want {
			t.Fatalf("header %s: expected %q, got %q", ref, want, got)
		}
	}

	// Row 2: popcorn's first day.
	if cell("A2") != "1" || cell("B2") != "Popcorn Large" || cell("C2") != "2025-11-01" {
		t.Fatalf("unexpected first data row: %s %s %s", cell("A2"), cell("B2"), cell("C2"))
	}
	if cell("D2") != "150" || cell("F2") != "0" || cell("J2") != "150" {
		t.Fatalf("unexpected first row quantities: added=%s carry=%s balance=%s",
			cell("D2"), cell("F2"), cell("J2"))
	}
	// Row 3: the second day chains the first day's balance.
	if cell("F3") != "150" || cell("G3") != "30" || cell("J3") != "120" {
		t.Fatalf("unexpected second row: carry=%s sales=%s balance=%s",
			cell("F3"), cell("G3"), cell("J3"))
	}

	// Totals row follows the 3 data rows.
	if cell("B5") != "Total" {
		t.Fatalf("expected totals row label in B5, got %q", cell("B5"))
	}
	if cell("D5") != "170" || cell("G5") != "30" || cell("J5") != "138" {
		t.Fatalf("unexpected totals: added=%s sales=%s balance=%s",
			cell("D5"), cell("G5"), cell("J5"))
	}
}
