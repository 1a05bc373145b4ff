package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vietquant/vietval/internal/valuation"
	"github.com/vietquant/vietval/pkg/models"
)

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) Notify(message, level string) {
	c.messages = append(c.messages, level+": "+message)
}

func sampleValuation() (models.ValuationResult, *models.FundamentalsBundle, models.Assumptions, []models.PeerComparable) {
	f := &models.FundamentalsBundle{
		Symbol:            "VNM",
		Industry:          "Food & Beverage",
		NetIncome:         9500e9,
		Depreciation:      2300e9,
		CapEx:             1800e9,
		SharesOutstanding: 2.09e9,
		CurrentPrice:      62300,
		EPS:               4500,
		BVPS:              17000,
		SectorMedianPE:    13.5,
		SectorMedianPB:    2.4,
	}
	a := models.DefaultAssumptions()
	vr := valuation.NewEngine().Valuate(f, a, nil, 0)
	peers := []models.PeerComparable{
		{Symbol: "MSN", Name: "Masan Group", MarketCap: 120e12, PE: 18.2, PB: 2.9},
		{Symbol: "SAB", Name: "Sabeco", MarketCap: 98e12, PE: 15.1, PB: 3.4},
	}
	return vr, f, a, peers
}

func TestExcelBuilderSheets(t *testing.T) {
	vr, f, a, peers := sampleValuation()

	n := &captureNotifier{}
	wb, err := NewExcelBuilder(n).Build(vr, f, a, peers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer wb.Close()

	for _, name := range []string{"Summary", "FCFE", "FCFF", "Justified PE", "Justified PB", "Graham", "Comparables", "Assumptions"} {
		idx, err := wb.GetSheetIndex(name)
		if err != nil || idx < 0 {
			t.Errorf("missing sheet %q (idx=%d, err=%v)", name, idx, err)
		}
	}

	got, err := wb.GetCellValue("Summary", "B4")
	if err != nil || got == "" {
		t.Errorf("summary current price empty: %q err=%v", got, err)
	}
	fair, err := wb.GetCellValue("Justified PE", "B6")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if !strings.HasPrefix(fair, "60750") { // 13.5 × 4500
		t.Errorf("justified PE sheet fair value: %q", fair)
	}

	if len(n.messages) == 0 {
		t.Error("expected progress notifications")
	}
}

func TestExcelGrahamSheetShowsBothDrivers(t *testing.T) {
	// Graham is √(multiplier × EPS × BVPS); the sheet must carry both
	// drivers and the square-root formula, not a multiple × driver pair.
	vr, f, a, peers := sampleValuation()

	wb, err := NewExcelBuilder(nil).Build(vr, f, a, peers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer wb.Close()

	for cell, want := range map[string]string{
		"B5": "4500",  // EPS
		"B6": "17000", // BVPS
	} {
		got, err := wb.GetCellValue("Graham", cell)
		if err != nil || !strings.HasPrefix(got, want) {
			t.Errorf("Graham %s = %q err=%v, want prefix %q", cell, got, err, want)
		}
	}

	formula, err := wb.GetCellValue("Graham", "B7")
	if err != nil || !strings.Contains(formula, "√") {
		t.Errorf("Graham formula cell = %q err=%v, want a square-root expression", formula, err)
	}

	fair, err := wb.GetCellValue("Graham", "B8")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if !strings.HasPrefix(fair, "4148") { // √(22.5 × 4500 × 17000) ≈ 41487.95
		t.Errorf("Graham fair value = %q, want √(22.5 × EPS × BVPS)", fair)
	}
}

func TestCSVGrahamSecondDriver(t *testing.T) {
	vr, f, a, peers := sampleValuation()

	var buf bytes.Buffer
	if err := NewCSVBuilder(nil).WriteCSV(&buf, vr, f, a, peers); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "model:graham,second_driver_per_share,17000.00") {
		t.Error("CSV Graham section missing the BVPS driver row")
	}
}

func TestExcelWriteProducesWorkbook(t *testing.T) {
	vr, f, a, peers := sampleValuation()

	var buf bytes.Buffer
	if err := NewExcelBuilder(nil).WriteExcel(&buf, vr, f, a, peers); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	// XLSX is a zip container; check the magic bytes.
	if buf.Len() < 4 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Error("output does not look like an xlsx file")
	}
}

func TestCSVBuilderContent(t *testing.T) {
	vr, f, a, peers := sampleValuation()

	var buf bytes.Buffer
	if err := NewCSVBuilder(nil).WriteCSV(&buf, vr, f, a, peers); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"summary,symbol,VNM",
		"model:fcfe",
		"model:graham",
		"assumptions,projection_years,5",
		"comparables,MSN",
		"disclaimer",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("CSV missing %q", want)
		}
	}
}

func TestCSVUndefinedUpside(t *testing.T) {
	vr, f, a, peers := sampleValuation()
	vr.UpsideDefined = false
	vr.CurrentPrice = 0

	var buf bytes.Buffer
	if err := NewCSVBuilder(nil).WriteCSV(&buf, vr, f, a, peers); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "upside_percent,undefined") {
		t.Error("undefined upside must render as a sentinel, not a number")
	}
}

func TestExportsAgreeWithEngine(t *testing.T) {
	// Both builders must format the same ModelResult the interactive
	// path uses; spot-check one figure through each.
	vr, f, a, peers := sampleValuation()

	var buf bytes.Buffer
	if err := NewCSVBuilder(nil).WriteCSV(&buf, vr, f, a, peers); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "model:justified_pb,fair_value_vnd,40800.00") { // 2.4 × 17000
		t.Error("CSV fair value diverged from engine output")
	}

	wb, err := NewExcelBuilder(nil).Build(vr, f, a, peers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer wb.Close()
	cell, err := wb.GetCellValue("Justified PB", "B6")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if !strings.HasPrefix(cell, "40800") {
		t.Errorf("Excel fair value diverged: %q", cell)
	}
}
