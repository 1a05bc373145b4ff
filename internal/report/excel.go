package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vietquant/vietval/pkg/models"
)

// sheet names, one per model plus the surrounding dashboards.
const (
	sheetSummary     = "Summary"
	sheetComparables = "Comparables"
	sheetAssumptions = "Assumptions"
)

func modelSheetName(key models.ModelKey) string {
	switch key {
	case models.ModelFCFE:
		return "FCFE"
	case models.ModelFCFF:
		return "FCFF"
	case models.ModelJustifiedPE:
		return "Justified PE"
	case models.ModelJustifiedPB:
		return "Justified PB"
	case models.ModelGraham:
		return "Graham"
	default:
		return string(key)
	}
}

// ExcelBuilder renders a valuation into a multi-sheet workbook: a
// summary dashboard, one worksheet per model reproducing that
// calculator's step-by-step breakdown, a peer-comparables sheet, and the
// assumptions used.
type ExcelBuilder struct {
	notifier Notifier
}

// NewExcelBuilder creates a builder reporting progress to n. A nil n
// disables progress reporting.
func NewExcelBuilder(n Notifier) *ExcelBuilder {
	if n == nil {
		n = NopNotifier{}
	}
	return &ExcelBuilder{notifier: n}
}

// WriteExcel builds the workbook and writes it to w.
func (b *ExcelBuilder) WriteExcel(w io.Writer, vr models.ValuationResult, f *models.FundamentalsBundle, a models.Assumptions, peers []models.PeerComparable) error {
	wb, err := b.Build(vr, f, a, peers)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.Write(w)
}

// Build assembles the workbook in memory.
func (b *ExcelBuilder) Build(vr models.ValuationResult, f *models.FundamentalsBundle, a models.Assumptions, peers []models.PeerComparable) (*excelize.File, error) {
	b.notifier.Notify(fmt.Sprintf("Building Excel report for %s", vr.Symbol), "info")

	wb := excelize.NewFile()

	header, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("workbook style: %w", err)
	}

	if err := b.summarySheet(wb, header, vr); err != nil {
		return nil, err
	}
	for _, key := range models.AllModels {
		res, ok := vr.PerModel[key]
		if !ok {
			continue
		}
		if err := b.modelSheet(wb, header, key, res); err != nil {
			return nil, err
		}
	}
	if err := b.comparablesSheet(wb, header, f, peers); err != nil {
		return nil, err
	}
	if err := b.assumptionsSheet(wb, header, a); err != nil {
		return nil, err
	}

	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	idx, err := wb.GetSheetIndex(sheetSummary)
	if err == nil && idx >= 0 {
		wb.SetActiveSheet(idx)
	}

	b.notifier.Notify("Excel report ready", "info")
	return wb, nil
}

func (b *ExcelBuilder) summarySheet(wb *excelize.File, header int, vr models.ValuationResult) error {
	if _, err := wb.NewSheet(sheetSummary); err != nil {
		return err
	}
	set := func(cell string, v any) { _ = wb.SetCellValue(sheetSummary, cell, v) }

	set("A1", "Valuation Summary — "+vr.Symbol)
	_ = wb.SetCellStyle(sheetSummary, "A1", "A1", header)

	set("A3", "Weighted intrinsic value (VND)")
	set("B3", vr.WeightedAverage)
	set("A4", "Current price (VND)")
	set("B4", vr.CurrentPrice)
	set("A5", "Upside")
	if vr.UpsideDefined {
		set("B5", fmt.Sprintf("%.2f%%", vr.UpsidePercent))
	} else {
		set("B5", "n/a (no market price)")
	}
	set("A6", "Recommendation")
	set("B6", vr.Recommendation)

	// Per-model block.
	set("A8", "Method")
	set("B8", "Fair value (VND)")
	set("C8", "Weight")
	set("D8", "Status")
	_ = wb.SetCellStyle(sheetSummary, "A8", "D8", header)

	row := 9
	for _, key := range models.AllModels {
		res, ok := vr.PerModel[key]
		if !ok {
			continue
		}
		w := vr.Weights[key]
		set(fmt.Sprintf("A%d", row), res.MethodName)
		set(fmt.Sprintf("B%d", row), res.FairValue)
		if w.Enabled {
			set(fmt.Sprintf("C%d", row), fmt.Sprintf("%.0f%%", w.Weight))
		} else {
			set(fmt.Sprintf("C%d", row), "disabled")
		}
		set(fmt.Sprintf("D%d", row), modelStatus(res))
		row++
	}

	return wb.SetColWidth(sheetSummary, "A", "A", 36)
}

// modelStatus renders the per-model flag so an excluded model is visibly
// excluded rather than shown as a real valuation of zero.
func modelStatus(res models.ModelResult) string {
	switch {
	case !res.Valid:
		return "invalid (excluded)"
	case res.Breakdown.Incomplete:
		return "incomplete inputs"
	default:
		return "ok"
	}
}

func (b *ExcelBuilder) modelSheet(wb *excelize.File, header int, key models.ModelKey, res models.ModelResult) error {
	name := modelSheetName(key)
	if _, err := wb.NewSheet(name); err != nil {
		return err
	}
	set := func(cell string, v any) { _ = wb.SetCellValue(name, cell, v) }

	set("A1", res.MethodName)
	_ = wb.SetCellStyle(name, "A1", "A1", header)
	set("A2", "Status")
	set("B2", modelStatus(res))

	bd := res.Breakdown
	switch key {
	case models.ModelFCFE, models.ModelFCFF:
		set("A4", "Base cash flow (VND)")
		set("B4", bd.BaseCashflow)
		set("A5", "Discount rate")
		set("B5", bd.DiscountRate)
		set("A6", "Growth rate")
		set("B6", bd.GrowthRate)
		set("A7", "Terminal growth")
		set("B7", bd.TerminalGrowth)
		set("A8", "Projection source")
		set("B8", bd.ProjectionSource)

		set("A10", "Year")
		set("B10", "Cash flow")
		set("C10", "Discount factor")
		set("D10", "Present value")
		_ = wb.SetCellStyle(name, "A10", "D10", header)
		row := 11
		for _, cf := range bd.Cashflows {
			set(fmt.Sprintf("A%d", row), cf.Year)
			set(fmt.Sprintf("B%d", row), cf.Cashflow)
			set(fmt.Sprintf("C%d", row), cf.DiscountFactor)
			set(fmt.Sprintf("D%d", row), cf.PresentValue)
			row++
		}

		row++
		set(fmt.Sprintf("A%d", row), "Sum of PVs")
		set(fmt.Sprintf("B%d", row), bd.PVSum)
		row++
		set(fmt.Sprintf("A%d", row), "Terminal value")
		set(fmt.Sprintf("B%d", row), bd.TerminalValue)
		row++
		set(fmt.Sprintf("A%d", row), "Terminal value (PV)")
		set(fmt.Sprintf("B%d", row), bd.TerminalValuePV)
		if key == models.ModelFCFF {
			row++
			set(fmt.Sprintf("A%d", row), "Enterprise value")
			set(fmt.Sprintf("B%d", row), bd.EnterpriseValue)
			row++
			set(fmt.Sprintf("A%d", row), "Net debt")
			set(fmt.Sprintf("B%d", row), bd.NetDebt)
		}
		row++
		set(fmt.Sprintf("A%d", row), "Equity value")
		set(fmt.Sprintf("B%d", row), bd.EquityValue)
		row++
		set(fmt.Sprintf("A%d", row), "Fair value per share")
		set(fmt.Sprintf("B%d", row), res.FairValue)

	case models.ModelGraham: // √(multiplier × EPS × BVPS), not multiple × driver
		set("A4", "Multiplier")
		set("B4", bd.Multiple)
		set("A5", "EPS")
		set("B5", bd.Driver)
		set("A6", "BVPS")
		set("B6", bd.SecondDriver)
		set("A7", "Formula")
		set("B7", fmt.Sprintf("√(%.1f × %.2f × %.2f)", bd.Multiple, bd.Driver, bd.SecondDriver))
		set("A8", "Fair value per share")
		set("B8", res.FairValue)

	default: // comparables: multiple × driver
		set("A4", "Multiple")
		set("B4", bd.Multiple)
		set("A5", "Driver (per share)")
		set("B5", bd.Driver)
		set("A6", "Fair value per share")
		set("B6", res.FairValue)
	}

	if len(bd.Notes) > 0 {
		set("A20", "Notes")
		for i, note := range bd.Notes {
			set(fmt.Sprintf("B%d", 20+i), note)
		}
	}

	return wb.SetColWidth(name, "A", "A", 28)
}

func (b *ExcelBuilder) comparablesSheet(wb *excelize.File, header int, f *models.FundamentalsBundle, peers []models.PeerComparable) error {
	if _, err := wb.NewSheet(sheetComparables); err != nil {
		return err
	}
	set := func(cell string, v any) { _ = wb.SetCellValue(sheetComparables, cell, v) }

	set("A1", "Sector comparables — "+f.Industry)
	_ = wb.SetCellStyle(sheetComparables, "A1", "A1", header)
	set("A3", "Sector median P/E")
	set("B3", f.SectorMedianPE)
	set("A4", "Sector median P/B")
	set("B4", f.SectorMedianPB)

	set("A6", "Symbol")
	set("B6", "Name")
	set("C6", "Market cap (VND)")
	set("D6", "P/E")
	set("E6", "P/B")
	_ = wb.SetCellStyle(sheetComparables, "A6", "E6", header)

	for i, p := range peers {
		row := 7 + i
		set(fmt.Sprintf("A%d", row), p.Symbol)
		set(fmt.Sprintf("B%d", row), p.Name)
		set(fmt.Sprintf("C%d", row), p.MarketCap)
		set(fmt.Sprintf("D%d", row), p.PE)
		set(fmt.Sprintf("E%d", row), p.PB)
	}

	return wb.SetColWidth(sheetComparables, "B", "B", 32)
}

func (b *ExcelBuilder) assumptionsSheet(wb *excelize.File, header int, a models.Assumptions) error {
	if _, err := wb.NewSheet(sheetAssumptions); err != nil {
		return err
	}
	set := func(cell string, v any) { _ = wb.SetCellValue(sheetAssumptions, cell, v) }

	set("A1", "Assumptions")
	_ = wb.SetCellStyle(sheetAssumptions, "A1", "A1", header)

	rows := []struct {
		label string
		value any
	}{
		{"Revenue growth (%)", a.RevenueGrowth},
		{"Terminal growth (%)", a.TerminalGrowth},
		{"WACC (%)", a.WACC},
		{"Required return (%)", a.RequiredReturn},
		{"Tax rate (%)", a.TaxRate},
		{"Projection horizon (years)", a.Horizon()},
	}
	for i, r := range rows {
		set(fmt.Sprintf("A%d", 3+i), r.label)
		set(fmt.Sprintf("B%d", 3+i), r.value)
	}

	return wb.SetColWidth(sheetAssumptions, "A", "A", 28)
}
