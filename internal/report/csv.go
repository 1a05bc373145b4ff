package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vietquant/vietval/pkg/models"
)

// Disclaimer is the fixed legal footer appended to every CSV export.
const Disclaimer = "This report is generated automatically for reference only and does not constitute investment advice. " +
	"Báo cáo được tạo tự động, chỉ mang tính tham khảo và không phải là khuyến nghị đầu tư."

// CSVBuilder renders a valuation as a flattened plain-text document:
// summary, per-model detail, assumptions, comparables, disclaimer.
type CSVBuilder struct {
	notifier Notifier
}

// NewCSVBuilder creates a builder reporting progress to n. A nil n
// disables progress reporting.
func NewCSVBuilder(n Notifier) *CSVBuilder {
	if n == nil {
		n = NopNotifier{}
	}
	return &CSVBuilder{notifier: n}
}

// WriteCSV writes the full report to w.
func (b *CSVBuilder) WriteCSV(w io.Writer, vr models.ValuationResult, f *models.FundamentalsBundle, a models.Assumptions, peers []models.PeerComparable) error {
	b.notifier.Notify(fmt.Sprintf("Building CSV report for %s", vr.Symbol), "info")

	cw := csv.NewWriter(w)
	num := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	records := [][]string{
		{"section", "field", "value"},
		{"summary", "symbol", vr.Symbol},
		{"summary", "weighted_average_vnd", num(vr.WeightedAverage)},
		{"summary", "current_price_vnd", num(vr.CurrentPrice)},
	}
	if vr.UpsideDefined {
		records = append(records, []string{"summary", "upside_percent", num(vr.UpsidePercent)})
	} else {
		records = append(records, []string{"summary", "upside_percent", "undefined"})
	}
	records = append(records, []string{"summary", "recommendation", vr.Recommendation})

	for _, key := range models.AllModels {
		res, ok := vr.PerModel[key]
		if !ok {
			continue
		}
		section := "model:" + string(key)
		w := vr.Weights[key]
		records = append(records,
			[]string{section, "method", res.MethodName},
			[]string{section, "fair_value_vnd", num(res.FairValue)},
			[]string{section, "status", modelStatus(res)},
			[]string{section, "enabled", fmt.Sprintf("%t", w.Enabled)},
			[]string{section, "weight_percent", num(w.Weight)},
		)
		bd := res.Breakdown
		switch key {
		case models.ModelFCFE, models.ModelFCFF:
			records = append(records,
				[]string{section, "base_cashflow_vnd", num(bd.BaseCashflow)},
				[]string{section, "pv_sum_vnd", num(bd.PVSum)},
				[]string{section, "terminal_value_vnd", num(bd.TerminalValue)},
				[]string{section, "terminal_value_pv_vnd", num(bd.TerminalValuePV)},
				[]string{section, "equity_value_vnd", num(bd.EquityValue)},
			)
			for _, cf := range bd.Cashflows {
				records = append(records, []string{
					section,
					fmt.Sprintf("year_%d", cf.Year),
					fmt.Sprintf("cashflow=%.2f pv=%.2f", cf.Cashflow, cf.PresentValue),
				})
			}
		default:
			records = append(records,
				[]string{section, "multiple", num(bd.Multiple)},
				[]string{section, "driver_per_share", num(bd.Driver)},
			)
			if bd.SecondDriver > 0 {
				records = append(records, []string{section, "second_driver_per_share", num(bd.SecondDriver)})
			}
		}
		for _, note := range bd.Notes {
			records = append(records, []string{section, "note", note})
		}
	}

	records = append(records,
		[]string{"assumptions", "revenue_growth_percent", num(a.RevenueGrowth)},
		[]string{"assumptions", "terminal_growth_percent", num(a.TerminalGrowth)},
		[]string{"assumptions", "wacc_percent", num(a.WACC)},
		[]string{"assumptions", "required_return_percent", num(a.RequiredReturn)},
		[]string{"assumptions", "tax_rate_percent", num(a.TaxRate)},
		[]string{"assumptions", "projection_years", fmt.Sprintf("%d", a.Horizon())},
	)

	if f != nil {
		records = append(records,
			[]string{"comparables", "industry", f.Industry},
			[]string{"comparables", "sector_median_pe", num(f.SectorMedianPE)},
			[]string{"comparables", "sector_median_pb", num(f.SectorMedianPB)},
		)
		for _, p := range peers {
			records = append(records, []string{
				"comparables", p.Symbol,
				fmt.Sprintf("name=%s market_cap=%.0f pe=%.2f pb=%.2f", p.Name, p.MarketCap, p.PE, p.PB),
			})
		}
	}

	records = append(records, []string{"disclaimer", "", Disclaimer})

	if err := cw.WriteAll(records); err != nil {
		b.notifier.Notify("CSV report failed: "+err.Error(), "error")
		return fmt.Errorf("write csv: %w", err)
	}

	b.notifier.Notify("CSV report ready", "info")
	return nil
}
