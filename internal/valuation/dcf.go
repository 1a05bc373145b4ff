package valuation

import (
	"math"

	"github.com/vietquant/vietval/pkg/models"
)

// dcfInput carries everything the shared projection/discount routine
// needs. Rates are decimals here (0.12, not 12); the engine converts
// from the percent-unit Assumptions once, at the boundary.
type dcfInput struct {
	baseCashflow float64   // aggregate VND
	projections  []float64 // optional explicit per-year cash flows, aggregate VND
	growth       float64
	discountRate float64
	termGrowth   float64
	years        int
}

// dcfOutput is the firm- or equity-level present value before any
// per-share division.
type dcfOutput struct {
	cashflows []models.ProjectedCashflow
	pvSum     float64
	terminal  float64
	termPV    float64
	total     float64
	source    string
}

// discountCashflows projects the base cash flow over the horizon (or
// takes the provider's explicit projections when they cover it),
// discounts each year, and adds the discounted Gordon terminal value.
//
// Callers must have verified discountRate > termGrowth; the perpetuity
// formula is undefined otherwise.
func discountCashflows(in dcfInput) dcfOutput {
	out := dcfOutput{source: "growth"}

	explicit := len(in.projections) >= in.years
	if explicit {
		out.source = "provider"
	}

	var cfN float64
	for t := 1; t <= in.years; t++ {
		var cf float64
		if explicit {
			cf = in.projections[t-1]
		} else {
			cf = in.baseCashflow * math.Pow(1+in.growth, float64(t))
		}
		df := math.Pow(1+in.discountRate, float64(t))
		pv := cf / df
		out.cashflows = append(out.cashflows, models.ProjectedCashflow{
			Year:           t,
			Cashflow:       cf,
			DiscountFactor: df,
			PresentValue:   pv,
		})
		out.pvSum += pv
		cfN = cf
	}

	// Terminal value grows the final-year cash flow, not the base.
	out.terminal = cfN * (1 + in.termGrowth) / (in.discountRate - in.termGrowth)
	out.termPV = out.terminal / math.Pow(1+in.discountRate, float64(in.years))
	out.total = out.pvSum + out.termPV
	return out
}

// FCFE values the company's equity by discounting free cash flow to
// equity at the cost of equity.
//
// Base FCFE = NetIncome + Depreciation + NetBorrowing
// − WorkingCapitalInvestment − CapEx (capex is always an outflow,
// subtracted as a positive magnitude).
func FCFE(f *models.FundamentalsBundle, a models.Assumptions) models.ModelResult {
	res := models.ModelResult{
		Method:     models.ModelFCFE,
		MethodName: models.ModelFCFE.DisplayName(),
		Valid:      true,
	}

	r := a.RequiredReturn / 100
	g := a.RevenueGrowth / 100
	gt := a.TerminalGrowth / 100
	years := a.Horizon()

	base := f.NetIncome + f.Depreciation + f.NetBorrowing() -
		f.WorkingCapitalInvestment() - math.Abs(f.CapEx)

	res.Breakdown = models.Breakdown{
		BaseCashflow:   base,
		DiscountRate:   r,
		GrowthRate:     g,
		TerminalGrowth: gt,
		Years:          years,
	}

	if f.SharesOutstanding <= 0 {
		return incomplete(res, "shares outstanding <= 0")
	}
	if base <= 0 && len(f.ProjectedFCFE) < years {
		return incomplete(res, "base FCFE <= 0")
	}
	if r <= 0 {
		return invalid(res, "required return <= 0")
	}
	if r <= gt {
		return invalid(res, "terminal growth >= required return")
	}

	out := discountCashflows(dcfInput{
		baseCashflow: base,
		projections:  f.ProjectedFCFE,
		growth:       g,
		discountRate: r,
		termGrowth:   gt,
		years:        years,
	})

	res.Breakdown.Cashflows = out.cashflows
	res.Breakdown.PVSum = out.pvSum
	res.Breakdown.TerminalValue = out.terminal
	res.Breakdown.TerminalValuePV = out.termPV
	res.Breakdown.EquityValue = out.total
	res.Breakdown.ProjectionSource = out.source
	res.FairValue = out.total / f.SharesOutstanding
	return res
}

// FCFF values the whole firm by discounting free cash flow to the firm
// at WACC, then backs out equity by subtracting net debt.
//
// Base FCFF = NetIncome + InterestExpense×(1−tax) + Depreciation
// − WorkingCapitalInvestment − CapEx.
func FCFF(f *models.FundamentalsBundle, a models.Assumptions) models.ModelResult {
	res := models.ModelResult{
		Method:     models.ModelFCFF,
		MethodName: models.ModelFCFF.DisplayName(),
		Valid:      true,
	}

	wacc := a.WACC / 100
	g := a.RevenueGrowth / 100
	gt := a.TerminalGrowth / 100
	years := a.Horizon()

	tax := a.TaxRate / 100
	if a.TaxRate <= 0 && f.TaxRate > 0 {
		tax = f.TaxRate / 100
	}

	base := f.NetIncome + f.InterestExpense*(1-tax) + f.Depreciation -
		f.WorkingCapitalInvestment() - math.Abs(f.CapEx)

	res.Breakdown = models.Breakdown{
		BaseCashflow:   base,
		DiscountRate:   wacc,
		GrowthRate:     g,
		TerminalGrowth: gt,
		Years:          years,
		NetDebt:        f.NetDebt(),
	}

	if f.SharesOutstanding <= 0 {
		return incomplete(res, "shares outstanding <= 0")
	}
	if base <= 0 && len(f.ProjectedFCFF) < years {
		return incomplete(res, "base FCFF <= 0")
	}
	if wacc <= 0 {
		return invalid(res, "WACC <= 0")
	}
	if wacc <= gt {
		return invalid(res, "terminal growth >= WACC")
	}

	out := discountCashflows(dcfInput{
		baseCashflow: base,
		projections:  f.ProjectedFCFF,
		growth:       g,
		discountRate: wacc,
		termGrowth:   gt,
		years:        years,
	})

	equity := out.total - f.NetDebt()

	res.Breakdown.Cashflows = out.cashflows
	res.Breakdown.PVSum = out.pvSum
	res.Breakdown.TerminalValue = out.terminal
	res.Breakdown.TerminalValuePV = out.termPV
	res.Breakdown.EnterpriseValue = out.total
	res.Breakdown.EquityValue = equity
	res.Breakdown.ProjectionSource = out.source
	res.FairValue = equity / f.SharesOutstanding
	return res
}

// incomplete zeroes a result for missing or unusable fundamentals. The
// model still "ran": FairValue is a defined 0 and the breakdown says why.
func incomplete(res models.ModelResult, note string) models.ModelResult {
	res.FairValue = 0
	res.Breakdown.Incomplete = true
	res.Breakdown.Notes = append(res.Breakdown.Notes, note)
	return res
}

// invalid flags a result whose math is undefined for the given
// assumptions (e.g. terminal growth at or above the discount rate).
// Invalid models are excluded from aggregation even when weighted.
func invalid(res models.ModelResult, note string) models.ModelResult {
	res.FairValue = 0
	res.Valid = false
	res.Breakdown.Incomplete = true
	res.Breakdown.Notes = append(res.Breakdown.Notes, note)
	return res
}
