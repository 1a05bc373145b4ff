// Package models defines the shared data structures for VietVal:
// fundamentals snapshots, valuation assumptions, model weights, and
// valuation results exchanged between the provider, the engine, and
// the presentation adapters.
package models

// FundamentalsBundle is a snapshot of one company's financial data at
// valuation time. All monetary figures are absolute VND (not thousands);
// the provider boundary normalizes units before the bundle is built.
// The bundle is immutable for the duration of one calculation.
type FundamentalsBundle struct {
	Symbol    string `json:"symbol"`
	OrganName string `json:"organ_name"`
	Industry  string `json:"industry"`
	IsBank    bool   `json:"is_bank"`

	// Income statement / cash flow (TTM, absolute VND).
	NetIncome           float64 `json:"net_income"`
	Depreciation        float64 `json:"depreciation"`
	InterestExpense     float64 `json:"interest_expense"`
	ChangeReceivables   float64 `json:"change_receivables"`
	ChangeInventories   float64 `json:"change_inventories"`
	ChangePayables      float64 `json:"change_payables"`
	ProceedsBorrowings  float64 `json:"proceeds_borrowings"`
	RepaymentBorrowings float64 `json:"repayment_borrowings"` // conventionally negative
	CapEx               float64 `json:"capex"`

	// Balance sheet.
	ShortTermDebt float64 `json:"short_term_debt"`
	LongTermDebt  float64 `json:"long_term_debt"`
	Cash          float64 `json:"cash"`

	SharesOutstanding float64 `json:"shares_outstanding"`
	CurrentPrice      float64 `json:"current_price"` // VND per share
	EPS               float64 `json:"eps_ttm"`       // VND per share
	BVPS              float64 `json:"bvps"`          // VND per share

	// Sector-peer multiples, pre-aggregated by the provider. The engine
	// never recomputes peer statistics.
	SectorMedianPE float64 `json:"sector_median_pe"`
	SectorMedianPB float64 `json:"sector_median_pb"`

	TaxRate float64 `json:"tax_rate"` // percent, statement-derived context

	// Explicit per-year cash flow projections from the provider, absolute
	// VND. When present they take precedence over the geometric-growth
	// approximation for the matching model.
	ProjectedFCFE []float64 `json:"projected_fcfe,omitempty"`
	ProjectedFCFF []float64 `json:"projected_fcff,omitempty"`
}

// TotalDebt returns short-term plus long-term debt.
func (f *FundamentalsBundle) TotalDebt() float64 {
	return f.ShortTermDebt + f.LongTermDebt
}

// NetDebt returns total debt minus cash and equivalents.
func (f *FundamentalsBundle) NetDebt() float64 {
	return f.TotalDebt() - f.Cash
}

// NetBorrowing returns proceeds plus repayments of borrowings
// (repayments carry their conventional negative sign).
func (f *FundamentalsBundle) NetBorrowing() float64 {
	return f.ProceedsBorrowings + f.RepaymentBorrowings
}

// WorkingCapitalInvestment returns the cash absorbed by working capital:
// ΔReceivables + ΔInventories − ΔPayables.
func (f *FundamentalsBundle) WorkingCapitalInvestment() float64 {
	return f.ChangeReceivables + f.ChangeInventories - f.ChangePayables
}

// Assumptions holds the user-editable valuation parameters. Rate fields
// are percentages (8 means 8%), matching the request payload the UI sends.
type Assumptions struct {
	RevenueGrowth   float64 `json:"revenueGrowth"`   // short-term growth, %
	TerminalGrowth  float64 `json:"terminalGrowth"`  // perpetuity growth, %
	WACC            float64 `json:"wacc"`            // discount rate for FCFF, %
	RequiredReturn  float64 `json:"requiredReturn"`  // cost of equity, for FCFE, %
	TaxRate         float64 `json:"taxRate"`         // %
	ProjectionYears int     `json:"projectionYears"` // forecast horizon
}

// DefaultAssumptions returns the standard starting assumptions for the
// Vietnamese market.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		RevenueGrowth:   8.0,
		TerminalGrowth:  3.0,
		WACC:            10.5,
		RequiredReturn:  12.0,
		TaxRate:         20.0,
		ProjectionYears: 5,
	}
}

// Horizon returns the projection horizon clamped to a sane range.
func (a Assumptions) Horizon() int {
	switch {
	case a.ProjectionYears < 1:
		return 5
	case a.ProjectionYears > 20:
		return 20
	default:
		return a.ProjectionYears
	}
}
