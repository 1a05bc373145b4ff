package models

// ModelKey identifies one of the five valuation methodologies.
type ModelKey string

const (
	ModelFCFE        ModelKey = "fcfe"
	ModelFCFF        ModelKey = "fcff"
	ModelJustifiedPE ModelKey = "justified_pe"
	ModelJustifiedPB ModelKey = "justified_pb"
	ModelGraham      ModelKey = "graham"
)

// AllModels lists every model key in presentation order.
var AllModels = []ModelKey{ModelFCFE, ModelFCFF, ModelJustifiedPE, ModelJustifiedPB, ModelGraham}

// DisplayName returns the human-readable method name.
func (k ModelKey) DisplayName() string {
	switch k {
	case ModelFCFE:
		return "DCF — Free Cash Flow to Equity"
	case ModelFCFF:
		return "DCF — Free Cash Flow to Firm"
	case ModelJustifiedPE:
		return "Justified P/E (sector median)"
	case ModelJustifiedPB:
		return "Justified P/B (sector median)"
	case ModelGraham:
		return "Graham intrinsic value"
	default:
		return string(k)
	}
}

// ModelWeight is one entry of the weighting scheme. Disabled models
// always carry weight 0 in aggregation regardless of the stored value.
type ModelWeight struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"` // percentage points
}

// WeightSet maps each model to its weight. The sum of enabled weights is
// used as the normalization denominator, so it does not have to be 100.
type WeightSet map[ModelKey]ModelWeight

// DefaultWeightSet returns the standard weighting: all five models
// enabled at 20% each, except for banks where the Graham formula is
// disabled (its balance-sheet assumptions do not hold for banks) and the
// remaining four models carry 25% each.
func DefaultWeightSet(isBank bool) WeightSet {
	if isBank {
		return WeightSet{
			ModelFCFE:        {Enabled: true, Weight: 25},
			ModelFCFF:        {Enabled: true, Weight: 25},
			ModelJustifiedPE: {Enabled: true, Weight: 25},
			ModelJustifiedPB: {Enabled: true, Weight: 25},
			ModelGraham:      {Enabled: false, Weight: 0},
		}
	}
	return WeightSet{
		ModelFCFE:        {Enabled: true, Weight: 20},
		ModelFCFF:        {Enabled: true, Weight: 20},
		ModelJustifiedPE: {Enabled: true, Weight: 20},
		ModelJustifiedPB: {Enabled: true, Weight: 20},
		ModelGraham:      {Enabled: true, Weight: 20},
	}
}

// ProjectedCashflow is one year of a DCF projection.
type ProjectedCashflow struct {
	Year           int     `json:"year"`
	Cashflow       float64 `json:"cashflow"`
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`
}

// Breakdown carries the method-specific supporting detail for one model
// result. DCF models fill the projection and terminal-value fields;
// comparable models fill Multiple and Driver. Presentation adapters only
// format these figures, they never recompute them.
type Breakdown struct {
	// DCF detail.
	BaseCashflow     float64             `json:"base_cashflow,omitempty"`
	Cashflows        []ProjectedCashflow `json:"cashflows,omitempty"`
	PVSum            float64             `json:"pv_sum,omitempty"`
	TerminalValue    float64             `json:"terminal_value,omitempty"`
	TerminalValuePV  float64             `json:"terminal_value_pv,omitempty"`
	EnterpriseValue  float64             `json:"enterprise_value,omitempty"`
	NetDebt          float64             `json:"net_debt,omitempty"`
	EquityValue      float64             `json:"equity_value,omitempty"`
	DiscountRate     float64             `json:"discount_rate,omitempty"`
	GrowthRate       float64             `json:"growth_rate,omitempty"`
	TerminalGrowth   float64             `json:"terminal_growth,omitempty"`
	Years            int                 `json:"years,omitempty"`
	ProjectionSource string              `json:"projection_source,omitempty"` // "growth" or "provider"

	// Comparable / Graham detail. Graham combines two per-share drivers
	// under a square root, so it fills SecondDriver as well.
	Multiple     float64 `json:"multiple,omitempty"`      // median P/E, median P/B, or Graham multiplier
	Driver       float64 `json:"driver,omitempty"`        // EPS or BVPS
	SecondDriver float64 `json:"second_driver,omitempty"` // BVPS (Graham only)

	// Degenerate-input flags.
	Incomplete bool     `json:"incomplete,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// ModelResult is the output of one model calculator. FairValue is always
// defined: degenerate inputs yield 0 with Breakdown.Incomplete set, and
// invalid model math (terminal growth >= discount rate) yields Valid=false
// so downstream consumers can mark the model as excluded rather than
// showing 0 as a real valuation.
type ModelResult struct {
	Method     ModelKey  `json:"method"`
	MethodName string    `json:"method_name"`
	FairValue  float64   `json:"fair_value"` // VND per share
	Valid      bool      `json:"valid"`
	Breakdown  Breakdown `json:"breakdown"`
}

// Recommendation tiers derived from upside. Fixed policy constants:
// they must render identically in the UI, Excel, and CSV paths.
const (
	RecStrongBuy = "Strong Buy"
	RecBuy       = "Buy"
	RecHold      = "Hold"
	RecSell      = "Sell"
	RecNoOpinion = "N/A"
)

// ValuationResult is the aggregate output of one valuation request.
// It is purely a function of (fundamentals, assumptions, weights, price);
// there is no hidden state.
type ValuationResult struct {
	Symbol          string                   `json:"symbol"`
	PerModel        map[ModelKey]ModelResult `json:"per_model"`
	Weights         WeightSet                `json:"weights"`
	WeightedAverage float64                  `json:"weighted_average"` // VND per share
	CurrentPrice    float64                  `json:"current_price"`
	UpsidePercent   float64                  `json:"upside_percent"`
	UpsideDefined   bool                     `json:"upside_defined"` // false when current price <= 0
	Recommendation  string                   `json:"recommendation"`
}

// Quote is a normalized market quote. All price-like fields are VND.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Ceiling       float64 `json:"ceiling"`
	Floor         float64 `json:"floor"`
	Reference     float64 `json:"reference"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
}

// PeerComparable is one sector peer, used for display and export only —
// the engine consumes the pre-aggregated medians, never this list.
type PeerComparable struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
	PE        float64 `json:"pe"`
	PB        float64 `json:"pb"`
}
