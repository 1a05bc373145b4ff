package valuation

import "github.com/vietquant/vietval/pkg/models"

// Engine ties the five model calculators and the aggregator together.
// It is stateless apart from its configuration; one Engine value serves
// any number of concurrent valuations.
type Engine struct {
	Graham GrahamConfig
}

// NewEngine returns an engine with default configuration.
func NewEngine() *Engine {
	return &Engine{Graham: DefaultGrahamConfig()}
}

// RunModels executes all five calculators against one fundamentals
// snapshot. The returned map is the expensive half of a valuation;
// callers that let users toggle model weights interactively should keep
// it and call Aggregate directly instead of re-running the calculators.
func (e *Engine) RunModels(f *models.FundamentalsBundle, a models.Assumptions) map[models.ModelKey]models.ModelResult {
	return map[models.ModelKey]models.ModelResult{
		models.ModelFCFE:        FCFE(f, a),
		models.ModelFCFF:        FCFF(f, a),
		models.ModelJustifiedPE: JustifiedPE(f),
		models.ModelJustifiedPB: JustifiedPB(f),
		models.ModelGraham:      Graham(f, e.Graham),
	}
}

// Valuate runs the full pipeline: all calculators, then aggregation.
// currentPriceOverride substitutes a manually entered price when > 0
// without touching the stored fundamentals. A valuation request always
// yields a structurally complete result — degenerate inputs surface as
// flagged per-model breakdowns, never as an error.
func (e *Engine) Valuate(f *models.FundamentalsBundle, a models.Assumptions, weights models.WeightSet, currentPriceOverride float64) models.ValuationResult {
	if weights == nil {
		weights = models.DefaultWeightSet(f.IsBank && e.Graham.ExcludeBanks)
	}

	price := f.CurrentPrice
	if currentPriceOverride > 0 {
		price = currentPriceOverride
	}

	vr := Aggregate(e.RunModels(f, a), weights, price)
	vr.Symbol = f.Symbol
	return vr
}
