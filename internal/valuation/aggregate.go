package valuation

import "github.com/vietquant/vietval/pkg/models"

// Recommendation thresholds on upside percent. Policy constants — the
// same tiers must appear in the UI, the Excel export, and the CSV export.
const (
	strongBuyUpside = 15.0
	buyUpside       = 5.0
	sellUpside      = -10.0
)

// Recommend maps an upside percentage to a recommendation tier.
func Recommend(upsidePercent float64) string {
	switch {
	case upsidePercent >= strongBuyUpside:
		return models.RecStrongBuy
	case upsidePercent >= buyUpside:
		return models.RecBuy
	case upsidePercent <= sellUpside:
		return models.RecSell
	default:
		return models.RecHold
	}
}

// Aggregate combines per-model fair values into one weighted intrinsic
// value and derives upside and a recommendation.
//
// Only models that are enabled, valid, and produced a positive fair
// value participate; the total weight of the participants is the
// normalization denominator, so disabling a model (or having one drop
// out as invalid) renormalizes the rest automatically. Aggregation is
// O(number of models) and never re-runs a calculator — toggling weights
// is cheap by construction.
func Aggregate(results map[models.ModelKey]models.ModelResult, weights models.WeightSet, currentPrice float64) models.ValuationResult {
	vr := models.ValuationResult{
		PerModel:       results,
		Weights:        weights,
		CurrentPrice:   currentPrice,
		Recommendation: models.RecNoOpinion,
	}

	var weightedSum, totalWeight float64
	for key, w := range weights {
		if !w.Enabled || w.Weight <= 0 {
			continue
		}
		res, ok := results[key]
		if !ok || !res.Valid || res.FairValue <= 0 {
			continue
		}
		weightedSum += res.FairValue * w.Weight
		totalWeight += w.Weight
	}

	if totalWeight > 0 {
		vr.WeightedAverage = weightedSum / totalWeight
	}

	if currentPrice > 0 {
		vr.UpsidePercent = (vr.WeightedAverage - currentPrice) / currentPrice * 100
		vr.UpsideDefined = true
		vr.Recommendation = Recommend(vr.UpsidePercent)
	}

	return vr
}
