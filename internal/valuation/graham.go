package valuation

import (
	"math"

	"github.com/vietquant/vietval/pkg/models"
)

// GrahamConfig holds the tunable parts of the Graham calculation. The
// multiplier is Graham's 22.5 (a 15x P/E ceiling times a 1.5x P/B
// ceiling) but is configuration, not a hardcoded literal. ExcludeBanks
// controls the default weighting policy: the formula's balance-sheet
// assumptions do not hold for banks, so it is disabled for them by
// default rather than permanently.
type GrahamConfig struct {
	Multiplier   float64
	ExcludeBanks bool
}

// DefaultGrahamConfig returns the standard Graham settings.
func DefaultGrahamConfig() GrahamConfig {
	return GrahamConfig{Multiplier: 22.5, ExcludeBanks: true}
}

// Graham computes the Benjamin Graham intrinsic value
// √(multiplier × EPS × BVPS).
func Graham(f *models.FundamentalsBundle, cfg GrahamConfig) models.ModelResult {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 22.5
	}

	res := models.ModelResult{
		Method:     models.ModelGraham,
		MethodName: models.ModelGraham.DisplayName(),
		Valid:      true,
		Breakdown: models.Breakdown{
			Multiple:     mult,
			Driver:       f.EPS,
			SecondDriver: f.BVPS,
		},
	}

	if f.EPS <= 0 {
		return incomplete(res, "EPS <= 0 or missing")
	}
	if f.BVPS <= 0 {
		return incomplete(res, "BVPS <= 0 or missing")
	}

	res.FairValue = math.Sqrt(mult * f.EPS * f.BVPS)
	return res
}
