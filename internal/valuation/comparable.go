package valuation

import "github.com/vietquant/vietval/pkg/models"

// JustifiedPE estimates fair value as sector-median P/E × EPS. The
// median is computed upstream by the fundamentals provider from the
// company's sector peers; this calculator only consumes it.
func JustifiedPE(f *models.FundamentalsBundle) models.ModelResult {
	res := models.ModelResult{
		Method:     models.ModelJustifiedPE,
		MethodName: models.ModelJustifiedPE.DisplayName(),
		Valid:      true,
		Breakdown: models.Breakdown{
			Multiple: f.SectorMedianPE,
			Driver:   f.EPS,
		},
	}

	if f.EPS <= 0 {
		return incomplete(res, "EPS <= 0 or missing")
	}
	if f.SectorMedianPE <= 0 {
		return incomplete(res, "sector median P/E missing")
	}

	res.FairValue = f.SectorMedianPE * f.EPS
	return res
}

// JustifiedPB estimates fair value as sector-median P/B × book value per
// share, with the same externally-computed-median contract as JustifiedPE.
func JustifiedPB(f *models.FundamentalsBundle) models.ModelResult {
	res := models.ModelResult{
		Method:     models.ModelJustifiedPB,
		MethodName: models.ModelJustifiedPB.DisplayName(),
		Valid:      true,
		Breakdown: models.Breakdown{
			Multiple: f.SectorMedianPB,
			Driver:   f.BVPS,
		},
	}

	if f.BVPS <= 0 {
		return incomplete(res, "BVPS <= 0 or missing")
	}
	if f.SectorMedianPB <= 0 {
		return incomplete(res, "sector median P/B missing")
	}

	res.FairValue = f.SectorMedianPB * f.BVPS
	return res
}
