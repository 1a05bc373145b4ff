package fundamentals

import (
	"strconv"
	"strings"

	"github.com/vietquant/vietval/internal/valuation"
	"github.com/vietquant/vietval/pkg/models"
)

// Mapper converts the provider's loosely-typed payloads into the
// canonical FundamentalsBundle. The upstream feeds name the same
// concept many ways (eps_ttm / eps / earnings_per_share, ...), so each
// canonical field is resolved from an alias chain exactly once, here at
// the boundary — the calculators only ever see one name per concept.
type Mapper struct {
	fallbackPE float64
	fallbackPB float64
}

// NewMapper creates a mapper with the given fallback sector multiples,
// used when the provider has no medians for the symbol's industry.
func NewMapper(fallbackPE, fallbackPB float64) *Mapper {
	if fallbackPE <= 0 {
		fallbackPE = 15.0
	}
	if fallbackPB <= 0 {
		fallbackPB = 1.5
	}
	return &Mapper{fallbackPE: fallbackPE, fallbackPB: fallbackPB}
}

// pickFloat returns the first alias present in raw that parses to a
// number. Missing fields resolve to 0.
func pickFloat(raw map[string]any, aliases ...string) float64 {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func pickString(raw map[string]any, aliases ...string) string {
	for _, key := range aliases {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func pickFloats(raw map[string]any, key string) []float64 {
	arr, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// isBankIndustry detects banks from the industry label, in either the
// provider's English or Vietnamese naming.
func isBankIndustry(industry string) bool {
	s := strings.ToLower(industry)
	return strings.Contains(s, "bank") || strings.Contains(s, "ngân hàng")
}

// MapBundle builds the canonical bundle from the financials payload,
// the comparables payload, and the (possibly nil) raw price board.
func (m *Mapper) MapBundle(symbol string, fin map[string]any, cmp *comparablesPayload, quoteRaw map[string]any) *models.FundamentalsBundle {
	b := &models.FundamentalsBundle{
		Symbol:    symbol,
		OrganName: pickString(fin, "organ_name", "company_name", "name"),

		NetIncome:           pickFloat(fin, "net_income_ttm", "net_income", "profit_after_tax", "pat"),
		Depreciation:        pickFloat(fin, "depreciation_amortisation", "depreciation", "depreciation_and_amortization"),
		InterestExpense:     pickFloat(fin, "interest_expense", "interest_paid"),
		ChangeReceivables:   pickFloat(fin, "change_in_receivables", "increase_decrease_in_receivables"),
		ChangeInventories:   pickFloat(fin, "change_in_inventories", "increase_decrease_in_inventories"),
		ChangePayables:      pickFloat(fin, "change_in_payables", "increase_decrease_in_payables"),
		ProceedsBorrowings:  pickFloat(fin, "proceeds_from_borrowings", "borrowings_received"),
		RepaymentBorrowings: pickFloat(fin, "repayment_of_borrowings", "borrowings_repaid"),
		CapEx:               pickFloat(fin, "capex", "capital_expenditure", "purchase_of_fixed_assets"),
		ShortTermDebt:       pickFloat(fin, "short_term_debt", "short_term_borrowings"),
		LongTermDebt:        pickFloat(fin, "long_term_debt", "long_term_borrowings"),
		Cash:                pickFloat(fin, "cash_and_equivalents", "cash", "cash_equivalents"),
		TaxRate:             pickFloat(fin, "effective_tax_rate", "tax_rate"),

		EPS:  pickFloat(fin, "eps_ttm", "eps", "earnings_per_share"),
		BVPS: pickFloat(fin, "bvps", "book_value_per_share"),

		ProjectedFCFE: pickFloats(fin, "projected_fcfe"),
		ProjectedFCFF: pickFloats(fin, "projected_fcff"),
	}

	// Shares outstanding arrives either raw or in millions.
	b.SharesOutstanding = pickFloat(fin, "shares_outstanding")
	if b.SharesOutstanding == 0 {
		b.SharesOutstanding = pickFloat(fin, "shares_outstanding_mn", "issue_share") * 1e6
	}

	// Derive BVPS from equity when the feed omits it.
	if b.BVPS <= 0 && b.SharesOutstanding > 0 {
		if equity := pickFloat(fin, "total_equity", "owners_equity"); equity > 0 {
			b.BVPS = equity / b.SharesOutstanding
		}
	}
	if cmp != nil {
		b.Industry = cmp.Industry
		b.SectorMedianPE = cmp.MedianPE
		b.SectorMedianPB = cmp.MedianPB
	}
	if b.Industry == "" {
		b.Industry = pickString(fin, "industry", "icb_name")
	}
	b.IsBank = isBankIndustry(b.Industry)

	if b.SectorMedianPE <= 0 {
		b.SectorMedianPE = m.fallbackPE
	}
	if b.SectorMedianPB <= 0 {
		b.SectorMedianPB = m.fallbackPB
	}

	if quoteRaw != nil {
		q := m.MapQuote(symbol, quoteRaw)
		b.CurrentPrice = q.Price
	}
	if b.CurrentPrice <= 0 {
		b.CurrentPrice = valuation.NormalizePrice(pickFloat(fin, "current_price", "close_price"))
	}

	return b
}

// MapQuote resolves the price-board alias chains and normalizes every
// price-like field to VND.
func (m *Mapper) MapQuote(symbol string, raw map[string]any) *models.Quote {
	q := &models.Quote{
		Symbol:        symbol,
		Price:         pickFloat(raw, "price", "c", "close", "match_price"),
		Open:          pickFloat(raw, "open", "op", "o"),
		High:          pickFloat(raw, "high", "h"),
		Low:           pickFloat(raw, "low", "l"),
		Ceiling:       pickFloat(raw, "ceiling", "cei"),
		Floor:         pickFloat(raw, "floor", "flo"),
		Reference:     pickFloat(raw, "ref_price", "ref", "reference"),
		Change:        pickFloat(raw, "change", "ch"),
		ChangePercent: pickFloat(raw, "change_percent", "change_pct", "pct_change"),
		Volume:        int64(pickFloat(raw, "volume", "vol", "total_volume")),
	}
	valuation.NormalizeQuote(q)
	return q
}
