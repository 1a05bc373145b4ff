package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vietquant/vietval/internal/config"
	"github.com/vietquant/vietval/internal/fundamentals"
	"github.com/vietquant/vietval/pkg/models"
)

// fakeProvider serves canned fundamentals without any upstream.
type fakeProvider struct {
	bundle *models.FundamentalsBundle
	err    error
}

func (p *fakeProvider) GetFundamentals(_ context.Context, symbol string) (*models.FundamentalsBundle, error) {
	if p.err != nil {
		return nil, p.err
	}
	b := *p.bundle
	b.Symbol = symbol
	return &b, nil
}

func (p *fakeProvider) GetPeers(context.Context, string) ([]models.PeerComparable, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []models.PeerComparable{
		{Symbol: "MSN", Name: "Masan Group", MarketCap: 120e12, PE: 18.2, PB: 2.9},
	}, nil
}

func (p *fakeProvider) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.Quote{Symbol: symbol, Price: p.bundle.CurrentPrice}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Valuation: config.ValuationConfig{
			RevenueGrowth:   8.0,
			TerminalGrowth:  3.0,
			WACC:            10.5,
			RequiredReturn:  12.0,
			TaxRate:         20.0,
			ProjectionYears: 5,
			Graham:          config.GrahamConfig{Multiplier: 22.5, ExcludeBanks: true},
			FallbackPE:      15.0,
			FallbackPB:      1.5,
		},
	}
}

func testServer() *Server {
	provider := &fakeProvider{
		bundle: &models.FundamentalsBundle{
			Symbol:            "VNM",
			Industry:          "Food & Beverage",
			NetIncome:         9500e9,
			Depreciation:      2300e9,
			CapEx:             1800e9,
			SharesOutstanding: 2.09e9,
			CurrentPrice:      62300,
			EPS:               4500,
			BVPS:              17000,
			SectorMedianPE:    13.5,
			SectorMedianPB:    2.4,
		},
	}
	return NewServer(testConfig(), provider)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("health should report success")
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["market_status"] == "" {
		t.Error("health should include market status")
	}
}

func TestValuationEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/vnm", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("valuation failed: %s", resp.Error)
	}

	data, _ := resp.Data.(map[string]interface{})
	if data["symbol"] != "VNM" {
		t.Errorf("symbol = %v, want VNM (normalized)", data["symbol"])
	}
	if wa, _ := data["weighted_average"].(float64); wa <= 0 {
		t.Errorf("weighted average = %v, want > 0", data["weighted_average"])
	}
	if data["recommendation"] == "" {
		t.Error("recommendation missing")
	}
}

func TestValuationWithWeightOverrides(t *testing.T) {
	srv := testServer()

	// Put all weight on the justified P/E model: 13.5 × 4500 = 60750.
	body := map[string]interface{}{
		"weights": map[string]interface{}{
			"justified_pe": map[string]interface{}{"enabled": true, "weight": 100},
		},
	}
	raw, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/VNM", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data, _ := resp.Data.(map[string]interface{})
	if wa, _ := data["weighted_average"].(float64); wa != 60750 {
		t.Errorf("weighted average = %v, want 60750", wa)
	}
}

func TestValuationUnknownModelWeight(t *testing.T) {
	srv := testServer()

	raw := []byte(`{"weights":{"dividend_discount":{"enabled":true,"weight":50}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/VNM", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown model", rec.Code)
	}
}

func TestValuationInvalidSymbol(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/TOOLONG", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid symbol", rec.Code)
	}
}

func TestValuationProviderFailure(t *testing.T) {
	srv := NewServer(testConfig(), &fakeProvider{err: fundamentals.ErrDataUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/VNM", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 when upstream data is unavailable", rec.Code)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote/VNM", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, _ := resp.Data.(map[string]interface{})
	if price, _ := data["price"].(float64); price != 62300 {
		t.Errorf("price = %v, want 62300", price)
	}
}

func TestPeersEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/peers/VNM", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MSN") {
		t.Error("peers response missing MSN")
	}
}

func TestExportCSV(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/VNM?format=csv", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "VNM_valuation_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "summary,symbol,VNM") {
		t.Error("CSV body missing summary section")
	}
}

func TestExportXLSX(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/VNM", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.Bytes()
	if len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Error("xlsx export does not look like a zip container")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/VNM?format=pdf", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unsupported format", rec.Code)
	}
}
