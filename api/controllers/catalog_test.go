package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/internal/catalog"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
)

type stubCatalogService struct {
	sku        *models.SKU
	resolveErr error
	upsertErr  error

	gotCode  string
	gotInput catalog.UpsertSKUInput
}

func (s *stubCatalogService) Resolve(_ context.Context, code string) (*models.SKU, error) {
	s.gotCode = code
	return s.sku, s.resolveErr
}

func (s *stubCatalogService) Upsert(_ context.Context, input catalog.UpsertSKUInput) (*models.SKU, error) {
	s.gotInput = input
	return s.sku, s.upsertErr
}

func (s *stubCatalogService) List(_ context.Context, _ bool) ([]models.SKU, error) {
	if s.sku == nil {
		return nil, nil
	}
	return []models.SKU{*s.sku}, nil
}

func sampleSKU() *models.SKU {
	return &models.SKU{
		ID:             uuid.New(),
		Code:           "ZEN-ART-BASE",
		UnitPriceMinor: 1999,
		Currency:       enums.CurrencyUSD,
		Active:         true,
	}
}

func TestGetSKU(t *testing.T) {
	logg := testLogger()

	makeRequest := func(stub *stubCatalogService, code string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/skus/"+code, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("code", code)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		GetSKU(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("found", func(t *testing.T) {
		stub := &stubCatalogService{sku: sampleSKU()}
		rec := makeRequest(stub, "ZEN-ART-BASE")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if stub.gotCode != "ZEN-ART-BASE" {
			t.Fatalf("code not forwarded: %q", stub.gotCode)
		}
		var envelope struct {
			Data skuResponse `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.UnitPriceMinor != 1999 {
			t.Fatalf("unexpected price %d", envelope.Data.UnitPriceMinor)
		}
	})

	t.Run("unknown sku", func(t *testing.T) {
		stub := &stubCatalogService{resolveErr: pkgerrors.New(pkgerrors.CodeUnknownSKU, "unknown sku")}
		rec := makeRequest(stub, "GONE")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d", rec.Code)
		}
	})
}

func TestUpsertSKU(t *testing.T) {
	logg := testLogger()

	t.Run("upserts", func(t *testing.T) {
		stub := &stubCatalogService{sku: sampleSKU()}
		body := `{"code":"ZEN-ART-BASE","unit_price_minor":2499,"currency":"USD"}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/skus", strings.NewReader(body))
		rec := httptest.NewRecorder()
		UpsertSKU(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if stub.gotInput.Code != "ZEN-ART-BASE" || stub.gotInput.UnitPriceMinor != 2499 {
			t.Fatalf("input not forwarded: %+v", stub.gotInput)
		}
		if stub.gotInput.Currency != enums.CurrencyUSD {
			t.Fatalf("currency not parsed: %q", stub.gotInput.Currency)
		}
	})

	t.Run("requires currency", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/skus", strings.NewReader(`{"code":"A","unit_price_minor":100}`))
		rec := httptest.NewRecorder()
		UpsertSKU(&stubCatalogService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("rejects negative price", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/skus", strings.NewReader(`{"code":"A","unit_price_minor":-5,"currency":"USD"}`))
		rec := httptest.NewRecorder()
		UpsertSKU(&stubCatalogService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})
}
