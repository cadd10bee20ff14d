package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/internal/ingestion"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

type stubIngestionService struct {
	ingestResult *ingestion.IngestResult
	ingestErr    error
	clearResult  *ingestion.ClearResult
	clearErr     error

	gotEvent   ingestion.CommerceEvent
	gotOrderID uuid.UUID
}

func (s *stubIngestionService) Ingest(_ context.Context, event ingestion.CommerceEvent) (*ingestion.IngestResult, error) {
	s.gotEvent = event
	return s.ingestResult, s.ingestErr
}

func (s *stubIngestionService) Clear(_ context.Context, orderID uuid.UUID) (*ingestion.ClearResult, error) {
	s.gotOrderID = orderID
	return s.clearResult, s.clearErr
}

func sampleIngestResult(duplicate bool) *ingestion.IngestResult {
	orderID := uuid.New()
	return &ingestion.IngestResult{
		Order: &models.Order{
			ID:         orderID,
			Channel:    "shopier",
			ExternalID: "ORD-1",
			Status:     enums.OrderStatusValid,
			OccurredAt: time.Now().UTC(),
		},
		Entries: []models.LedgerEntry{
			{
				ID:          uuid.New(),
				OrderID:     orderID,
				SKUCode:     "ZEN-ART-BASE",
				AmountMinor: 1999,
				Currency:    enums.CurrencyUSD,
				Status:      enums.LedgerEntryStatusCleared,
			},
		},
		Duplicate: duplicate,
	}
}

func TestIngestEvent(t *testing.T) {
	logg := testLogger()
	body := `{"channel":"shopier","external_id":"ORD-1","settled":true,"line_items":[{"sku":"ZEN-ART-BASE","quantity":1}]}`

	t.Run("created", func(t *testing.T) {
		stub := &stubIngestionService{ingestResult: sampleIngestResult(false)}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", rec.Code)
		}
		if stub.gotEvent.Channel != "shopier" || stub.gotEvent.ExternalID != "ORD-1" {
			t.Fatalf("event not forwarded: %+v", stub.gotEvent)
		}
		if !stub.gotEvent.Settled {
			t.Fatalf("settled flag lost")
		}
	})

	t.Run("duplicate replays with 200", func(t *testing.T) {
		stub := &stubIngestionService{ingestResult: sampleIngestResult(true)}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		var envelope struct {
			Data ingestResponse `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !envelope.Data.Duplicate {
			t.Fatalf("expected duplicate flag")
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		stub := &stubIngestionService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"channel":"x","external_id":"y","line_items":[{"sku":"A","quantity":1}],"bogus":true}`))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("rejects empty line items", func(t *testing.T) {
		stub := &stubIngestionService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"channel":"x","external_id":"y","line_items":[]}`))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("rejects invalid currency", func(t *testing.T) {
		stub := &stubIngestionService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"channel":"x","external_id":"y","currency":"DOGE","line_items":[{"sku":"A","quantity":1}]}`))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("maps unknown sku to 422", func(t *testing.T) {
		stub := &stubIngestionService{ingestErr: pkgerrors.New(pkgerrors.CodeUnknownSKU, "unknown sku")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		IngestEvent(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d", rec.Code)
		}
	})
}

func TestClearOrder(t *testing.T) {
	logg := testLogger()
	orderID := uuid.New()

	makeRequest := func(stub *stubIngestionService, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+id+"/clear", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("orderId", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		ClearOrder(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid order id", func(t *testing.T) {
		rec := makeRequest(&stubIngestionService{}, "not-a-uuid")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubIngestionService{clearResult: &ingestion.ClearResult{
			Order:        sampleIngestResult(false).Order,
			Transitioned: 2,
		}}
		rec := makeRequest(stub, orderID.String())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if stub.gotOrderID != orderID {
			t.Fatalf("order id not forwarded")
		}
		var envelope struct {
			Data clearResponse `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.Transitioned != 2 {
			t.Fatalf("expected 2 transitioned got %d", envelope.Data.Transitioned)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubIngestionService{clearErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
		rec := makeRequest(stub, orderID.String())
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d", rec.Code)
		}
	})
}
