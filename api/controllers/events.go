package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/api/validators"
	"github.com/zenartworks/revenue-backend/internal/ingestion"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

// IngestEvent accepts a normalized commerce event from a channel adapter.
// Replays of the same (channel, external_id) return the original rows with a
// 200 instead of a 201.
func IngestEvent(svc ingestion.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingestion service unavailable"))
			return
		}

		var payload ingestEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := payload.toCommerceEvent()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithChannel(ctx, event.Channel)
		}

		result, err := svc.Ingest(ctx, event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, ingestResponseFromResult(result))
	}
}

type ingestEventRequest struct {
	Channel      string            `json:"channel" validate:"required"`
	ExternalID   string            `json:"external_id" validate:"required"`
	LineItems    []lineItemRequest `json:"line_items" validate:"required,min=1,dive"`
	Timestamp    time.Time         `json:"timestamp"`
	Settled      bool              `json:"settled"`
	QualityScore float64           `json:"quality_score" validate:"omitempty,gte=0,lte=1"`
	Stream       string            `json:"stream"`
	Currency     string            `json:"currency"`
}

type lineItemRequest struct {
	SKU               string `json:"sku" validate:"required"`
	Quantity          int64  `json:"quantity" validate:"required,min=1"`
	UnitPriceOverride *int64 `json:"unit_price_override,omitempty" validate:"omitempty,min=0"`
}

func (req ingestEventRequest) toCommerceEvent() (ingestion.CommerceEvent, error) {
	event := ingestion.CommerceEvent{
		Channel:      req.Channel,
		ExternalID:   req.ExternalID,
		OccurredAt:   req.Timestamp,
		Settled:      req.Settled,
		QualityScore: req.QualityScore,
		Stream:       req.Stream,
	}
	if req.Currency != "" {
		currency, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			return ingestion.CommerceEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		event.Currency = currency
	}
	for _, line := range req.LineItems {
		event.LineItems = append(event.LineItems, ingestion.LineItem{
			SKUCode:                line.SKU,
			Quantity:               line.Quantity,
			UnitPriceOverrideMinor: line.UnitPriceOverride,
		})
	}
	return event, nil
}

type orderResponse struct {
	ID           uuid.UUID         `json:"id"`
	Channel      string            `json:"channel"`
	ExternalID   string            `json:"external_id"`
	Status       enums.OrderStatus `json:"status"`
	QualityScore float64           `json:"quality_score"`
	OccurredAt   time.Time         `json:"occurred_at"`
	CreatedAt    time.Time         `json:"created_at"`
}

type ledgerEntryResponse struct {
	ID          uuid.UUID               `json:"id"`
	OrderID     uuid.UUID               `json:"order_id"`
	SKUCode     string                  `json:"sku"`
	LineIndex   int                     `json:"line_index"`
	AmountMinor int64                   `json:"amount_minor"`
	Currency    enums.Currency          `json:"currency"`
	Status      enums.LedgerEntryStatus `json:"status"`
	Stream      string                  `json:"stream,omitempty"`
	PayoutID    *uuid.UUID              `json:"payout_id,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	ClearedAt   *time.Time              `json:"cleared_at,omitempty"`
}

type ingestResponse struct {
	Order     orderResponse         `json:"order"`
	Entries   []ledgerEntryResponse `json:"entries"`
	Duplicate bool                  `json:"duplicate"`
}

func orderResponseFromModel(m *models.Order) orderResponse {
	return orderResponse{
		ID:           m.ID,
		Channel:      m.Channel,
		ExternalID:   m.ExternalID,
		Status:       m.Status,
		QualityScore: m.QualityScore,
		OccurredAt:   m.OccurredAt,
		CreatedAt:    m.CreatedAt,
	}
}

func ledgerEntryResponseFromModel(m models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:          m.ID,
		OrderID:     m.OrderID,
		SKUCode:     m.SKUCode,
		LineIndex:   m.LineIndex,
		AmountMinor: m.AmountMinor,
		Currency:    m.Currency,
		Status:      m.Status,
		Stream:      m.Stream,
		PayoutID:    m.PayoutID,
		CreatedAt:   m.CreatedAt,
		ClearedAt:   m.ClearedAt,
	}
}

func ledgerEntryResponsesFromModels(entries []models.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ledgerEntryResponseFromModel(entry))
	}
	return out
}

func ingestResponseFromResult(result *ingestion.IngestResult) ingestResponse {
	return ingestResponse{
		Order:     orderResponseFromModel(result.Order),
		Entries:   ledgerEntryResponsesFromModels(result.Entries),
		Duplicate: result.Duplicate,
	}
}
