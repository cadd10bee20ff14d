package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/api/validators"
	"github.com/zenartworks/revenue-backend/internal/catalog"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

// GetSKU returns a catalog entry by code.
func GetSKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		sku, err := svc.Resolve(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, skuResponseFromModel(sku))
	}
}

// UpsertSKU creates a catalog entry or reprices an existing one. Recorded
// ledger amounts are never rewritten by a price change.
func UpsertSKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload upsertSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpsertInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sku, err := svc.Upsert(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, skuResponseFromModel(sku))
	}
}

type upsertSKURequest struct {
	Code           string `json:"code" validate:"required"`
	UnitPriceMinor int64  `json:"unit_price_minor" validate:"min=0"`
	Currency       string `json:"currency" validate:"required"`
	Active         *bool  `json:"active,omitempty"`
}

func (req upsertSKURequest) toUpsertInput() (catalog.UpsertSKUInput, error) {
	currency, err := enums.ParseCurrency(req.Currency)
	if err != nil {
		return catalog.UpsertSKUInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return catalog.UpsertSKUInput{
		Code:           req.Code,
		UnitPriceMinor: req.UnitPriceMinor,
		Currency:       currency,
		Active:         req.Active,
	}, nil
}

type skuResponse struct {
	ID             uuid.UUID      `json:"id"`
	Code           string         `json:"code"`
	UnitPriceMinor int64          `json:"unit_price_minor"`
	Currency       enums.Currency `json:"currency"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func skuResponseFromModel(m *models.SKU) skuResponse {
	return skuResponse{
		ID:             m.ID,
		Code:           m.Code,
		UnitPriceMinor: m.UnitPriceMinor,
		Currency:       m.Currency,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
