package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/internal/ingestion"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

// ClearOrder confirms settlement for an order, transitioning its pending
// entries to cleared. Re-clearing an already-cleared order is a no-op.
func ClearOrder(svc ingestion.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingestion service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		result, err := svc.Clear(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, clearResponseFromResult(result))
	}
}

type clearResponse struct {
	Order          orderResponse         `json:"order"`
	Entries        []ledgerEntryResponse `json:"entries"`
	Transitioned   int                   `json:"transitioned"`
	AlreadyCleared bool                  `json:"already_cleared"`
}

func clearResponseFromResult(result *ingestion.ClearResult) clearResponse {
	return clearResponse{
		Order:          orderResponseFromModel(result.Order),
		Entries:        ledgerEntryResponsesFromModels(result.Entries),
		Transitioned:   result.Transitioned,
		AlreadyCleared: result.AlreadyCleared,
	}
}
