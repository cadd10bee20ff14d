package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/api/validators"
	"github.com/zenartworks/revenue-backend/internal/payouts"
	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
	"github.com/zenartworks/revenue-backend/pkg/money"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

// SweepPayout claims all cleared, unclaimed entries of a currency into a new
// payout. A sweep that finds nothing returns swept=false, not an error.
func SweepPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var payload sweepRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		result, err := svc.Sweep(r.Context(), payouts.SweepInput{
			Destination: payload.Destination,
			Currency:    currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !result.Swept {
			responses.WriteSuccess(w, sweepResponse{Swept: false})
			return
		}

		payout := payoutResponseFromModel(result.Payout)
		responses.WriteSuccessStatus(w, http.StatusCreated, sweepResponse{
			Swept:   true,
			Payout:  &payout,
			Entries: ledgerEntryResponsesFromModels(result.Entries),
		})
	}
}

// SubmitPayout hands an initiated payout to the settlement gateway.
func SubmitPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPayoutID(ctx, payoutID.String())
		}

		payout, err := svc.Submit(ctx, payoutID, payload.ExternalRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, payoutResponseFromModel(payout))
	}
}

// ConfirmPayout finishes a processing payout with the gateway's outcome.
func ConfirmPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome := payouts.ConfirmOutcome(strings.ToLower(strings.TrimSpace(payload.Outcome)))

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPayoutID(ctx, payoutID.String())
		}

		result, err := svc.Confirm(ctx, payouts.ConfirmInput{
			PayoutID: payoutID,
			Outcome:  outcome,
			Reason:   payload.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmResponse{
			Payout:          payoutResponseFromModel(result.Payout),
			ReleasedEntries: result.ReleasedEntries,
			AlreadyFinal:    result.AlreadyFinal,
		})
	}
}

// ListPayouts pages through payouts, optionally filtered by status.
func ListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), payouts.ListInput{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]payoutResponse, 0, len(result.Payouts))
		for i := range result.Payouts {
			items = append(items, payoutResponseFromModel(&result.Payouts[i]))
		}
		responses.WriteSuccess(w, payoutListResponse{
			Payouts:    items,
			NextCursor: result.NextCursor,
		})
	}
}

// GetPayout returns a payout by id.
func GetPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		payout, err := svc.Get(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payoutResponseFromModel(payout))
	}
}

type sweepRequest struct {
	Destination string `json:"destination" validate:"required"`
	Currency    string `json:"currency" validate:"required"`
}

type submitRequest struct {
	ExternalRef string `json:"external_ref" validate:"required"`
}

type confirmRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=completed failed"`
	Reason  string `json:"reason"`
}

type payoutResponse struct {
	ID          uuid.UUID          `json:"id"`
	ExternalRef string             `json:"external_ref,omitempty"`
	AmountMinor int64              `json:"amount_minor"`
	Amount      string             `json:"amount"`
	Currency    enums.Currency     `json:"currency"`
	Destination string             `json:"destination"`
	Status      enums.PayoutStatus `json:"status"`
	LedgerCount int                `json:"ledger_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type sweepResponse struct {
	Swept   bool                  `json:"swept"`
	Payout  *payoutResponse       `json:"payout,omitempty"`
	Entries []ledgerEntryResponse `json:"entries,omitempty"`
}

type confirmResponse struct {
	Payout          payoutResponse `json:"payout"`
	ReleasedEntries int64          `json:"released_entries"`
	AlreadyFinal    bool           `json:"already_final"`
}

type payoutListResponse struct {
	Payouts    []payoutResponse `json:"payouts"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func payoutResponseFromModel(m *models.Payout) payoutResponse {
	return payoutResponse{
		ID:          m.ID,
		ExternalRef: m.ExternalRef,
		AmountMinor: m.AmountMinor,
		Amount:      money.FormatMinor(m.AmountMinor, m.Currency),
		Currency:    m.Currency,
		Destination: m.Destination,
		Status:      m.Status,
		LedgerCount: m.LedgerCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
