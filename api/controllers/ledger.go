package controllers

import (
	"net/http"
	"strings"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/api/validators"
	"github.com/zenartworks/revenue-backend/internal/ledger"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
	"github.com/zenartworks/revenue-backend/pkg/pagination"
)

// ListLedgerEntries serves the filtered, cursor-paginated entry listing.
func ListLedgerEntries(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		input := ledger.QueryInput{
			Stream: strings.TrimSpace(r.URL.Query().Get("stream")),
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseLedgerEntryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = status
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.From = from

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.To = to

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Limit = limit

		result, err := svc.Query(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ledgerListResponse{
			Entries:    ledgerEntryResponsesFromModels(result.Entries),
			NextCursor: result.NextCursor,
		})
	}
}

type ledgerListResponse struct {
	Entries    []ledgerEntryResponse `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}
