package controllers

import (
	"net/http"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/api/validators"
	"github.com/zenartworks/revenue-backend/internal/analytics"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

// AnalyticsSummary aggregates the ledger inside the [from, to) window.
func AnalyticsSummary(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summarize(r.Context(), analytics.Window{From: from, To: to})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
