package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/zenartworks/revenue-backend/api/responses"
	"github.com/zenartworks/revenue-backend/pkg/config"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
	"github.com/zenartworks/revenue-backend/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Revenue-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes every wired dependency. Nil pingers are skipped so the
// worker binaries can reuse the handler with a smaller dependency set.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, pubsub, bigquery pinger) http.HandlerFunc {
	checks := []struct {
		name string
		ping pinger
	}{
		{"db", db},
		{"redis", redis},
		{"pubsub", pubsub},
		{"bigquery", bigquery},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		status := map[string]string{}
		for _, check := range checks {
			if check.ping == nil {
				continue
			}
			if err := check.ping.Ping(ctx); err != nil {
				status[check.name] = "unreachable"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unreachable").WithDetails(status))
				return
			}
			status[check.name] = "ok"
		}

		w.Header().Set("X-Revenue-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}
