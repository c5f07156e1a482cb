package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/disastersync/ledger/business/sys/metrics"
	"github.com/disastersync/ledger/foundation/web"
)

// Metrics updates program counters for every request. It must run outside of
// Errors so the final status code is known.
func Metrics(m *metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			// Call the next handler.
			err := handler(ctx, w, r)

			route := r.URL.Path
			status := 0
			if v, verr := web.GetValues(ctx); verr == nil {
				route = v.Route
				status = v.StatusCode
			}

			m.ObserveRequest(r.Method, route, status, time.Since(start))
			if err != nil || status >= http.StatusBadRequest {
				m.Error()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return mw
}
