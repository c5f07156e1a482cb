// Package auditgrp maintains the group of handlers for reading and
// appending to the audit ledger.
package auditgrp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/disastersync/ledger/business/core/audit"
	"github.com/disastersync/ledger/business/web/errs"
	"github.com/disastersync/ledger/foundation/events"
	"github.com/disastersync/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Audit *audit.Core
	Evts  *events.Events
	WS    websocket.Upgrader
}

// Blocks returns the full chain, oldest first. The type query parameter
// restricts the result to blocks of that type.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.Audit.Blocks(r.URL.Query().Get("type"))
	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Latest returns the most recent block.
func (h Handlers) Latest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Audit.Latest(), http.StatusOK)
}

// Stats returns the chain summary.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Audit.Stats(), http.StatusOK)
}

// Verify walks the chain and reports the first integrity failure. An
// invalid chain is still a successful request.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Audit.Verify(ctx), http.StatusOK)
}

// Append records an arbitrary event in the ledger.
func (h Handlers) Append(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nr NewRecord
	if err := web.Decode(r, &nr); err != nil {
		return errs.BadRequest(err)
	}

	block, err := h.Audit.Record(ctx, nr.Type, nr.Data)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	return web.Respond(ctx, w, block, http.StatusCreated)
}

// Events handles a web socket to provide live events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The connection has been hijacked so the status code is recorded here
	// for the logger and metrics.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscriber connected", "subscribers", h.Evts.Subscribers())

	// Reads are required to process close and pong frames from the client.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-closed:
			h.Log.Infow("events", "traceid", v.TraceID, "status", "subscriber disconnected")
			return nil
		}
	}
}
