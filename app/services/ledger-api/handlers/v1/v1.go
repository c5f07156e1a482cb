// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/disastersync/ledger/app/services/ledger-api/handlers/v1/auditgrp"
	"github.com/disastersync/ledger/app/services/ledger-api/handlers/v1/dispatchgrp"
	"github.com/disastersync/ledger/business/core/audit"
	"github.com/disastersync/ledger/foundation/events"
	"github.com/disastersync/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Audit       *audit.Core
	Evts        *events.Events
	CheckOrigin func(r *http.Request) bool
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	agh := auditgrp.Handlers{
		Log:   cfg.Log,
		Audit: cfg.Audit,
		Evts:  cfg.Evts,
		WS:    websocket.Upgrader{CheckOrigin: cfg.CheckOrigin},
	}

	app.Handle(http.MethodGet, version, "/events", agh.Events)
	app.Handle(http.MethodGet, version, "/blockchain", agh.Blocks)
	app.Handle(http.MethodGet, version, "/blockchain/latest", agh.Latest)
	app.Handle(http.MethodGet, version, "/blockchain/stats", agh.Stats)
	app.Handle(http.MethodGet, version, "/blockchain/verify", agh.Verify)
	app.Handle(http.MethodPost, version, "/blockchain", agh.Append)

	dgh := dispatchgrp.Handlers{
		Log:   cfg.Log,
		Audit: cfg.Audit,
	}

	app.Handle(http.MethodPost, version, "/alerts", dgh.Alert)
	app.Handle(http.MethodPost, version, "/resources/:id/dispatch", dgh.Dispatch)
	app.Handle(http.MethodPost, version, "/citizen-report", dgh.CitizenReport)
}
