// Package dispatchgrp maintains the group of handlers for the operational
// actions that are recorded in the audit ledger.
package dispatchgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/disastersync/ledger/business/core/audit"
	"github.com/disastersync/ledger/business/web/errs"
	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/disastersync/ledger/foundation/web"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Set of live event names sent for dispatch actions.
const (
	EventNewAlert      = "new-alert"
	EventDispatch      = "resource-dispatch"
	EventCitizenReport = "citizen-report"
)

// Handlers manages the set of dispatch endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Audit *audit.Core
}

// Alert dispatches an alert and records it in the ledger.
func (h Handlers) Alert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var na NewAlert
	if err := web.Decode(r, &na); err != nil {
		return errs.BadRequest(err)
	}

	channels := na.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Type:      na.Type,
		Message:   na.Message,
		Target:    na.Target,
		Channels:  channels,
		Region:    na.Region,
		Timestamp: v.Now.Format(ledger.TimeFormat),
		Status:    statusDispatched,
	}

	block, err := h.Audit.Record(ctx, audit.TypeAlertDispatched, alert)
	if err != nil {
		return fmt.Errorf("alert: %w", err)
	}

	h.Audit.Notify(ctx, EventNewAlert, alert)
	h.Log.Infow("alert dispatched", "traceid", v.TraceID, "id", alert.ID, "type", alert.Type, "region", alert.Region, "channels", alert.Channels)

	resp := alertResponse{
		Success:    true,
		Alert:      alert,
		Blockchain: block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Dispatch records a resource being sent to a destination.
func (h Handlers) Dispatch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	id := strings.TrimSpace(web.Param(r, "id"))
	if id == "" || len(id) > 100 {
		return errs.BadRequest(errors.New("invalid resource id"))
	}

	var nd NewDispatch
	if err := web.Decode(r, &nd); err != nil {
		return errs.BadRequest(err)
	}

	dispatch := Dispatch{
		ResourceID:        id,
		Destination:       nd.Destination,
		TargetCoordinates: nd.TargetCoordinates,
		Timestamp:         v.Now.Format(ledger.TimeFormat),
	}

	block, err := h.Audit.Record(ctx, audit.TypeResourceDispatch, dispatch)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	h.Audit.Notify(ctx, EventDispatch, dispatch)

	resp := dispatchResponse{
		Success:    true,
		Dispatch:   dispatch,
		Blockchain: block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CitizenReport records an incident reported by the public.
func (h Handlers) CitizenReport(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nr NewReport
	if err := web.Decode(r, &nr); err != nil {
		return errs.BadRequest(err)
	}

	report := Report{
		ID:          uuid.NewString(),
		Type:        nr.Type,
		Description: nr.Description,
		Location:    nr.Location,
		Timestamp:   v.Now.Format(ledger.TimeFormat),
		Status:      statusReceived,
	}

	block, err := h.Audit.Record(ctx, audit.TypeCitizenReport, report)
	if err != nil {
		return fmt.Errorf("citizen report: %w", err)
	}

	h.Audit.Notify(ctx, EventCitizenReport, report)

	resp := reportResponse{
		Success:    true,
		Report:     report,
		Blockchain: block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
