// Package audit provides the business access to the audit ledger. Every
// auditable event in the system is recorded through this package so the
// block is counted and published to live subscribers.
package audit

import (
	"context"
	"fmt"

	"github.com/disastersync/ledger/business/sys/metrics"
	"github.com/disastersync/ledger/foundation/events"
	"github.com/disastersync/ledger/foundation/ledger"
	"github.com/disastersync/ledger/foundation/web"
	"go.uber.org/zap"
)

// Set of event types recorded by the system.
const (
	TypeAlertDispatched  = "ALERT_DISPATCHED"
	TypeResourceDispatch = "RESOURCE_DISPATCH"
	TypeCitizenReport    = "CITIZEN_REPORT"
)

// EventBlock is the name of the live event sent for every new block.
const EventBlock = "block"

// Core manages the set of APIs for audit access.
type Core struct {
	log     *zap.SugaredLogger
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
	evts    *events.Events
}

// NewCore constructs a core for audit api access.
func NewCore(log *zap.SugaredLogger, l *ledger.Ledger, m *metrics.Metrics, evts *events.Events) *Core {
	return &Core{
		log:     log,
		ledger:  l,
		metrics: m,
		evts:    evts,
	}
}

// Record appends a block for the event and publishes it.
func (c *Core) Record(ctx context.Context, typ string, data any) (ledger.Block, error) {
	block, err := c.ledger.Append(typ, data)
	if err != nil {
		return ledger.Block{}, fmt.Errorf("record %s: %w", typ, err)
	}

	c.metrics.BlockAppended(typ)
	c.log.Infow("audit", "traceid", web.GetTraceID(ctx), "status", "block recorded", "index", block.Index, "type", block.Type, "hash", block.Hash)

	c.Notify(ctx, EventBlock, block)

	return block, nil
}

// Notify publishes a named event to live subscribers.
func (c *Core) Notify(ctx context.Context, name string, data any) {
	if err := c.evts.Send(name, data); err != nil {
		c.log.Errorw("audit", "traceid", web.GetTraceID(ctx), "status", "notify", "event", name, "ERROR", err)
	}
}

// Blocks returns the chain, oldest first. When a type is provided only the
// blocks of that type are returned.
func (c *Core) Blocks(typ string) []ledger.Block {
	blocks := c.ledger.All()
	if typ == "" {
		return blocks
	}

	filtered := make([]ledger.Block, 0, len(blocks))
	for _, block := range blocks {
		if block.Type == typ {
			filtered = append(filtered, block)
		}
	}
	return filtered
}

// Latest returns the most recent block.
func (c *Core) Latest() ledger.Block {
	return c.ledger.Latest()
}

// Stats returns the chain summary.
func (c *Core) Stats() ledger.Stats {
	return c.ledger.Stats()
}

// Verify checks the integrity of the chain.
func (c *Core) Verify(ctx context.Context) ledger.VerificationResult {
	res := c.ledger.Verify()
	c.metrics.Verified(res.Valid)

	if !res.Valid {
		c.log.Warnw("audit", "traceid", web.GetTraceID(ctx), "status", "integrity check failed", "error", res.Error, "invalidBlock", *res.InvalidBlock)
	}

	return res
}
