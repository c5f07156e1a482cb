package auditgrp

import "encoding/json"

// NewRecord is what a client provides to append an arbitrary audit record.
type NewRecord struct {
	Type string          `json:"type" validate:"required,max=100"`
	Data json.RawMessage `json:"data"`
}
