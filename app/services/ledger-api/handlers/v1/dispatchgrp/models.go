package dispatchgrp

import "github.com/disastersync/ledger/foundation/ledger"

// defaultChannels are used when an alert does not name its channels.
var defaultChannels = []string{"SMS", "Push"}

// Set of status values recorded with dispatch events.
const (
	statusDispatched = "Dispatched"
	statusReceived   = "Received"
)

// NewAlert is what a client provides to dispatch an alert.
type NewAlert struct {
	Type     string   `json:"type" validate:"required,max=100"`
	Message  string   `json:"message" validate:"required,max=1000"`
	Target   string   `json:"target" validate:"max=200"`
	Region   string   `json:"region" validate:"max=100"`
	Channels []string `json:"channels" validate:"omitempty,dive,max=50"`
}

// Alert is the dispatched alert as recorded in the ledger.
type Alert struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Target    string   `json:"target,omitempty"`
	Channels  []string `json:"channels"`
	Region    string   `json:"region,omitempty"`
	Timestamp string   `json:"timestamp"`
	Status    string   `json:"status"`
}

// NewDispatch is what a client provides to send a resource to a location.
type NewDispatch struct {
	Destination       string    `json:"destination" validate:"max=200"`
	TargetCoordinates []float64 `json:"targetCoordinates" validate:"omitempty,len=2"`
}

// Dispatch is the resource movement as recorded in the ledger.
type Dispatch struct {
	ResourceID        string    `json:"resourceId"`
	Destination       string    `json:"destination,omitempty"`
	TargetCoordinates []float64 `json:"targetCoordinates,omitempty"`
	Timestamp         string    `json:"timestamp"`
}

// NewReport is what a citizen provides when reporting an incident.
type NewReport struct {
	Type        string `json:"type" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=200"`
}

// Report is the citizen report as recorded in the ledger.
type Report struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}

type alertResponse struct {
	Success    bool         `json:"success"`
	Alert      Alert        `json:"alert"`
	Blockchain ledger.Block `json:"blockchain"`
}

type dispatchResponse struct {
	Success    bool         `json:"success"`
	Dispatch   Dispatch     `json:"dispatch"`
	Blockchain ledger.Block `json:"blockchain"`
}

type reportResponse struct {
	Success    bool         `json:"success"`
	Report     Report       `json:"report"`
	Blockchain ledger.Block `json:"blockchain"`
}
