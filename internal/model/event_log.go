package model

import "encoding/json"

// EventLog is an event decoded from an EVENT_JSON log line.
type EventLog struct {
	Standard string          `json:"standard"`
	Version  string          `json:"version"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// Delivery is what a handler receives: the decoded event and where it was
// emitted.
type Delivery struct {
	EventLog

	BlockHeight uint64
	BlockHash   string
	TxHash      string
	SignerID    string
	ReceiverID  string
	LogIndex    int
}
