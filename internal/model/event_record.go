package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// recordNamespace scopes the name-based record IDs.
var recordNamespace = uuid.MustParse("6f1c5b8e-3d0a-4c55-9a57-2f8de0c4b1a3")

// EventRecord is the normalized representation of a delivered event for storage.
type EventRecord struct {
	ID          string          `json:"id"`
	Standard    string          `json:"standard"`
	Version     string          `json:"version"`
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
	TxHash      string          `json:"tx_hash"`
	SignerID    string          `json:"signer_id"`
	ReceiverID  string          `json:"receiver_id"`
	LogIndex    int             `json:"log_index"`
	ReceivedAt  string          `json:"received_at"`
}

// RecordID derives a stable ID for the event at logIndex of txHash, so that
// sinks can ignore an event delivered twice.
func RecordID(txHash string, logIndex int) string {
	return uuid.NewSHA1(recordNamespace, []byte(txHash+":"+strconv.Itoa(logIndex))).String()
}

// NewEventRecord builds a storage record from a delivery.
func NewEventRecord(d Delivery, receivedAt time.Time) EventRecord {
	data := d.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return EventRecord{
		ID:          RecordID(d.TxHash, d.LogIndex),
		Standard:    d.Standard,
		Version:     d.Version,
		Event:       d.Event,
		Data:        data,
		BlockHeight: d.BlockHeight,
		BlockHash:   d.BlockHash,
		TxHash:      d.TxHash,
		SignerID:    d.SignerID,
		ReceiverID:  d.ReceiverID,
		LogIndex:    d.LogIndex,
		ReceivedAt:  receivedAt.UTC().Format(time.RFC3339Nano),
	}
}
