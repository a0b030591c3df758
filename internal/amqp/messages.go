package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types carried on the ledger events queue.
const (
	TypeTransactionCreated = "transaction.created"
	TypeUploadProcessed    = "upload.processed"
)

// Envelope wraps every published message with its type and timestamp so a
// single queue can carry multiple event kinds.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// TransactionCreatedPayload announces a newly persisted transaction.
// Consumers fetch the full row from the database by id.
type TransactionCreatedPayload struct {
	ID int64 `json:"id"`
}

// UploadProcessedPayload announces a completed screenshot upload with its
// final counters.
type UploadProcessedPayload struct {
	UploadID   int64  `json:"upload_id"`
	SourceApp  string `json:"source_app"`
	Extracted  int    `json:"extracted"`
	Duplicates int    `json:"duplicates"`
}

// NewTransactionCreated builds an envelope for a created transaction.
func NewTransactionCreated(id int64) (*Envelope, error) {
	return newEnvelope(TypeTransactionCreated, TransactionCreatedPayload{ID: id})
}

// NewUploadProcessed builds an envelope for a processed upload.
func NewUploadProcessed(p UploadProcessedPayload) (*Envelope, error) {
	return newEnvelope(TypeUploadProcessed, p)
}

func newEnvelope(msgType string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &Envelope{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   body,
	}, nil
}

// ToJSON serializes the envelope for publishing.
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON deserializes a consumed message body.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return &e, nil
}

// TransactionCreated decodes the payload of a transaction.created message.
func (e *Envelope) TransactionCreated() (TransactionCreatedPayload, error) {
	var p TransactionCreatedPayload
	if e.Type != TypeTransactionCreated {
		return p, fmt.Errorf("message type is %s, not %s", e.Type, TypeTransactionCreated)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return p, nil
}

// UploadProcessed decodes the payload of an upload.processed message.
func (e *Envelope) UploadProcessed() (UploadProcessedPayload, error) {
	var p UploadProcessedPayload
	if e.Type != TypeUploadProcessed {
		return p, fmt.Errorf("message type is %s, not %s", e.Type, TypeUploadProcessed)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return p, nil
}
