package mailbox

import (
	"context"
	"errors"
)

var ErrMessageNotFound = errors.New("message not found")

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Part is one node of a message body tree. Data is base64url encoded.
type Part struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data,omitempty"`
	Parts    []Part `json:"parts,omitempty"`
}

type RawMessage struct {
	ID      string   `json:"id"`
	Headers []Header `json:"headers"`
	Payload *Part    `json:"payload,omitempty"`
}

// Provider is a searchable mailbox.
type Provider interface {
	Search(ctx context.Context, q Query, max int) ([]string, error)
	Get(ctx context.Context, id string) (RawMessage, error)
}
