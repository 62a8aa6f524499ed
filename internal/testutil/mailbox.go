package testutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"autotasker-engine/internal/mailbox"
)

// FakeMailbox serves messages in insertion order.
type FakeMailbox struct {
	mu        sync.Mutex
	order     []string
	msgs      map[string]mailbox.RawMessage
	SearchErr error
	GetErr    map[string]error
	Queries   []mailbox.Query
}

func NewFakeMailbox(msgs ...mailbox.RawMessage) *FakeMailbox {
	f := &FakeMailbox{msgs: map[string]mailbox.RawMessage{}, GetErr: map[string]error{}}
	for _, m := range msgs {
		f.order = append(f.order, m.ID)
		f.msgs[m.ID] = m
	}
	return f
}

func (f *FakeMailbox) Search(_ context.Context, q mailbox.Query, max int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, q)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	ids := append([]string(nil), f.order...)
	if max > 0 && len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *FakeMailbox) Get(_ context.Context, id string) (mailbox.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.GetErr[id]; err != nil {
		return mailbox.RawMessage{}, err
	}
	m, ok := f.msgs[id]
	if !ok {
		return mailbox.RawMessage{}, fmt.Errorf("%w: %s", mailbox.ErrMessageNotFound, id)
	}
	return m, nil
}

// PlainMessage builds a single-part text message.
func PlainMessage(id, subject, sender, body string) mailbox.RawMessage {
	return mailbox.RawMessage{
		ID: id,
		Headers: []mailbox.Header{
			{Name: "Subject", Value: subject},
			{Name: "From", Value: sender},
			{Name: "Date", Value: "Mon, 3 Mar 2025 10:00:00 +0000"},
		},
		Payload: &mailbox.Part{
			MimeType: "text/plain",
			Data:     base64.URLEncoding.EncodeToString([]byte(body)),
		},
	}
}
