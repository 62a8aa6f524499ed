package mailbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gmailUser = "me"

type GmailProvider struct {
	svc *gmail.Service
}

// NewGmailProvider builds the provider over an authorized HTTP client.
func NewGmailProvider(ctx context.Context, client *http.Client) (*GmailProvider, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &GmailProvider{svc: svc}, nil
}

func (p *GmailProvider) Search(ctx context.Context, q Query, max int) ([]string, error) {
	call := p.svc.Users.Messages.List(gmailUser).Q(q.String()).Context(ctx)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m == nil || m.Id == "" {
			continue
		}
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (p *GmailProvider) Get(ctx context.Context, id string) (RawMessage, error) {
	msg, err := p.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return RawMessage{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
		}
		return RawMessage{}, fmt.Errorf("gmail get %s: %w", id, err)
	}
	return FromGmailMessage(msg), nil
}

// FromGmailMessage copies the headers and part tree out of an API message.
func FromGmailMessage(m *gmail.Message) RawMessage {
	if m == nil {
		return RawMessage{}
	}
	out := RawMessage{ID: m.Id}
	if m.Payload == nil {
		return out
	}
	for _, h := range m.Payload.Headers {
		if h == nil {
			continue
		}
		out.Headers = append(out.Headers, Header{Name: h.Name, Value: h.Value})
	}
	root := convertGmailPart(m.Payload)
	out.Payload = &root
	return out
}

func convertGmailPart(p *gmail.MessagePart) Part {
	part := Part{MimeType: p.MimeType}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, c := range p.Parts {
		if c == nil {
			continue
		}
		part.Parts = append(part.Parts, convertGmailPart(c))
	}
	return part
}
