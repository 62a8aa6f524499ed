package mailbox

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"

	"autotasker-engine/internal/domain"
)

const MaxBodyChars = 5000

const (
	ReasonMissingPayload  = "missing_payload"
	ReasonUndecodableBody = "undecodable_body"
)

// Extraction carries either an email or the reason it could not be built.
type Extraction struct {
	Email  domain.ExtractedEmail
	Reason string
}

func (e Extraction) OK() bool { return e.Reason == "" }

func Extract(m RawMessage) Extraction {
	if m.Payload == nil {
		return Extraction{Reason: ReasonMissingPayload}
	}

	body, err := assembleBody(*m.Payload)
	if err != nil {
		return Extraction{Reason: ReasonUndecodableBody}
	}

	return Extraction{Email: domain.ExtractedEmail{
		Subject: headerValue(m.Headers, "Subject"),
		Sender:  headerValue(m.Headers, "From"),
		Date:    headerValue(m.Headers, "Date"),
		Body:    normalizeBody(body),
	}}
}

func headerValue(hs []Header, name string) string {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func assembleBody(root Part) (string, error) {
	if root.Data != "" {
		return decodePartData(root.Data)
	}
	var sb strings.Builder
	if err := collectPlain(root.Parts, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// collectPlain appends every text/plain part depth-first, in encounter order.
func collectPlain(parts []Part, sb *strings.Builder) error {
	for _, p := range parts {
		if strings.EqualFold(p.MimeType, "text/plain") && p.Data != "" {
			s, err := decodePartData(p.Data)
			if err != nil {
				return err
			}
			sb.WriteString(s)
		}
		if len(p.Parts) > 0 {
			if err := collectPlain(p.Parts, sb); err != nil {
				return err
			}
		}
	}
	return nil
}

var errUndecodable = errors.New("undecodable part data")

func decodePartData(s string) (string, error) {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}
	return "", errUndecodable
}

func normalizeBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if utf8.RuneCountInString(s) > MaxBodyChars {
		s = string([]rune(s)[:MaxBodyChars])
	}
	return strings.TrimSpace(s)
}
