package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"go.uber.org/zap"
)

type IMAPConfig struct {
	Addr     string
	Username string
	Mailbox  string
	TLS      *tls.Config
	Password func() (string, error)
}

// IMAPProvider serves the same contract as the Gmail API over plain IMAP.
// Message ids are UIDs within the selected mailbox.
type IMAPProvider struct {
	cfg IMAPConfig
	log *zap.SugaredLogger

	mu     sync.Mutex
	client *imapclient.Client
}

func NewIMAPProvider(cfg IMAPConfig, log *zap.SugaredLogger) *IMAPProvider {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &IMAPProvider{cfg: cfg, log: log}
}

func (p *IMAPProvider) session() (*imapclient.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	if p.cfg.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if p.cfg.Password == nil {
		return nil, errors.New("imap password source is required")
	}
	pw, err := p.cfg.Password()
	if err != nil {
		return nil, err
	}
	if p.cfg.Username == "" || pw == "" {
		return nil, errors.New("imap username/password is required")
	}
	tlsCfg := p.cfg.TLS
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c, err := imapclient.DialTLS(p.cfg.Addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}
	if err := c.Login(p.cfg.Username, pw).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(p.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap select %s: %w", p.cfg.Mailbox, err)
	}
	p.log.Infow("imap session opened", "addr", p.cfg.Addr, "mailbox", p.cfg.Mailbox)
	p.client = c
	return c, nil
}

// reset drops a session after a failed command so the next call redials.
func (p *IMAPProvider) reset() {
	if p.client != nil {
		_ = p.client.Close()
		p.client = nil
	}
}

func (p *IMAPProvider) Search(ctx context.Context, q Query, max int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.session()
	if err != nil {
		return nil, err
	}
	data, err := c.UIDSearch(SearchCriteria(q), nil).Wait()
	if err != nil {
		p.reset()
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := data.AllUIDs()
	// newest first, like the Gmail API
	slices.Reverse(uids)
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}
	ids := make([]string, 0, len(uids))
	for _, u := range uids {
		ids = append(ids, strconv.FormatUint(uint64(u), 10))
	}
	return ids, nil
}

func (p *IMAPProvider) Get(ctx context.Context, id string) (RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return RawMessage{}, err
	}
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return RawMessage{}, fmt.Errorf("%w: %q is not a uid", ErrMessageNotFound, id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.session()
	if err != nil {
		return RawMessage{}, err
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := c.Fetch(imap.UIDSetNum(imap.UID(n)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	bufs, err := cmd.Collect()
	if err != nil {
		p.reset()
		return RawMessage{}, fmt.Errorf("imap fetch %s: %w", id, err)
	}
	if len(bufs) == 0 {
		return RawMessage{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	raw := bufs[0].FindBodySection(bodyAll)
	if len(raw) == 0 {
		return RawMessage{}, fmt.Errorf("%w: %s has no body", ErrMessageNotFound, id)
	}
	return ParseRFC822(id, raw)
}

// Close logs out and closes the session if one is open.
func (p *IMAPProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	if err := p.client.Logout().Wait(); err != nil {
		p.log.Warnw("imap logout", "err", err)
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// SearchCriteria maps a query to SINCE plus a nested OR of TEXT terms.
func SearchCriteria(q Query) *imap.SearchCriteria {
	c := orText(q.Terms)
	if c == nil {
		c = &imap.SearchCriteria{}
	}
	c.Since = q.After
	return c
}

func orText(terms []string) *imap.SearchCriteria {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return &imap.SearchCriteria{Text: []string{terms[0]}}
	}
	rest := orText(terms[1:])
	return &imap.SearchCriteria{
		Or: [][2]imap.SearchCriteria{{{Text: []string{terms[0]}}, *rest}},
	}
}

// ParseRFC822 turns raw message bytes into the provider-neutral shape.
// Leaf bodies are decoded from their transfer encoding and charset, then base64url encoded.
func ParseRFC822(id string, raw []byte) (RawMessage, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return RawMessage{}, fmt.Errorf("parse message %s: %w", id, err)
	}

	out := RawMessage{ID: id}
	for _, name := range []string{"Subject", "From", "To", "Date"} {
		v, err := e.Header.Text(name)
		if err != nil {
			v = e.Header.Get(name)
		}
		if v != "" {
			out.Headers = append(out.Headers, Header{Name: name, Value: v})
		}
	}

	root, err := convertEntity(e)
	if err != nil {
		return RawMessage{}, fmt.Errorf("parse message %s: %w", id, err)
	}
	out.Payload = &root
	return out, nil
}

func convertEntity(e *message.Entity) (Part, error) {
	mt, _, _ := e.Header.ContentType()
	if mt == "" {
		mt = "text/plain"
	}
	part := Part{MimeType: strings.ToLower(mt)}

	if mr := e.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
				return Part{}, err
			}
			if child == nil {
				continue
			}
			cp, err := convertEntity(child)
			if err != nil {
				return Part{}, err
			}
			part.Parts = append(part.Parts, cp)
		}
		return part, nil
	}

	b, err := io.ReadAll(e.Body)
	if err != nil {
		return Part{}, err
	}
	if len(b) > 0 {
		part.Data = base64.URLEncoding.EncodeToString(b)
	}
	return part, nil
}
