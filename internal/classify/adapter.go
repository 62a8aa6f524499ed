package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"autotasker-engine/internal/domain"
)

const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 512
)

// Fallback reasons.
const (
	ReasonTransport       = "transport"
	ReasonEmptyResponse   = "empty_response"
	ReasonMalformedJSON   = "malformed_json"
	ReasonInvalidShape    = "invalid_shape"
	ReasonInvalidDeadline = "invalid_deadline"
	ReasonOraclePanic     = "oracle_panic"
)

// Result holds a classification that is either the oracle's answer (Reason == "")
// or the fixed fallback tuple tagged with why.
type Result struct {
	Classification domain.Classification
	Reason         string
	Err            error
}

func (r Result) OK() bool { return r.Reason == "" }

func fallback(reason string, err error) Result {
	return Result{Classification: domain.FallbackClassification(), Reason: reason, Err: err}
}

type Adapter struct {
	oracle      Oracle
	temperature float64
	maxTokens   int
	log         *zap.SugaredLogger
}

type Option func(*Adapter)

func WithGeneration(temperature float64, maxTokens int) Option {
	return func(a *Adapter) {
		a.temperature = temperature
		if maxTokens > 0 {
			a.maxTokens = maxTokens
		}
	}
}

func NewAdapter(o Oracle, log *zap.SugaredLogger, opts ...Option) *Adapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &Adapter{
		oracle:      o,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		log:         log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classify never returns an error; every failure maps to the fallback tuple.
func (a *Adapter) Classify(ctx context.Context, subject, body string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = fallback(ReasonOraclePanic, fmt.Errorf("oracle panic: %v", rec))
		}
		if !res.OK() {
			a.log.Warnw("classification fell back", "reason", res.Reason, "subject", subject, "err", res.Err)
		}
	}()

	text, err := a.oracle.Complete(ctx, Request{
		Prompt:      BuildPrompt(subject, body),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return fallback(ReasonTransport, err)
	}
	return Parse(text)
}

type wireClassification struct {
	Company   *string `json:"company"`
	Location  *string `json:"location"`
	Salary    *string `json:"salary"`
	Deadline  *string `json:"deadline"`
	Category  *string `json:"category"`
	TechStack *string `json:"tech_stack"`
}

var deadlinePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Parse accepts exactly the six-field object. Anything else is a tagged fallback.
func Parse(text string) Result {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return fallback(ReasonEmptyResponse, errors.New("empty oracle response"))
	}
	if !json.Valid([]byte(text)) {
		return fallback(ReasonMalformedJSON, errors.New("oracle response is not json"))
	}

	var w wireClassification
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return fallback(ReasonInvalidShape, err)
	}
	fields := []*string{w.Company, w.Location, w.Salary, w.Deadline, w.Category, w.TechStack}
	for _, f := range fields {
		if f == nil {
			return fallback(ReasonInvalidShape, errors.New("missing classification field"))
		}
	}

	c := domain.Classification{
		Company:   strings.TrimSpace(*w.Company),
		Location:  strings.TrimSpace(*w.Location),
		Salary:    strings.TrimSpace(*w.Salary),
		Deadline:  strings.TrimSpace(*w.Deadline),
		Category:  strings.TrimSpace(*w.Category),
		TechStack: strings.TrimSpace(*w.TechStack),
	}
	if err := validDeadline(c.Deadline); err != nil {
		return fallback(ReasonInvalidDeadline, err)
	}
	return Result{Classification: c}
}

func validDeadline(d string) error {
	if d == domain.NoDeadline {
		return nil
	}
	if !deadlinePattern.MatchString(d) {
		return fmt.Errorf("deadline %q is not MM/DD/YYYY", d)
	}
	if _, err := time.Parse("01/02/2006", d); err != nil {
		return fmt.Errorf("deadline %q: %w", d, err)
	}
	return nil
}

// stripFence removes a single markdown code fence around the payload.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], "{") {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
