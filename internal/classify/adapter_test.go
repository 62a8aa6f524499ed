package classify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/classify"
	"autotasker-engine/internal/domain"
)

const goodJSON = `{
  "company": "Acme",
  "location": "Remote",
  "salary": "$120k",
  "deadline": "12/31/2099",
  "category": "Backend Engineer",
  "tech_stack": "Go, Postgres"
}`

func staticOracle(text string, err error) classify.Oracle {
	return classify.OracleFunc(func(context.Context, classify.Request) (string, error) {
		return text, err
	})
}

func TestClassifySuccess(t *testing.T) {
	var got classify.Request
	o := classify.OracleFunc(func(_ context.Context, req classify.Request) (string, error) {
		got = req
		return goodJSON, nil
	})
	a := classify.NewAdapter(o, nil)

	res := a.Classify(context.Background(), "Backend role", "We are hiring")
	require.True(t, res.OK())
	assert.Equal(t, domain.Classification{
		Company:   "Acme",
		Location:  "Remote",
		Salary:    "$120k",
		Deadline:  "12/31/2099",
		Category:  "Backend Engineer",
		TechStack: "Go, Postgres",
	}, res.Classification)

	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, 512, got.MaxTokens)
	assert.True(t, got.JSON)
	assert.Contains(t, got.Prompt, "Subject: Backend role")
	assert.Contains(t, got.Prompt, "Body:\nWe are hiring")
	assert.Contains(t, got.Prompt, `"tech_stack"`)
}

func TestClassifyFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		err    error
		reason string
	}{
		{"transport", "", errors.New("dial tcp: timeout"), classify.ReasonTransport},
		{"empty", "   ", nil, classify.ReasonEmptyResponse},
		{"malformed", "Sure! Here is the JSON: {", nil, classify.ReasonMalformedJSON},
		{"array", `["Acme"]`, nil, classify.ReasonInvalidShape},
		{"missing field", `{"company":"Acme","location":"x","salary":"x","deadline":"N/A","category":"x"}`, nil, classify.ReasonInvalidShape},
		{"unknown field", `{"company":"Acme","location":"x","salary":"x","deadline":"N/A","category":"x","tech_stack":"x","extra":1}`, nil, classify.ReasonInvalidShape},
		{"non-string", `{"company":1,"location":"x","salary":"x","deadline":"N/A","category":"x","tech_stack":"x"}`, nil, classify.ReasonInvalidShape},
		{"bad deadline", `{"company":"Acme","location":"x","salary":"x","deadline":"next friday","category":"x","tech_stack":"x"}`, nil, classify.ReasonInvalidDeadline},
		{"impossible date", `{"company":"Acme","location":"x","salary":"x","deadline":"13/45/2025","category":"x","tech_stack":"x"}`, nil, classify.ReasonInvalidDeadline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := classify.NewAdapter(staticOracle(tc.text, tc.err), nil)
			res := a.Classify(context.Background(), "s", "b")
			assert.False(t, res.OK())
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, domain.FallbackClassification(), res.Classification)
		})
	}
}

func TestClassifyRecoversOraclePanic(t *testing.T) {
	o := classify.OracleFunc(func(context.Context, classify.Request) (string, error) {
		panic("boom")
	})
	res := classify.NewAdapter(o, nil).Classify(context.Background(), "s", "b")
	assert.Equal(t, classify.ReasonOraclePanic, res.Reason)
	assert.Equal(t, domain.FallbackClassification(), res.Classification)
}

func TestParseAcceptsFencedJSONAndNA(t *testing.T) {
	res := classify.Parse("```json\n" + `{"company":"A","location":"B","salary":"C","deadline":"N/A","category":"D","tech_stack":"E"}` + "\n```")
	require.True(t, res.OK())
	assert.Equal(t, "N/A", res.Classification.Deadline)
	assert.False(t, res.Classification.HasDeadline())
}

func TestWithGeneration(t *testing.T) {
	var got classify.Request
	o := classify.OracleFunc(func(_ context.Context, req classify.Request) (string, error) {
		got = req
		return goodJSON, nil
	})
	classify.NewAdapter(o, nil, classify.WithGeneration(0, 256)).Classify(context.Background(), "s", "b")
	assert.Zero(t, got.Temperature)
	assert.Equal(t, 256, got.MaxTokens)
}
