package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/domain"
)

func TestParseStatus(t *testing.T) {
	st, err := domain.ParseStatus(" applied ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, st)

	_, err = domain.ParseStatus("Ghosted")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidStatus))
}

func TestFallbackClassification(t *testing.T) {
	c := domain.FallbackClassification()
	assert.Equal(t, domain.Classification{
		Company:   "Unknown",
		Location:  "Unknown",
		Salary:    "Not specified",
		Deadline:  "N/A",
		Category:  "Not specified",
		TechStack: "Not specified",
	}, c)
	assert.False(t, c.HasDeadline())

	c.Deadline = "12/31/2099"
	assert.True(t, c.HasDeadline())
}
