package mailbox_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/mailbox"
)

func TestBuildQuery(t *testing.T) {
	now := time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC)

	q, err := mailbox.BuildQuery(7, now)
	require.NoError(t, err)

	s := q.String()
	assert.Contains(t, s, "after:2025/03/03 (")
	assert.Contains(t, s, `"job opportunity" OR "internship"`)
	assert.Contains(t, s, `"placement")`)
	assert.Len(t, q.Terms, len(mailbox.SearchTerms))
}

func TestBuildQueryUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, loc) // 2025-03-11 04:00 UTC

	q, err := mailbox.BuildQuery(1, now)
	require.NoError(t, err)
	assert.Contains(t, q.String(), "after:2025/03/10 ")
}

func TestBuildQueryRejectsNonPositiveDays(t *testing.T) {
	for _, d := range []int{0, -3} {
		_, err := mailbox.BuildQuery(d, time.Now())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	}
}

func TestBuildQueryDoesNotShareVocabulary(t *testing.T) {
	q, err := mailbox.BuildQuery(3, time.Now())
	require.NoError(t, err)
	q.Terms[0] = "mutated"
	assert.Equal(t, "job opportunity", mailbox.SearchTerms[0])
}
