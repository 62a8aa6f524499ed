package classify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/classify"
)

func TestNewLimitedOracleDisabled(t *testing.T) {
	o := classify.NewLimitedOracle(staticOracle("x", nil), 0)
	_, limited := o.(*classify.LimitedOracle)
	assert.False(t, limited)
}

func TestLimitedOracleHonoursContext(t *testing.T) {
	calls := 0
	o := classify.NewLimitedOracle(classify.OracleFunc(func(context.Context, classify.Request) (string, error) {
		calls++
		return "ok", nil
	}), 1)

	out, err := o.Complete(context.Background(), classify.Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	// the next token is a minute away
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = o.Complete(ctx, classify.Request{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
