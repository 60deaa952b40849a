package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCost(t *testing.T) {
	c := LookupCost("gemini-2.0-flash")
	require.NotNil(t, c)
	assert.InDelta(t, 0.1+0.4, c.Cost(1_000_000, 1_000_000), 1e-9)

	assert.Nil(t, LookupCost("llama3.2"))
}
