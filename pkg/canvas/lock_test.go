package canvas

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikashrahii/pipeline/pkg/adapters/memory"
	"github.com/vikashrahii/pipeline/pkg/domain"
)

func TestCanvas_LockLifecycle(t *testing.T) {
	c := New(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("text-%d", i)
		_, err := c.AddTextNode(ctx, id, domain.Position{})
		require.NoError(t, err)
		require.NoError(t, c.RemoveNode(ctx, id))
	}

	assert.Empty(t, c.locks, "per-node locks must be released once unused")
	assert.Empty(t, c.nodes)
}
