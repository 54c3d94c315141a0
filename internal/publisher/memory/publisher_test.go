package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "session-discovered", map[string]string{"session": "s1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	_, err = p.Publish(context.Background(), "audits-completed", "done")
	require.NoError(t, err)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "session-discovered", msgs[0].Topic)
	require.Equal(t, "audits-completed", msgs[1].Topic)
	require.NoError(t, p.Close())
}
