package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceWalksFullPipeline(t *testing.T) {
	status := StatusNew
	visited := map[string]bool{status: true}

	steps := 0
	for {
		next, ok := Next(status)
		if !ok {
			break
		}
		require.False(t, visited[next], "revisited status %s", next)
		visited[next] = true
		status = next
		steps++
	}

	require.Equal(t, StatusDelivered, status)
	require.Equal(t, 7, steps)
}

func TestNextStopsAtTerminal(t *testing.T) {
	_, ok := Next(StatusDelivered)
	require.False(t, ok)

	_, ok = Next(StatusCancelled)
	require.False(t, ok)

	_, ok = Next("UNKNOWN")
	require.False(t, ok)
}

func TestCanCancel(t *testing.T) {
	for _, s := range Sequence[:len(Sequence)-1] {
		require.True(t, CanCancel(s), "expected %s to be cancellable", s)
	}
	require.False(t, CanCancel(StatusDelivered))
	require.False(t, CanCancel(StatusCancelled))
	require.False(t, CanCancel("UNKNOWN"))
}

func TestIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(StatusDelivered))
	require.True(t, IsTerminal(StatusCancelled))
	for _, s := range Sequence[:len(Sequence)-1] {
		require.False(t, IsTerminal(s))
	}
}

func TestLabelFallsBackToRawValue(t *testing.T) {
	require.Equal(t, "مقبول", Label(StatusConfirmed))
	require.Equal(t, "SOMETHING", Label("SOMETHING"))
}
