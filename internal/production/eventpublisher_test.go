package production

import (
	"context"
	"testing"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan core.TransitionRecord, 10)
	p := NewChannelPublisher(ch)

	rec := core.TransitionRecord{Kind: "Pausing", Leaving: "1", Entering: "2"}
	require.NoError(t, p.Publish(context.Background(), rec))
	assert.Equal(t, rec, <-ch)
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan core.TransitionRecord, 1)
	p := NewChannelPublisher(ch)
	ch <- core.TransitionRecord{} // fill buffer

	assert.NoError(t, p.Publish(context.Background(), core.TransitionRecord{Kind: "dropped"}))
	assert.Len(t, ch, 1)
}

func TestChannelPublisher_WiredIntoApp(t *testing.T) {
	ch := make(chan core.TransitionRecord, 16)
	a := core.NewApp(core.WithPublisher(NewChannelPublisher(ch)))
	require.NoError(t, core.TrackState(a, level(1)))
	require.NoError(t, a.Update(context.Background()))
	require.NoError(t, a.Send(core.StateCommand(func(s *ecsx.State[level]) error { return s.Push(2) })))
	require.NoError(t, a.Update(context.Background()))
	require.NoError(t, a.Close())

	var kinds []string
	for rec := range ch {
		kinds = append(kinds, rec.Kind)
		assert.Equal(t, a.ID(), rec.AppID)
	}
	assert.Equal(t, []string{"Startup", "None", "Pausing", "Entering", "None"}, kinds)
}
