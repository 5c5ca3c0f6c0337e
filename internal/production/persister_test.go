package production

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

func testSnapshot() core.StateSnapshot {
	return core.StateSnapshot{
		ID:        "0190f6d4-0000-7000-8000-000000000001",
		AppID:     "game",
		StateType: "production.level",
		Stack:     []level{1, 3},
		Frame:     12,
		Version:   "abcd",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPersisters_RoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			p, err := NewPersister(format, t.TempDir())
			require.NoError(t, err)

			snap := testSnapshot()
			require.NoError(t, p.Save(context.Background(), snap))

			loaded, err := p.Load(context.Background(), "game/production.level")
			require.NoError(t, err)
			assert.Equal(t, snap.ID, loaded.ID)
			assert.Equal(t, snap.StateType, loaded.StateType)
			assert.Equal(t, snap.Frame, loaded.Frame)
			assert.Equal(t, snap.Version, loaded.Version)
			assert.True(t, snap.Timestamp.Equal(loaded.Timestamp))
			assert.Len(t, loaded.Stack, 2)
		})
	}
}

func TestPersisters_LoadMissing(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		p, err := NewPersister(format, t.TempDir())
		require.NoError(t, err)
		_, err = p.Load(context.Background(), "nobody/nothing")
		assert.ErrorIs(t, err, core.ErrNotFound, format)
	}
}

func TestNewPersister_UnknownFormat(t *testing.T) {
	_, err := NewPersister("xml", t.TempDir())
	assert.Error(t, err)
}

func TestPersister_RestoresAcrossApps(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p1, err := NewYAMLPersister(dir)
	require.NoError(t, err)
	a1 := core.NewApp(core.WithID("game"), core.WithPersister(p1))
	require.NoError(t, core.TrackState(a1, level(1)))
	require.NoError(t, a1.Update(ctx))
	require.NoError(t, a1.Send(core.StateCommand(func(s *ecsx.State[level]) error { return s.Push(2) })))
	require.NoError(t, a1.Update(ctx))

	p2, err := NewYAMLPersister(dir)
	require.NoError(t, err)
	a2 := core.NewApp(core.WithID("game"), core.WithPersister(p2))
	require.NoError(t, core.TrackState(a2, level(1)))
	require.NoError(t, core.LoadState[level](ctx, a2))

	snap, err := core.Snapshot[level](a2)
	require.NoError(t, err)
	assert.Equal(t, []level{1, 2}, snap.Stack)
}
