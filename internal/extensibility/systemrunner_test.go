package extensibility

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSystemRunner(t *testing.T) {
	var buf bytes.Buffer
	runner := NewLoggingSystemRunner(nil, log.New(&buf, "", 0))

	ran := false
	runner.RunSystem(context.Background(), ecsx.NewWorld(), ecsx.NamedSystem("spawn", func(*ecsx.World) { ran = true }))

	assert.True(t, ran)
	assert.Contains(t, buf.String(), "LOG: Executing system spawn")
	assert.Contains(t, buf.String(), "LOG: System spawn completed in")
}

func TestLoggingSystemRunner_WiredIntoApp(t *testing.T) {
	var buf bytes.Buffer
	a := core.NewApp(core.WithSystemRunner(NewLoggingSystemRunner(nil, log.New(&buf, "", 0))))
	a.Stage().AddSystemSet(ecsx.NewSystemSet().WithNamedSystem("physics", func(*ecsx.World) {}))

	require.NoError(t, a.Update(context.Background()))
	assert.Contains(t, buf.String(), "Executing system physics")
}
