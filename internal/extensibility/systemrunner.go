package extensibility

import (
	"context"
	"log"
	"time"

	"github.com/comalice/ecsx"
)

// LoggingSystemRunner wraps a SystemRunner and adds logging around execution.
type LoggingSystemRunner struct {
	inner  ecsx.SystemRunner
	logger *log.Logger
}

// NewLoggingSystemRunner creates a LoggingSystemRunner wrapping inner. A nil
// inner runs systems directly; a nil logger uses the standard logger.
func NewLoggingSystemRunner(inner ecsx.SystemRunner, logger *log.Logger) *LoggingSystemRunner {
	if inner == nil {
		inner = ecsx.DefaultSystemRunner()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingSystemRunner{inner: inner, logger: logger}
}

// RunSystem logs before and after delegating to the inner runner.
func (r *LoggingSystemRunner) RunSystem(ctx context.Context, w *ecsx.World, sys ecsx.SystemDescriptor) {
	r.logger.Printf("LOG: Executing system %s", sys.Name)
	start := time.Now()
	r.inner.RunSystem(ctx, w, sys)
	r.logger.Printf("LOG: System %s completed in %v", sys.Name, time.Since(start))
}
