package common

import (
	"context"
	"time"

	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/tools/ui"
)

// Action is the unit of work a tool subcommand runs. It returns human-readable
// detail lines for the interactive view or the CI JSON report.
type Action func(ctx context.Context) ([]string, error)

// RunAction executes fn either inside the bubbletea view or, in CI mode,
// directly with a timeout, and records the outcome.
func RunAction(tool, command string, ci bool, timeout time.Duration, fn Action) ([]string, error) {
	start := time.Now()
	var (
		details []string
		err     error
	)
	if ci {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		details, err = fn(ctx)
		cancel()
	} else {
		details, err = ui.Run(tool+" "+command, fn)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordToolCommandRun(context.Background(), tool, command, outcome)
	observability.RecordToolCommandDuration(context.Background(), tool, command, outcome, time.Since(start))
	if ci {
		PrintCIResult(err == nil, tool+" "+command, details, err)
	}
	return details, err
}
