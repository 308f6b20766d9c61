package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"dustsweep/pkg/engine"
)

// consoleReporter renders pipeline stage events as colored console lines.
type consoleReporter struct{}

func (consoleReporter) Event(e engine.StageEvent) {
	label := string(e.Stage)
	if e.Symbol != "" {
		label = fmt.Sprintf("%s %s", e.Stage, e.Symbol)
	}
	switch e.Status {
	case engine.EventOK:
		color.Green("  ✓ %s %s", label, e.Detail)
	case engine.EventSkipped:
		color.Cyan("  - %s %s", label, e.Detail)
	case engine.EventWaiting:
		color.Yellow("  … %s %s", label, e.Detail)
	case engine.EventFailed:
		color.Red("  ✗ %s %s", label, e.Detail)
	default:
		fmt.Printf("    %s %s\n", label, e.Detail)
	}
}

// jsonReporter emits one structured log line per stage event.
type jsonReporter struct {
	log zerolog.Logger
}

func (r jsonReporter) Event(e engine.StageEvent) {
	ev := r.log.Info()
	if e.Status == engine.EventFailed {
		ev = r.log.Error()
	}
	ev.Str("stage", string(e.Stage)).
		Str("status", string(e.Status)).
		Str("token", e.Token.Hex()).
		Str("symbol", e.Symbol).
		Msg(e.Detail)
}

// promptConfirmer asks y/N on stdin for every transaction signature.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// newEventLogger builds the zerolog logger used for --json output and
// verbose RPC tracing.
func newEventLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
