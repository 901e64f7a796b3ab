package gnubg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes the engine with a command script on stdin and returns
// everything it printed. Implementations must be safe for concurrent use;
// the bot worker pool shares one Runner across sessions.
type Runner interface {
	Run(ctx context.Context, input string) (string, error)
}

// ProcessRunner spawns the engine binary for every request. The engine is
// stateless between invocations; all state travels in the command script.
type ProcessRunner struct {
	// Path is the engine binary, e.g. "gnubg".
	Path string
	// Args are prepended flags; quiet text mode by default.
	Args []string
}

// DefaultArgs run the engine without its terminal UI and without the
// startup banner.
var DefaultArgs = []string{"--quiet", "--tty"}

// NewProcessRunner returns a runner for the given binary path, applying
// DefaultArgs when args is empty.
func NewProcessRunner(path string, args []string) *ProcessRunner {
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &ProcessRunner{Path: path, Args: args}
}

// Run feeds the script to a fresh engine process and collects combined
// stdout/stderr until the process exits. The script always ends with an
// exit command, so a hung engine is only reaped through ctx.
func (r *ProcessRunner) Run(ctx context.Context, input string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Stdin = strings.NewReader(input)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if out.Len() == 0 {
		if err != nil {
			return "", fmt.Errorf("engine %s produced no output: %w", r.Path, err)
		}
		return "", fmt.Errorf("engine %s produced no output", r.Path)
	}
	return out.String(), nil
}

// commandScript builds the fixed stdin sequence for one hint request.
func commandScript(matchID, positionID string, consoleIndex int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "set matchid %s\n", matchID)
	fmt.Fprintf(&sb, "set board %s\n", positionID)
	fmt.Fprintf(&sb, "set turn %d\n", consoleIndex)
	sb.WriteString("swap players\n")
	sb.WriteString("hint 1\n")
	sb.WriteString("exit\n")
	return sb.String()
}
