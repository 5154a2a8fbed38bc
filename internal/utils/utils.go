package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (ffmpeg logs)
// so a failed decode still reports why it failed.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command bound to ctx and attaches a buffer to its Stderr.
// It prepares the command for execution but does not start it.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// Wrap attaches the captured stderr (if any) to err.
func (s *SafeCommand) Wrap(err error) error {
	if err == nil {
		return nil
	}
	if logs := strings.TrimSpace(s.Stderr.String()); logs != "" {
		return fmt.Errorf("%w: %s", err, logs)
	}
	return err
}

// Output runs the command and returns its stdout, with stderr folded into the error.
func (s *SafeCommand) Output() ([]byte, error) {
	var stdout bytes.Buffer
	s.Cmd.Stdout = &stdout
	if err := s.Cmd.Run(); err != nil {
		return nil, s.Wrap(err)
	}
	return stdout.Bytes(), nil
}

// --- 2. Reporting ---

// ShowError prints a formatted error box and dumps ffmpeg logs if a SafeCommand is provided.
func ShowError(context string, err error, s *SafeCommand) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 LNL ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}

	if s != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(os.Stderr, "\nFFMPEG LOGS:\n%s\n", s.Stderr.String())
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for fatal setup errors.
func Die(context string, err error, s *SafeCommand) {
	ShowError(context, err, s)
	os.Exit(1)
}

// FormatSeconds renders a float second count the way ffmpeg's -ss/-t expect it.
func FormatSeconds(seconds float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", seconds), "0"), ".")
}
