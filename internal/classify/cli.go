package classify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"docket/internal/taxonomy"
)

// CLIBackend shells out to an assistant CLI (e.g. the claude binary) that
// prints a completion to stdout.
type CLIBackend struct {
	binary   string
	timeout  time.Duration
	maxChars int
}

// NewCLIBackend constructs a backend around an assistant binary.
func NewCLIBackend(binary string, timeoutSeconds, maxChars int) *CLIBackend {
	if maxChars <= 0 {
		maxChars = 4000
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CLIBackend{binary: strings.TrimSpace(binary), timeout: timeout, maxChars: maxChars}
}

// Name implements Backend.
func (b *CLIBackend) Name() string { return "cli" }

// Available implements Backend: the binary must resolve on PATH.
func (b *CLIBackend) Available() bool {
	if b.binary == "" {
		return false
	}
	_, err := exec.LookPath(b.binary)
	return err == nil
}

// Classify implements Backend.
func (b *CLIBackend) Classify(ctx context.Context, text, hint string, t taxonomy.Taxonomy) (Result, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prompt := systemPrompt + "\n\n" + buildPrompt(text, hint, t, b.maxChars)
	cmd := exec.CommandContext(cmdCtx, b.binary, "--print", prompt)
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("cli classify: %s: %w", b.binary, err)
	}
	return decodeBackendResult(string(output))
}
