// Package extract obtains plain text from inbox documents by shelling out
// to external tools. The engine only cares that failure is reported as an
// error; how text is obtained is this package's concern alone.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"docket/internal/logging"
)

// Config captures the external tool commands and their shared timeout.
type Config struct {
	PDFTool        string
	OCRTool        string
	TimeoutSeconds int
}

// Client runs the configured extraction tools.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// NewClient constructs an extraction client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, logger: logging.NewComponentLogger(logger, "extract")}
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
}

var textExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// SupportedExtensions returns the document extensions the inbox scanner
// should pick up, lowercased with leading dot.
func SupportedExtensions() []string {
	exts := []string{".pdf"}
	for ext := range imageExtensions {
		exts = append(exts, ext)
	}
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// Supported reports whether the file's extension is extractable.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return true
	}
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	_, ok := textExtensions[ext]
	return ok
}

// Extract returns the plain text of a document. Plain-text files are read
// directly; PDFs go through the configured PDF tool and images through the
// OCR tool. The configured timeout bounds each tool invocation.
func (c *Client) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if _, ok := textExtensions[ext]; ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	}

	timeout := time.Duration(c.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch {
	case ext == ".pdf":
		return c.runPDFTool(toolCtx, path)
	default:
		if _, ok := imageExtensions[ext]; ok {
			return c.runOCRTool(toolCtx, path)
		}
	}
	return "", fmt.Errorf("unsupported file type %q", ext)
}

func (c *Client) runPDFTool(ctx context.Context, path string) (string, error) {
	tool := c.cfg.PDFTool
	if tool == "" {
		tool = "pdftotext"
	}
	// pdftotext writes to stdout when the output argument is "-".
	cmd := exec.CommandContext(ctx, tool, "-layout", path, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", tool, err, commandStderr(err))
	}
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "", fmt.Errorf("%s produced no text for %s", tool, filepath.Base(path))
	}
	return text, nil
}

func (c *Client) runOCRTool(ctx context.Context, path string) (string, error) {
	tool := c.cfg.OCRTool
	if tool == "" {
		tool = "tesseract"
	}
	// tesseract writes to stdout when the output base is "stdout".
	cmd := exec.CommandContext(ctx, tool, path, "stdout")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", tool, err, commandStderr(err))
	}
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "", fmt.Errorf("%s produced no text for %s", tool, filepath.Base(path))
	}
	return text, nil
}

func commandStderr(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
