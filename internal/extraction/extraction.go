package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"docket/internal/config"
	"docket/internal/fileutil"
	"docket/internal/identifier"
	"docket/internal/logging"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/services/extract"
	"docket/internal/stage"
)

// Extractor obtains plain text from inbox documents.
type Extractor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client *extract.Client
}

// NewExtractor constructs the extraction stage handler using default dependencies.
func NewExtractor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Extractor {
	client := extract.NewClient(extract.Config{
		PDFTool:        cfg.Extraction.PDFTool,
		OCRTool:        cfg.Extraction.OCRTool,
		TimeoutSeconds: cfg.Extraction.TimeoutSeconds,
	}, logger)
	return NewExtractorWithClient(cfg, store, logger, client)
}

// NewExtractorWithClient allows injecting the extraction client (used in tests).
func NewExtractorWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client *extract.Client) *Extractor {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "extractor"))
	}
	return &Extractor{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Extracting"
	}
	item.ProgressMessage = "Preparing text extraction"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.ExtractedText = ""
	logger.Info(
		"starting extraction preparation",
		logging.String(logging.FieldDocument, strings.TrimSpace(item.OriginalName)),
		logging.String("source_file", strings.TrimSpace(item.SourcePath)),
	)
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "extracting", "validate inputs",
			"No source file recorded for extraction", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrValidation, "extracting", "stat source",
			fmt.Sprintf("Source file missing: %s", source), err)
	}

	item.SetProgress("Extracting", "Running text extraction", 20)
	text, err := e.client.Extract(ctx, source)
	if err != nil {
		quarantined := e.quarantine(ctx, item)
		detail := "Text extraction failed"
		if quarantined != "" {
			detail = fmt.Sprintf("Text extraction failed; document quarantined at %s", quarantined)
		}
		return services.Wrap(services.ErrExternalTool, "extracting", "extract text", detail, err)
	}

	item.ExtractedText = text
	item.SetProgressComplete("Extracting", "Text extraction completed")
	logger.Info(
		"extraction completed",
		logging.String(logging.FieldDocument, strings.TrimSpace(item.OriginalName)),
		logging.Int("text_length", len(text)),
	)
	return nil
}

// HealthCheck verifies the configured external tools can be resolved.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	const name = "extractor"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	var missing []string
	if tool := strings.TrimSpace(e.cfg.Extraction.PDFTool); tool != "" {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if tool := strings.TrimSpace(e.cfg.Extraction.OCRTool); tool != "" {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return stage.Unhealthy(name, fmt.Sprintf("tools not found: %s", strings.Join(missing, ", ")))
	}
	return stage.Healthy(name)
}

// quarantine moves the source document out of the inbox so the daemon stops
// re-queuing it. Returns the quarantine path, or empty when the move failed.
func (e *Extractor) quarantine(ctx context.Context, item *queue.Item) string {
	logger := logging.WithContext(ctx, e.logger)
	dir := strings.TrimSpace(e.cfg.Paths.QuarantineDir)
	if dir == "" {
		logger.Warn("quarantine directory not configured, leaving document in inbox")
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("failed to create quarantine directory", logging.Error(err))
		return ""
	}
	name := identifier.UniqueName(dir, filepath.Base(item.SourcePath))
	target := filepath.Join(dir, name)
	if err := fileutil.MoveFile(item.SourcePath, target); err != nil {
		logger.Warn("failed to quarantine document", logging.Error(err))
		return ""
	}
	logger.Info("document quarantined", logging.String("quarantine_path", target))
	return target
}
