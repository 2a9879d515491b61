package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docket/internal/classify"
	"docket/internal/config"
	"docket/internal/logging"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/services/llm"
	"docket/internal/stage"
	"docket/internal/taxonomy"
)

// Classifier runs the classification stage against the extracted text.
type Classifier struct {
	store        *queue.Store
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *classify.Orchestrator
	taxonomy     *taxonomy.Store
}

// NewClassifier constructs the classification stage handler using default dependencies.
func NewClassifier(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Classifier {
	maxChars := cfg.Classifier.MaxChars
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	})
	backends := []classify.Backend{
		classify.NewLLMBackend(client, maxChars),
		classify.NewCLIBackend(cfg.Classifier.CLIBinary, cfg.Classifier.TimeoutSeconds, maxChars),
		classify.NewKeywordBackend(),
	}
	orchestrator := classify.NewOrchestrator(cfg.Classifier.Provider, backends, logger)
	return NewClassifierWithOrchestrator(cfg, store, logger, orchestrator)
}

// NewClassifierWithOrchestrator allows injecting the orchestrator (used in tests).
func NewClassifierWithOrchestrator(cfg *config.Config, store *queue.Store, logger *slog.Logger, orchestrator *classify.Orchestrator) *Classifier {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "classifier"))
	}
	return &Classifier{
		store:        store,
		cfg:          cfg,
		logger:       stageLogger,
		orchestrator: orchestrator,
		taxonomy:     taxonomy.NewStore(cfg.Paths.LibraryDir, logger),
	}
}

func (c *Classifier) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Classifying"
	}
	item.ProgressMessage = "Preparing classification"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.ClassificationJSON = ""
	logger.Info(
		"starting classification preparation",
		logging.String(logging.FieldDocument, strings.TrimSpace(item.OriginalName)),
	)
	return nil
}

// Execute always produces a classification: backend failures fall back to
// keyword matching, and an unusable taxonomy falls back to the defaults.
func (c *Classifier) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	tax, violations, err := c.taxonomy.Effective()
	if err != nil {
		logger.Warn("effective taxonomy unavailable, using defaults", logging.Error(err))
		tax = taxonomy.Defaults()
	}
	if len(violations) > 0 {
		logger.Warn("taxonomy violations detected", logging.Int("count", len(violations)))
	}

	item.SetProgress("Classifying", "Running classification", 20)
	result := c.orchestrator.Classify(ctx, item.ExtractedText, item.OriginalName, tax)

	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrTransient, "classifying", "encode result", "Failed to encode classification result", err)
	}
	item.ClassificationJSON = string(encoded)
	item.SetProgressComplete("Classifying", fmt.Sprintf("Classified as %s", result.JDCategory))
	logger.Info(
		"classification completed",
		logging.String(logging.FieldBackend, result.Backend),
		logging.String("jd_area", result.JDArea),
		logging.String("jd_category", result.JDCategory),
		logging.String("confidence", string(result.Confidence)),
	)
	return nil
}

// HealthCheck reports which backend the orchestrator would pick.
func (c *Classifier) HealthCheck(ctx context.Context) stage.Health {
	const name = "classifier"
	if c.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	backend := c.orchestrator.Backend()
	if backend == nil {
		return stage.Unhealthy(name, "no classification backend available")
	}
	return stage.Healthy(name)
}
