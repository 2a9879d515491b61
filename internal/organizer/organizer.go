package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"docket/internal/classify"
	"docket/internal/config"
	"docket/internal/dupindex"
	"docket/internal/fileutil"
	"docket/internal/identifier"
	"docket/internal/logging"
	"docket/internal/notifications"
	"docket/internal/queue"
	"docket/internal/services"
	"docket/internal/sidecar"
	"docket/internal/stage"
	"docket/internal/taxonomy"
)

// Organizer files classified documents into the library tree.
type Organizer struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	notifier  notifications.Service
	taxonomy  *taxonomy.Store
	dupindex  *dupindex.Index
	allocator *identifier.Allocator
}

// NewOrganizer constructs the organizer stage handler using default dependencies.
func NewOrganizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Organizer {
	return NewOrganizerWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewOrganizerWithDependencies allows injecting the notifier (used in tests).
func NewOrganizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Organizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "organizer"))
	}
	return &Organizer{
		store:     store,
		cfg:       cfg,
		logger:    stageLogger,
		notifier:  notifier,
		taxonomy:  taxonomy.NewStore(cfg.Paths.LibraryDir, logger),
		dupindex:  dupindex.New(cfg.Paths.LibraryDir, logger),
		allocator: identifier.NewAllocator(logger),
	}
}

func (o *Organizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Filing"
	}
	item.ProgressMessage = "Preparing filing"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting filing preparation",
		logging.String(logging.FieldDocument, strings.TrimSpace(item.OriginalName)),
		logging.String("source_file", strings.TrimSpace(item.SourcePath)),
	)
	return nil
}

func (o *Organizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "filing", "validate inputs",
			"No source file recorded for filing", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrValidation, "filing", "stat source",
			fmt.Sprintf("Source file missing: %s", source), err)
	}

	if strings.TrimSpace(item.ContentHash) == "" {
		hash, err := fileutil.HashFile(source)
		if err != nil {
			return services.Wrap(services.ErrTransient, "filing", "hash source", "Failed to hash document", err)
		}
		item.ContentHash = hash
	}

	item.SetProgress("Filing", "Checking for duplicates", 10)
	existingRel, found, err := o.dupindex.Lookup(item.ContentHash)
	if err != nil {
		logger.Warn("duplicate index unavailable, treating document as new", logging.Error(err))
		found = false
	}
	if found {
		return o.completeDuplicate(ctx, item, existingRel)
	}

	// Filing failures leave the source in the inbox untouched. The scanner
	// skips terminal items whose content hash is unchanged, so the document
	// is not re-queued until it is edited or manually retried.
	result, err := stage.ParseClassification(item.ClassificationJSON)
	if err != nil {
		return err
	}

	item.SetProgress("Filing", "Resolving taxonomy placement", 30)
	plan, err := o.plan(result, item.ContentHash, item.OriginalName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(plan.TargetPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "filing", "create category directory", "Failed to create category directory", err)
	}

	item.SetProgress("Filing", "Moving document into library", 60)
	if err := fileutil.MoveFile(source, plan.TargetPath); err != nil {
		return services.Wrap(services.ErrTransient, "filing", "move document", "Failed to move document into library", err)
	}

	relPath, relErr := filepath.Rel(o.cfg.Paths.LibraryDir, plan.TargetPath)
	if relErr != nil {
		relPath = filepath.Base(plan.TargetPath)
	}
	if err := o.dupindex.Record(item.ContentHash, relPath); err != nil {
		logger.Warn("failed to record document in duplicate index", logging.Error(err))
	}

	if err := sidecar.Write(plan.TargetPath, sidecarMetadata(plan.Identifier, result, item.ExtractedText)); err != nil {
		logger.Warn("failed to write sidecar metadata", logging.Error(err))
	}

	item.FinalFile = plan.TargetPath
	item.SetProgressComplete("Filing", fmt.Sprintf("Filed as %s", filepath.Base(plan.TargetPath)))
	logger.Info(
		"filing completed",
		logging.String(logging.FieldIdentifier, plan.Identifier),
		logging.String("final_file", plan.TargetPath),
	)

	if o.notifier != nil {
		if err := o.notifier.NotifyDocumentFiled(ctx, item.OriginalName, filepath.Base(plan.TargetPath)); err != nil {
			logger.Warn("filed notification failed", logging.Error(err))
		}
	}
	return nil
}

func (o *Organizer) completeDuplicate(ctx context.Context, item *queue.Item, existingRel string) error {
	logger := logging.WithContext(ctx, o.logger)
	existingAbs := filepath.Join(o.cfg.Paths.LibraryDir, filepath.FromSlash(existingRel))

	item.Status = queue.StatusDuplicate
	item.FinalFile = existingAbs
	item.SetProgressComplete("Duplicate", fmt.Sprintf("Duplicate of %s", existingRel))
	logger.Info(
		"duplicate detected",
		logging.String(logging.FieldDocument, strings.TrimSpace(item.OriginalName)),
		logging.String("existing_file", existingAbs),
	)

	if o.cfg.Library.RemoveDuplicateInbox {
		if err := os.Remove(item.SourcePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove duplicate inbox copy", logging.Error(err))
		}
	}

	if o.notifier != nil {
		if err := o.notifier.NotifyDuplicate(ctx, item.OriginalName, existingRel); err != nil {
			logger.Warn("duplicate notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies organizer prerequisites such as the library path.
func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(o.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	return stage.Healthy(name)
}

func sidecarMetadata(id string, result classify.Result, extractedText string) sidecar.Metadata {
	meta := sidecar.Metadata{
		ID:            id,
		JDArea:        result.JDArea,
		JDCategory:    result.JDCategory,
		DocumentType:  result.DocumentType,
		Issuer:        result.Issuer,
		Tags:          result.Tags,
		Summary:       result.Summary,
		ExtractedText: extractedText,
	}
	if person := strings.TrimSpace(result.SubjectPerson); person != "" {
		meta.SubjectPerson = &person
	}
	if date := strings.TrimSpace(result.DocumentDate); date != "" {
		meta.DocumentDate = &date
	}
	return meta
}
