package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docket/internal/classify"
	"docket/internal/config"
	"docket/internal/daemonrun"
	"docket/internal/fileutil"
	"docket/internal/logging"
	"docket/internal/organizer"
	"docket/internal/queue"
	"docket/internal/services/extract"
	"docket/internal/services/llm"
	"docket/internal/taxonomy"
	"docket/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var keepDuplicates bool

	cmd := &cobra.Command{
		Use:   "process [path...]",
		Short: "Process inbox documents in one pass and exit",
		Long: "Process enqueues every supported document from the inbox (plus any " +
			"paths given as arguments) and drains the queue through extraction, " +
			"classification, and filing. With --dry-run nothing is moved; the " +
			"filing plan for each document is printed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if keepDuplicates {
				cfg.Library.RemoveDuplicateInbox = false
			}
			if dryRun {
				return runDryRun(cmd, cfg, args)
			}
			return runProcess(cmd, cfg, args)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show filing plans without moving any files")
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "Leave duplicate inbox copies in place instead of removing them")
	return cmd
}

func runProcess(cmd *cobra.Command, cfg *config.Config, args []string) error {
	stdout := cmd.OutOrStdout()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	queued, err := enqueueCandidates(cmd.Context(), cfg, store, args)
	if err != nil {
		return err
	}
	if queued > 0 {
		fmt.Fprintf(stdout, "Queued %d documents\n", queued)
	}

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(daemonrun.BuildStages(cfg, store, logger))

	processed, failed, err := manager.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Processed %d documents, %d failed\n", processed, failed)
	if failed > 0 {
		fmt.Fprintln(stdout, "Inspect failures with `docket queue list --status failed`")
	}
	return nil
}

func runDryRun(cmd *cobra.Command, cfg *config.Config, args []string) error {
	stdout := cmd.OutOrStdout()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	paths, err := collectCandidates(cfg, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(stdout, "No documents to process")
		return nil
	}

	// The organizer previews against the live library, so an open store is
	// still required even though nothing is persisted.
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	extractor := extract.NewClient(extract.Config{
		PDFTool:        cfg.Extraction.PDFTool,
		OCRTool:        cfg.Extraction.OCRTool,
		TimeoutSeconds: cfg.Extraction.TimeoutSeconds,
	}, logger)
	orchestrator := buildOrchestrator(cfg, logger)
	org := organizer.NewOrganizer(cfg, store, logger)
	taxonomyStore := taxonomy.NewStore(cfg.Paths.LibraryDir, logger)

	rows := make([][]string, 0, len(paths))
	for _, path := range paths {
		row, err := previewDocument(cmd.Context(), cfg, extractor, orchestrator, org, taxonomyStore, path)
		if err != nil {
			rows = append(rows, []string{filepath.Base(path), "error", err.Error(), ""})
			continue
		}
		rows = append(rows, row)
	}

	table := renderTable(
		[]string{"Document", "Outcome", "Target", "Backend"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprintln(stdout, table)
	return nil
}

func previewDocument(
	ctx context.Context,
	cfg *config.Config,
	extractor *extract.Client,
	orchestrator *classify.Orchestrator,
	org *organizer.Organizer,
	tax *taxonomy.Store,
	path string,
) ([]string, error) {
	text, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	effective, _, taxErr := tax.Effective()
	if taxErr != nil {
		effective = taxonomy.Defaults()
	}

	result := orchestrator.Classify(ctx, text, filepath.Base(path), effective)
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode classification: %w", err)
	}

	item := &queue.Item{
		SourcePath:         path,
		OriginalName:       filepath.Base(path),
		ClassificationJSON: string(raw),
	}
	plan, err := org.Preview(ctx, item)
	if err != nil {
		return nil, err
	}

	if plan.Duplicate {
		return []string{filepath.Base(path), "duplicate", plan.ExistingFile, result.Backend}, nil
	}
	target, relErr := filepath.Rel(cfg.Paths.LibraryDir, plan.TargetPath)
	if relErr != nil {
		target = plan.TargetPath
	}
	return []string{filepath.Base(path), "file", filepath.ToSlash(target), result.Backend}, nil
}

// collectCandidates gathers explicit arguments plus supported inbox entries.
func collectCandidates(cfg *config.Config, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	seen := make(map[string]struct{})

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", abs, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", abs)
		}
		if !extract.Supported(abs) {
			return nil, fmt.Errorf("unsupported document type: %s", abs)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		paths = append(paths, abs)
	}

	entries, err := os.ReadDir(cfg.Paths.InboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return paths, nil
		}
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(cfg.Paths.InboxDir, entry.Name())
		if !extract.Supported(path) {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths, nil
}

// enqueueCandidates adds candidate documents to the queue, skipping paths
// whose bytes were already handled.
func enqueueCandidates(ctx context.Context, cfg *config.Config, store *queue.Store, args []string) (int, error) {
	paths, err := collectCandidates(cfg, args)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, path := range paths {
		existing, err := store.FindBySourcePath(ctx, path)
		if err != nil {
			return queued, err
		}
		if existing != nil && !queue.IsTerminal(existing.Status) {
			continue
		}
		hash, err := fileutil.HashFile(path)
		if err != nil {
			return queued, fmt.Errorf("hash %s: %w", path, err)
		}
		if existing != nil && queue.IsTerminal(existing.Status) && existing.ContentHash == hash {
			continue
		}
		if _, err := store.NewFile(ctx, path, hash); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func buildOrchestrator(cfg *config.Config, logger *slog.Logger) *classify.Orchestrator {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	})
	backends := []classify.Backend{
		classify.NewLLMBackend(client, cfg.Classifier.MaxChars),
		classify.NewCLIBackend(cfg.Classifier.CLIBinary, cfg.Classifier.TimeoutSeconds, cfg.Classifier.MaxChars),
		classify.NewKeywordBackend(),
	}
	return classify.NewOrchestrator(cfg.Classifier.Provider, backends, logger)
}
