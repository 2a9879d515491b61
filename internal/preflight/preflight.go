package preflight

import (
	"context"

	"docket/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.QuarantineDir != "" {
		results = append(results, CheckDirectoryAccess("Quarantine directory", cfg.Paths.QuarantineDir))
	}

	if cfg.Extraction.PDFTool != "" {
		results = append(results, CheckBinary("PDF text tool", cfg.Extraction.PDFTool))
	}
	if cfg.Extraction.OCRTool != "" {
		results = append(results, CheckBinary("OCR tool", cfg.Extraction.OCRTool))
	}

	switch cfg.Classifier.Provider {
	case "llm":
		results = append(results, CheckLLM(ctx, "LLM API", cfg))
	case "cli":
		results = append(results, CheckBinary("Classifier CLI", cfg.Classifier.CLIBinary))
	case "keyword":
		// Keyword matching has no external dependencies.
	default:
		// Auto-detection: report whatever is configured, quietly skip the rest.
		if cfg.Classifier.APIKey != "" {
			results = append(results, CheckLLM(ctx, "LLM API", cfg))
		}
		if cfg.Classifier.CLIBinary != "" {
			results = append(results, CheckBinary("Classifier CLI", cfg.Classifier.CLIBinary))
		}
	}

	return results
}
