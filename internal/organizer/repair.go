package organizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"docket/internal/logging"
	"docket/internal/queue"
	"docket/internal/sidecar"
	"docket/internal/stage"
)

// RepairSidecars walks completed queue items and fixes their filed
// documents' sidecars: a missing sidecar is rebuilt from the stored
// classification, and a sidecar whose extracted text was lost is
// backfilled from the ledger. Returns the number of repaired documents.
func (o *Organizer) RepairSidecars(ctx context.Context) (int, error) {
	logger := logging.WithContext(ctx, o.logger)

	items, err := o.store.List(ctx, queue.StatusCompleted)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, item := range items {
		final := strings.TrimSpace(item.FinalFile)
		if final == "" {
			continue
		}
		if _, err := os.Stat(final); err != nil {
			continue
		}

		meta, readErr := sidecar.Read(final)
		if readErr != nil {
			result, parseErr := stage.ParseClassification(item.ClassificationJSON)
			if parseErr != nil {
				logger.Warn("cannot rebuild sidecar without a stored classification",
					logging.String("final_file", final),
					logging.Error(parseErr))
				continue
			}
			id := identifierFromFileName(filepath.Base(final))
			if err := sidecar.Write(final, sidecarMetadata(id, result, item.ExtractedText)); err != nil {
				logger.Warn("failed to rebuild sidecar", logging.Error(err))
				continue
			}
			logger.Info("rebuilt missing sidecar", logging.String("final_file", final))
			repaired++
			continue
		}

		if meta.ExtractedText == "" && strings.TrimSpace(item.ExtractedText) != "" {
			if err := sidecar.BackfillText(final, item.ExtractedText); err != nil {
				logger.Warn("failed to backfill sidecar text", logging.Error(err))
				continue
			}
			logger.Info("backfilled sidecar text", logging.String("final_file", final))
			repaired++
		}
	}
	return repaired, nil
}

// identifierFromFileName recovers the "CC.SS" prefix from a filed name.
func identifierFromFileName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
