package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docket/internal/config"
	"docket/internal/fileutil"
	"docket/internal/logging"
	"docket/internal/queue"
	"docket/internal/services/extract"
)

// scanDebounce batches bursty watcher events into one scan pass.
const scanDebounce = 500 * time.Millisecond

// Scanner watches the inbox directory and enqueues supported documents.
// A polling ticker backs up the fsnotify watcher so documents are picked up
// even when the watch cannot be established.
type Scanner struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScanner constructs an inbox scanner.
func NewScanner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Scanner {
	interval := time.Duration(cfg.Workflow.InboxPollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scanner{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "inbox-scanner"),
		interval: interval,
	}
}

// Start launches the scan loop in the background.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop terminates the scan loop and waits for it to exit.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *Scanner) run(ctx context.Context) {
	defer s.wg.Done()

	var events chan struct{}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("inbox watcher unavailable, falling back to polling", logging.Error(err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(s.cfg.Paths.InboxDir); err != nil {
			s.logger.Warn("failed to watch inbox, falling back to polling", logging.Error(err))
			watcher.Close()
			watcher = nil
		} else {
			events = make(chan struct{}, 1)
			s.wg.Add(1)
			go s.forwardEvents(ctx, watcher, events)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		case <-events:
			// Writers often emit several events per file; wait for the
			// burst to settle before scanning.
			time.Sleep(scanDebounce)
			s.scan(ctx)
		}
	}
}

func (s *Scanner) forwardEvents(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("inbox watcher error", logging.Error(err))
		}
	}
}

// scan enqueues every supported inbox document that has no active queue item.
func (s *Scanner) scan(ctx context.Context) {
	entries, err := os.ReadDir(s.cfg.Paths.InboxDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read inbox directory", logging.Error(err))
		}
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(s.cfg.Paths.InboxDir, entry.Name())
		if !extract.Supported(path) {
			continue
		}

		existing, err := s.store.FindBySourcePath(ctx, path)
		if err != nil {
			s.logger.Warn("failed to check queue for inbox file", logging.Error(err), logging.String("source", path))
			continue
		}
		if existing != nil && !queue.IsTerminal(existing.Status) {
			continue
		}

		hash, err := fileutil.HashFile(path)
		if err != nil {
			s.logger.Warn("failed to hash inbox file", logging.Error(err), logging.String("source", path))
			continue
		}
		// A terminal item for the same bytes means the document was already
		// handled and deliberately left in the inbox; do not requeue it.
		if existing != nil && queue.IsTerminal(existing.Status) && existing.ContentHash == hash {
			continue
		}
		item, err := s.store.NewFile(ctx, path, hash)
		if err != nil {
			s.logger.Warn("failed to enqueue inbox file", logging.Error(err), logging.String("source", path))
			continue
		}
		s.logger.Info("inbox document queued",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldDocument, entry.Name()),
		)
	}
}
