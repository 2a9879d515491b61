package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docket/internal/logging"
	"docket/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	logger := m.runnerLogger()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleItems(ctx, logger); err != nil {
			logger.Warn("reclaim stale processing failed; stuck items may remain", logging.Error(err))
		}

		item, err := m.nextItem(ctx)
		if err != nil {
			m.handleNextItemError(ctx, logger, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, logger, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// RunOnce drains the queue synchronously, advancing every item until no
// actionable work remains. It returns the number of items that reached a
// terminal success status and the number that failed.
func (m *Manager) RunOnce(ctx context.Context) (processed, failed int, err error) {
	m.mu.RLock()
	configured := len(m.statusOrder) > 0
	m.mu.RUnlock()
	if !configured {
		return 0, 0, errors.New("workflow stages not configured")
	}

	logger := m.runnerLogger()
	if reclaimErr := m.heartbeat.ReclaimStaleItems(ctx, logger); reclaimErr != nil {
		logger.Warn("reclaim stale processing failed; stuck items may remain", logging.Error(reclaimErr))
	}

	seenFailed := make(map[int64]struct{})
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return processed, failed, ctxErr
		}

		item, nextErr := m.nextItem(ctx)
		if nextErr != nil {
			return processed, failed, nextErr
		}
		if item == nil {
			return processed, failed, nil
		}

		if procErr := m.processItem(ctx, logger, item); procErr != nil {
			if errors.Is(procErr, context.Canceled) {
				return processed, failed, procErr
			}
			if _, seen := seenFailed[item.ID]; !seen {
				seenFailed[item.ID] = struct{}{}
				failed++
			}
			continue
		}
		if item.Status == queue.StatusCompleted || item.Status == queue.StatusDuplicate {
			processed++
		}
	}
}

func (m *Manager) runnerLogger() *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return m.logger.With(logging.String("component", "workflow-runner"))
}

func (m *Manager) nextItem(ctx context.Context) (*queue.Item, error) {
	m.mu.RLock()
	statuses := m.statusOrder
	m.mu.RUnlock()
	if len(statuses) == 0 {
		return nil, nil
	}
	return m.store.NextForStatuses(ctx, statuses...)
}

func (m *Manager) handleNextItemError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next queue item", logging.Error(err))
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}
