package authguard

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authguard/internal/flows"
	"github.com/MrEthical07/authguard/storage"
)

// startWatchLocked subscribes to store mutations when cross-tab handling is
// enabled and the backend can report them.
func (g *Guard) startWatchLocked() {
	if !g.config.CrossTab.Enabled || g.watchCancel != nil {
		return
	}
	w, ok := g.backend.(storage.Watcher)
	if !ok {
		g.logger.Warn("authguard: cross-tab enabled but storage backend cannot be watched")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	if err != nil {
		cancel()
		g.logger.Warn("authguard: storage watch failed", "error", err)
		return
	}
	g.watchCancel = cancel

	g.watchWG.Add(1)
	go func() {
		defer g.watchWG.Done()
		for c := range changes {
			g.onStoreChange(ctx, c)
		}
	}()
}

// onStoreChange re-checks the session after another writer touched a token or
// profile key. Only an invalid result acts; a new valid login is accepted.
func (g *Guard) onStoreChange(ctx context.Context, c storage.Change) {
	if !g.store.Affects(c.Key) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.terminated || g.closed || g.state != StateAuthenticated {
		return
	}

	ctx = context.WithoutCancel(ctx)
	res := flows.RunCheck(ctx, g.flows.Check)
	if res.Failure == flows.CheckFailureNone {
		return
	}

	err := fmt.Errorf("%w: %w", ErrCrossTabLogout, g.classifyCheckFailure(res))
	g.lastFailure = err
	g.metrics.Inc(MetricCrossTabLogout)
	g.logger.Info("authguard: session changed by another page", "key", c.Key, "removed", c.Removed, "error", err)

	g.teardownLocked(ctx, "")
	g.emitAudit(ctx, auditEventCrossTabLogout, true, "cross_tab", err, func() map[string]string {
		return map[string]string{"key": c.Key}
	})
	g.flushAuditLocked(ctx)
}
