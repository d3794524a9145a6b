package authguard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/authguard/inactivity"
	"github.com/MrEthical07/authguard/internal/audit"
	"github.com/MrEthical07/authguard/internal/flows"
	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/scheduler"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/storage"
	"github.com/MrEthical07/authguard/token"
)

// Guard is the session lifecycle controller of one page.
//
// All transitions are serialized on an internal mutex, so host events, timer
// callbacks and storage watch notifications may arrive from any goroutine.
// Once a transition redirects, the page is considered gone: the inactivity
// countdown is stopped and [Guard.Dispatch] ignores further events.
type Guard struct {
	id        string
	config    Config
	validator token.Validator
	store     *session.Store
	backend   storage.Backend
	sched     scheduler.Scheduler
	clock     Clock
	prompt    Prompt
	nav       Navigator
	page      render.Page
	renderer  render.Renderer
	logger    *slog.Logger
	metrics   *Metrics
	audit     *audit.Dispatcher
	flows     flows.Deps

	mu          sync.Mutex
	state       State
	loaded      bool
	monitor     *inactivity.Monitor
	logoutBound bool
	terminated  bool
	closed      bool
	lastFailure error

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

// ID returns the instance identifier carried in logs and audit events.
func (g *Guard) ID() string { return g.id }

// Close stops the countdown and the storage watch and flushes audit events.
// It does not touch the store. Close is idempotent.
func (g *Guard) Close() {
	if g == nil {
		return
	}

	g.mu.Lock()
	g.closed = true
	g.stopLocked()
	g.mu.Unlock()

	g.watchWG.Wait()
	if g.audit != nil {
		g.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (g *Guard) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot copies the current counters.
func (g *Guard) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return g.metrics.Snapshot()
}

// Status is a point-in-time view of one guard, read by metric exporters.
type Status struct {
	GuardID        string
	State          State
	Terminated     bool
	Metrics        MetricsSnapshot
	AuditDelivered uint64
	AuditDropped   uint64
}

// Status snapshots the guard. Like State it takes the transition lock, so it
// must not be called from a Prompt or Navigator.
func (g *Guard) Status() Status {
	g.mu.Lock()
	st := Status{GuardID: g.id, State: g.state, Terminated: g.terminated}
	g.mu.Unlock()

	st.Metrics = g.MetricsSnapshot()
	st.AuditDelivered = g.audit.Delivered()
	st.AuditDropped = g.audit.Dropped()
	return st
}

// State returns the state derived by the last transition.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// LastFailure returns the classified cause of the last fail-closed
// transition, or nil. A declined logout is not a failure.
func (g *Guard) LastFailure() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFailure
}

// Terminated reports whether a transition has redirected away.
func (g *Guard) Terminated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.terminated
}

/*
====================================
CAPABILITY SURFACE
====================================
*/

// CheckAuth reports whether a token and a well-formed profile are stored and
// the token is valid. On failure the store is cleared and the host is
// redirected to the login page without a notice.
func (g *Guard) CheckAuth(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkLocked(ctx)
}

// Logout clears the store and redirects, regardless of state.
func (g *Guard) Logout(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardownLocked(ctx, "")
	g.emitAudit(ctx, auditEventLogout, true, "explicit", nil, nil)
	g.flushAuditLocked(ctx)
}

// AdminData returns the stored profile, or nil when absent or corrupt.
func (g *Guard) AdminData(ctx context.Context) *session.Profile {
	return g.store.Profile(ctx)
}

// AdminToken returns the stored token, or "".
func (g *Guard) AdminToken(ctx context.Context) string {
	return g.store.Token(ctx)
}

// IsValidToken applies the token rules against the guard's clock.
func (g *Guard) IsValidToken(tok string) bool {
	return g.validator.IsValid(tok, g.clock.Now())
}

// SetupAutoLogout starts the inactivity countdown. It returns
// inactivity.ErrAlreadyStarted on a second call.
func (g *Guard) SetupAutoLogout() error {
	if g == nil {
		return ErrGuardNotReady
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setupAutoLogoutLocked()
}

// DisplayAdminInfo renders the stored profile onto the page.
func (g *Guard) DisplayAdminInfo(ctx context.Context) {
	g.renderer.Render(g.page, g.store.Profile(ctx))
}

// HandleFocus re-validates the stored token. A present but invalid token
// shows the session-expired notice and logs out; a missing token is ignored.
func (g *Guard) HandleFocus(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.focusLocked(ctx)
}

// RequestLogout asks for confirmation and logs out when confirmed. Declining
// has no side effects. It reports whether the logout happened.
func (g *Guard) RequestLogout(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requestLogoutLocked(ctx)
}

/*
====================================
EVENT DISPATCH
====================================
*/

// Dispatch delivers a host event. Qualifying input restarts the inactivity
// countdown before any other handling, so no handler can swallow it.
func (g *Guard) Dispatch(ctx context.Context, ev Event) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out Outcome
	if g.terminated || g.closed {
		return out
	}

	if inactivity.Qualifies(string(ev.Kind)) && g.monitor != nil {
		g.monitor.Observe(string(ev.Kind))
		g.metrics.Inc(MetricActivityReset)
		out.ActivityReset = true
	}

	switch ev.Kind {
	case EventPageLoad:
		g.pageLoadLocked(ctx)
	case EventFocus:
		g.focusLocked(ctx)
	case EventKeyDown:
		if g.isShortcut(ev) {
			out.PreventDefault = true
			g.requestLogoutLocked(ctx)
		}
	case EventClick:
		if g.logoutBound && ev.Target == g.config.Profile.LogoutElement {
			out.PreventDefault = true
			g.requestLogoutLocked(ctx)
		}
	}

	out.Redirected = g.terminated
	return out
}

func (g *Guard) isShortcut(ev Event) bool {
	sc := g.config.Shortcut
	if !sc.Enabled || ev.Key != sc.Key {
		return false
	}
	return ev.Ctrl || !sc.Ctrl
}

/*
====================================
TRANSITIONS
====================================
*/

func (g *Guard) pageLoadLocked(ctx context.Context) {
	if g.loaded {
		return
	}
	g.loaded = true

	if !g.checkLocked(ctx) {
		return
	}

	if err := g.setupAutoLogoutLocked(); err != nil {
		g.logger.Warn("authguard: inactivity monitor not started", "error", err)
	}
	g.renderer.Render(g.page, g.store.Profile(ctx))

	if g.page != nil && g.config.Profile.LogoutElement != "" {
		if _, ok := g.page.Element(g.config.Profile.LogoutElement); ok {
			g.logoutBound = true
		}
	}

	g.startWatchLocked()
}

func (g *Guard) checkLocked(ctx context.Context) bool {
	start := time.Now()
	res := flows.RunCheck(ctx, g.flows.Check)
	if g.metrics.LatencyEnabled() {
		g.metrics.Observe(MetricCheckLatency, time.Since(start))
	}

	if res.Failure == flows.CheckFailureNone {
		g.state = StateAuthenticated
		g.lastFailure = nil
		g.metrics.Inc(MetricCheckAuthSuccess)
		g.emitAudit(ctx, auditEventCheck, true, "", nil, nil)
		return true
	}

	err := g.classifyCheckFailure(res)
	g.lastFailure = err
	g.metrics.Inc(MetricCheckAuthFailure)
	g.logger.Info("authguard: check failed closed", "error", err)

	g.state = StateUnauthenticated
	g.emitAudit(ctx, auditEventCheck, false, "fail_closed", err, nil)
	g.teardownLocked(ctx, "")
	g.flushAuditLocked(ctx)
	return false
}

func (g *Guard) classifyCheckFailure(res flows.CheckResult) error {
	switch res.Failure {
	case flows.CheckFailureCorrupt:
		g.metrics.Inc(MetricCorruptProfile)
		return fmt.Errorf("%w: %w", ErrCorruptProfile, res.Err)
	case flows.CheckFailureToken:
		g.metrics.Inc(MetricTokenRejected)
		return fmt.Errorf("%w: %w", ErrTokenInvalid, res.Err)
	case flows.CheckFailureUnavailable:
		g.metrics.Inc(MetricStorageUnavailable)
		g.logger.Warn("authguard: storage read failed, treating session as absent", "error", res.Err)
		return fmt.Errorf("%w: %w", ErrAbsentCredential, res.Err)
	default:
		g.metrics.Inc(MetricAbsentCredential)
		return fmt.Errorf("%w: %w", ErrAbsentCredential, res.Err)
	}
}

func (g *Guard) setupAutoLogoutLocked() error {
	if g.terminated || g.closed {
		return ErrGuardTerminated
	}
	if g.monitor != nil {
		return inactivity.ErrAlreadyStarted
	}
	g.monitor = inactivity.New(g.sched, g.config.Inactivity.Timeout, g.onInactivity)
	return g.monitor.Start()
}

// onInactivity runs on the scheduler's goroutine. The monitor releases its own
// lock before calling it.
func (g *Guard) onInactivity() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.terminated || g.closed {
		return
	}

	ctx := context.Background()
	timeout := g.monitor.Timeout()
	g.lastFailure = ErrInactivityExpired
	g.metrics.Inc(MetricInactivityTimeout)
	g.logger.Info("authguard: session expired after inactivity", "timeout", timeout)

	g.teardownLocked(ctx, g.config.Messages.InactivityExpired)
	g.emitAudit(ctx, auditEventInactivityTimeout, true, "inactivity", ErrInactivityExpired, func() map[string]string {
		return map[string]string{"timeout": timeout.String()}
	})
	g.flushAuditLocked(ctx)
}

func (g *Guard) focusLocked(ctx context.Context) {
	res := flows.RunFocusCheck(ctx, g.flows.Check)
	if !res.Checked {
		return
	}
	g.metrics.Inc(MetricFocusCheck)
	if res.Err == nil {
		return
	}

	err := fmt.Errorf("%w: %w", ErrTokenInvalid, res.Err)
	g.lastFailure = err
	g.metrics.Inc(MetricFocusExpired)
	g.logger.Info("authguard: token expired on focus", "error", res.Err)

	g.teardownLocked(ctx, g.config.Messages.SessionExpired)
	g.emitAudit(ctx, auditEventFocusExpired, true, "focus", err, nil)
	g.flushAuditLocked(ctx)
}

func (g *Guard) requestLogoutLocked(ctx context.Context) bool {
	g.metrics.Inc(MetricLogoutRequested)
	if !g.prompt.Confirm(g.config.Messages.ConfirmLogout) {
		g.metrics.Inc(MetricLogoutDeclined)
		g.emitAudit(ctx, auditEventLogoutDeclined, true, "user", ErrLogoutDeclined, nil)
		return false
	}

	g.teardownLocked(ctx, "")
	g.emitAudit(ctx, auditEventLogout, true, "user", nil, nil)
	g.flushAuditLocked(ctx)
	return true
}

// teardownLocked shows notice (if any), clears the store and redirects. The
// guard is terminated before the redirect so nothing fires afterwards.
func (g *Guard) teardownLocked(ctx context.Context, notice string) {
	g.state = StateUnauthenticated
	g.terminated = true
	g.stopLocked()

	res := flows.RunTeardown(ctx, notice, g.flows.Teardown)
	if res.ClearErr != nil {
		g.metrics.Inc(MetricClearFailure)
	}
	g.metrics.Inc(MetricLogout)
}

func (g *Guard) stopLocked() {
	if g.monitor != nil {
		g.monitor.Stop()
	}
	if g.watchCancel != nil {
		g.watchCancel()
		g.watchCancel = nil
	}
}
