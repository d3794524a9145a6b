package flows

import (
	"context"
	"log/slog"
)

// SessionClearer removes every persisted session key.
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// TeardownDeps captures the fail-closed teardown dependencies.
type TeardownDeps struct {
	Sessions  SessionClearer
	Notify    func(msg string)
	Redirect  func(path string)
	LoginPath string
	Logger    *slog.Logger
}

// TeardownResult reports a teardown. ClearErr is informational: the redirect
// happens regardless.
type TeardownResult struct {
	ClearErr error
}

// RunTeardown shows notice (when non-empty), clears the store and redirects.
func RunTeardown(ctx context.Context, notice string, deps TeardownDeps) TeardownResult {
	if notice != "" && deps.Notify != nil {
		deps.Notify(notice)
	}

	err := deps.Sessions.Clear(ctx)
	if err != nil && deps.Logger != nil {
		deps.Logger.Warn("authguard: session clear incomplete", "error", err)
	}

	deps.Redirect(deps.LoginPath)
	return TeardownResult{ClearErr: err}
}
