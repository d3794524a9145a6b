package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authguard/session"
)

// CheckFailureKind classifies check failures for root-level mapping.
type CheckFailureKind int

const (
	CheckFailureNone CheckFailureKind = iota
	CheckFailureAbsent
	CheckFailureCorrupt
	CheckFailureUnavailable
	CheckFailureToken
)

// CheckResult returns either the session or a classified failure.
type CheckResult struct {
	Failure CheckFailureKind
	Err     error
	Session *session.Session
}

// SessionReader reads the persisted session.
type SessionReader interface {
	Read(ctx context.Context) (*session.Session, error)
	Token(ctx context.Context) string
}

// CheckDeps captures page-load and focus check dependencies.
type CheckDeps struct {
	Sessions SessionReader
	// Inspect returns nil for a valid token.
	Inspect func(tok string, now time.Time) error
	Now     func() time.Time
}

// RunCheck reads the session and validates its token.
func RunCheck(ctx context.Context, deps CheckDeps) CheckResult {
	sess, err := deps.Sessions.Read(ctx)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrCorrupt):
			return CheckResult{Failure: CheckFailureCorrupt, Err: err}
		case errors.Is(err, session.ErrUnavailable):
			return CheckResult{Failure: CheckFailureUnavailable, Err: err}
		default:
			return CheckResult{Failure: CheckFailureAbsent, Err: err}
		}
	}

	if err := deps.Inspect(sess.Token, deps.Now()); err != nil {
		return CheckResult{Failure: CheckFailureToken, Err: err, Session: sess}
	}

	return CheckResult{Session: sess}
}

// FocusResult reports a focus re-validation.
type FocusResult struct {
	// Checked is false when no token was stored; nothing is done then.
	Checked bool
	Err     error
}

// RunFocusCheck validates the stored token only. The profile is not read.
func RunFocusCheck(ctx context.Context, deps CheckDeps) FocusResult {
	tok := deps.Sessions.Token(ctx)
	if tok == "" {
		return FocusResult{}
	}
	return FocusResult{Checked: true, Err: deps.Inspect(tok, deps.Now())}
}
