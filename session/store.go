package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrEthical07/authguard/storage"
)

var (
	// ErrAbsent is returned when the token or the profile is missing or empty.
	ErrAbsent = errors.New("session absent")
	// ErrCorrupt is returned when the stored profile is not well-formed JSON.
	ErrCorrupt = errors.New("session profile corrupt")
	// ErrUnavailable is returned when the backend could not be read.
	ErrUnavailable = errors.New("session storage unavailable")
)

// Store reads and clears the persisted session through a storage backend.
// It holds no session state of its own.
type Store struct {
	backend storage.Backend
	keys    Keys
	logger  *slog.Logger
}

// NewStore creates a Store. Empty key names fall back to [DefaultKeys] and a
// nil logger to slog.Default().
func NewStore(backend storage.Backend, keys Keys, logger *slog.Logger) *Store {
	def := DefaultKeys()
	if keys.Token == "" {
		keys.Token = def.Token
	}
	if keys.Profile == "" {
		keys.Profile = def.Profile
	}
	if keys.RememberMe == "" {
		keys.RememberMe = def.RememberMe
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, keys: keys, logger: logger}
}

// Read returns the stored session. The profile is not fetched when the token
// is missing.
//
// Errors wrap [ErrAbsent], [ErrCorrupt] or [ErrUnavailable].
func (s *Store) Read(ctx context.Context) (*Session, error) {
	tok, err := s.get(ctx, s.keys.Token)
	if err != nil {
		return nil, err
	}
	raw, err := s.get(ctx, s.keys.Profile)
	if err != nil {
		return nil, err
	}
	profile, err := DecodeProfile(raw)
	if err != nil {
		s.logger.Error("session: error parsing admin data", "key", s.keys.Profile, "error", err)
		return nil, err
	}
	return &Session{Token: tok, Profile: profile}, nil
}

// Token returns the stored token, or "" when absent or unreadable.
func (s *Store) Token(ctx context.Context) string {
	v, _, err := s.backend.Get(ctx, s.keys.Token)
	if err != nil {
		s.logger.Warn("session: token read failed", "error", err)
		return ""
	}
	return v
}

// Profile returns the decoded profile, or nil when absent, unreadable or
// corrupt.
func (s *Store) Profile(ctx context.Context) *Profile {
	raw, err := s.get(ctx, s.keys.Profile)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.logger.Warn("session: profile read failed", "error", err)
		}
		return nil
	}
	p, err := DecodeProfile(raw)
	if err != nil {
		s.logger.Error("session: error parsing admin data", "key", s.keys.Profile, "error", err)
		return nil
	}
	return p
}

// Clear removes the token, the profile and the remember-me flag. Every key is
// attempted even if an earlier removal fails; failures are joined.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{s.keys.Token, s.keys.Profile, s.keys.RememberMe} {
		if err := s.backend.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Write persists a session the way the login page does. The guard itself
// never writes; this exists for the login flow, tooling and tests.
func (s *Store) Write(ctx context.Context, tok, profile string, rememberMe bool) error {
	if err := s.backend.Set(ctx, s.keys.Token, tok); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.keys.Profile, profile); err != nil {
		return err
	}
	if rememberMe {
		return s.backend.Set(ctx, s.keys.RememberMe, "true")
	}
	return s.backend.Remove(ctx, s.keys.RememberMe)
}

// Affects reports whether a change to key can flip the outcome of Read. The
// remember-me flag is never read, so it does not.
func (s *Store) Affects(key string) bool {
	return key == s.keys.Token || key == s.keys.Profile
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrAbsent, key)
	}
	return v, nil
}
