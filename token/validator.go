package token

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultPrefix is the fixed token prefix written by the login flow.
	DefaultPrefix = "admin_"
	// DefaultSeparator splits the token into prefix and timestamp segments.
	DefaultSeparator = "_"
	// DefaultMaxAge is the token lifetime measured from its issue timestamp.
	DefaultMaxAge = 24 * time.Hour
)

var (
	// ErrEmpty is returned for an empty token.
	ErrEmpty = errors.New("token empty")
	// ErrPrefix is returned when the token lacks the configured prefix.
	ErrPrefix = errors.New("token prefix missing")
	// ErrSegments is returned when splitting yields fewer than two segments.
	ErrSegments = errors.New("token has too few segments")
	// ErrTimestamp is returned when the timestamp segment is not a number.
	ErrTimestamp = errors.New("token timestamp not a number")
	// ErrExpired is returned when the token age reached MaxAge.
	ErrExpired = errors.New("token expired")
)

// Validator checks token shape and age.
//
// The zero value is not usable; start from [Default].
type Validator struct {
	Prefix    string
	Separator string
	MaxAge    time.Duration
}

// Info describes an inspected token.
type Info struct {
	// IssuedAtMillis is NaN when the timestamp segment did not parse.
	IssuedAtMillis float64
	// Age is the wall-clock age at inspection time. Negative for tokens issued
	// in the future.
	Age time.Duration
}

// Default returns the validator used by the admin pages.
func Default() Validator {
	return Validator{
		Prefix:    DefaultPrefix,
		Separator: DefaultSeparator,
		MaxAge:    DefaultMaxAge,
	}
}

// IsValid reports whether tok is well formed and younger than MaxAge at now.
// Tokens dated in the future are valid.
func (v Validator) IsValid(tok string, now time.Time) bool {
	_, err := v.Inspect(tok, now)
	return err == nil
}

// Inspect classifies tok. A nil error means the token is valid.
func (v Validator) Inspect(tok string, now time.Time) (Info, error) {
	info := Info{IssuedAtMillis: math.NaN()}
	if tok == "" {
		return info, ErrEmpty
	}
	if !strings.HasPrefix(tok, v.Prefix) {
		return info, ErrPrefix
	}

	sep := v.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(tok, sep)
	if len(parts) < 2 {
		return info, ErrSegments
	}

	issued := parseInt(parts[1])
	info.IssuedAtMillis = issued
	if math.IsNaN(issued) {
		return info, ErrTimestamp
	}

	age := float64(now.UnixMilli()) - issued
	info.Age = clampDuration(age)

	// NaN and overflowed ages fall through to the comparison like the page
	// script did: anything not strictly below MaxAge is expired.
	if !(age < float64(v.MaxAge.Milliseconds())) {
		return info, ErrExpired
	}
	return info, nil
}

// Issue builds a token for the given issue time.
func (v Validator) Issue(now time.Time) string {
	return v.Prefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IssueWithSuffix builds a token carrying an extra opaque suffix segment.
func (v Validator) IssueWithSuffix(now time.Time, suffix string) string {
	if suffix == "" {
		return v.Issue(now)
	}
	sep := v.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return v.Issue(now) + sep + suffix
}

// isJSSpace matches the WhiteSpace and LineTerminator sets skipped by
// parseInt: Unicode space separators, the ASCII controls, LS, PS and BOM.
// U+0085 is a Go space but not a JavaScript one.
func isJSSpace(r rune) bool {
	if r == '\ufeff' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

// parseInt mirrors parseInt(s, 10): leading whitespace is skipped, an optional
// sign is accepted and the longest run of decimal digits is used. No digits
// yields NaN.
func parseInt(s string) float64 {
	s = strings.TrimLeftFunc(s, isJSSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	// ParseFloat never fails on a pure digit run; overflow yields +Inf.
	f, _ := strconv.ParseFloat(s[:end], 64)
	if neg {
		f = -f
	}
	return f
}

func clampDuration(ms float64) time.Duration {
	limit := float64(math.MaxInt64 / int64(time.Millisecond))
	switch {
	case math.IsNaN(ms):
		return 0
	case ms >= limit:
		return time.Duration(math.MaxInt64)
	case ms <= -limit:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ms) * time.Millisecond
}
