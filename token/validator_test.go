package token

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func ms(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

func TestIsValidRejectsMalformed(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)

	cases := []struct {
		name string
		tok  string
		want error
	}{
		{name: "empty", tok: "", want: ErrEmpty},
		{name: "no prefix", tok: "user_" + ms(now), want: ErrPrefix},
		{name: "prefix case", tok: "Admin_" + ms(now), want: ErrPrefix},
		{name: "bare prefix", tok: "admin_", want: ErrTimestamp},
		{name: "letters", tok: "admin_abc", want: ErrTimestamp},
		{name: "sign only", tok: "admin_-", want: ErrTimestamp},
		{name: "missing separator", tok: "admin" + ms(now), want: ErrPrefix},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v.IsValid(tc.tok, now) {
				t.Fatalf("expected %q to be invalid", tc.tok)
			}
			if _, err := v.Inspect(tc.tok, now); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIsValidAgeBoundary(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)

	cases := []struct {
		name  string
		issue time.Time
		want  bool
	}{
		{name: "fresh", issue: now, want: true},
		{name: "one ms before limit", issue: now.Add(-DefaultMaxAge + time.Millisecond), want: true},
		{name: "exactly at limit", issue: now.Add(-DefaultMaxAge), want: false},
		{name: "25h old", issue: now.Add(-25 * time.Hour), want: false},
		{name: "future dated", issue: now.Add(72 * time.Hour), want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := v.Issue(tc.issue)
			if got := v.IsValid(tok, now); got != tc.want {
				t.Fatalf("IsValid(%q) = %v, want %v", tok, got, tc.want)
			}
		})
	}
}

func TestIsValidParseIntSemantics(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)
	fresh := ms(now.Add(-time.Minute))

	cases := []struct {
		tok  string
		want bool
	}{
		{tok: "admin_" + fresh + "_abc123", want: true},
		{tok: "admin_" + fresh + "xyz", want: true},
		{tok: "admin_ " + fresh, want: true},
		{tok: "admin_+" + fresh, want: true},
		{tok: "admin_-" + fresh, want: false},
		{tok: "admin_0", want: false},
		{tok: "admin_99999999999999999999999999", want: true},
		{tok: "admin_1e3", want: false},
	}

	for _, tc := range cases {
		if got := v.IsValid(tc.tok, now); got != tc.want {
			t.Fatalf("IsValid(%q) = %v, want %v", tc.tok, got, tc.want)
		}
	}
}

func TestIsValidSkipsUnicodeWhitespace(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)
	fresh := ms(now.Add(-time.Minute))

	for _, lead := range []string{
		"\u00a0", "\ufeff", "\u1680", "\u2000", "\u200a", "\u2028",
		"\u2029", "\u202f", "\u205f", "\u3000", "\t\u3000 ",
	} {
		if !v.IsValid("admin_"+lead+fresh, now) {
			t.Fatalf("IsValid with leading %q = false, want true", lead)
		}
	}
	for _, lead := range []string{"\u0085", "\u180e", "\u200b"} {
		if v.IsValid("admin_"+lead+fresh, now) {
			t.Fatalf("IsValid with leading %q = true, want false", lead)
		}
	}
}

func TestInspectReportsAge(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)

	info, err := v.Inspect(v.Issue(now.Add(-90*time.Minute)), now)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Age != 90*time.Minute {
		t.Fatalf("expected 90m age, got %v", info.Age)
	}

	info, err = v.Inspect(v.Issue(now.Add(time.Hour)), now)
	if err != nil {
		t.Fatalf("future token should be valid, got %v", err)
	}
	if info.Age != -time.Hour {
		t.Fatalf("expected -1h age, got %v", info.Age)
	}
}

func TestIssueWithSuffix(t *testing.T) {
	v := Default()
	now := time.UnixMilli(1_700_000_000_000)

	tok := v.IssueWithSuffix(now, "k9")
	if tok != "admin_1700000000000_k9" {
		t.Fatalf("unexpected token %q", tok)
	}
	if !v.IsValid(tok, now) {
		t.Fatal("suffixed token should be valid")
	}
	if v.IssueWithSuffix(now, "") != v.Issue(now) {
		t.Fatal("empty suffix should match Issue")
	}
}

func TestCustomSeparator(t *testing.T) {
	v := Validator{Prefix: "adm:", Separator: ":", MaxAge: time.Hour}
	now := time.UnixMilli(1_700_000_000_000)

	if !v.IsValid("adm:"+ms(now), now) {
		t.Fatal("expected custom-format token to be valid")
	}
	if v.IsValid("adm:"+ms(now.Add(-2*time.Hour)), now) {
		t.Fatal("expected custom max age to apply")
	}
}
