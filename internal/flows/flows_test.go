package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/storage"
	"github.com/MrEthical07/authguard/token"
)

func checkDeps(t *testing.T, values map[string]string, now time.Time) CheckDeps {
	t.Helper()
	mem := storage.NewMemory()
	for k, v := range values {
		if err := mem.Set(context.Background(), k, v); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	v := token.Default()
	return CheckDeps{
		Sessions: session.NewStore(mem, session.Keys{}, nil),
		Inspect: func(tok string, at time.Time) error {
			_, err := v.Inspect(tok, at)
			return err
		},
		Now: func() time.Time { return now },
	}
}

func TestRunCheckClassifies(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	v := token.Default()

	cases := []struct {
		name   string
		values map[string]string
		want   CheckFailureKind
	}{
		{name: "valid", values: map[string]string{"adminToken": v.Issue(now), "adminData": `{}`}, want: CheckFailureNone},
		{name: "absent", values: nil, want: CheckFailureAbsent},
		{name: "corrupt", values: map[string]string{"adminToken": v.Issue(now), "adminData": "not json"}, want: CheckFailureCorrupt},
		{name: "expired", values: map[string]string{"adminToken": v.Issue(now.Add(-25 * time.Hour)), "adminData": `{}`}, want: CheckFailureToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := RunCheck(context.Background(), checkDeps(t, tc.values, now))
			if res.Failure != tc.want {
				t.Fatalf("expected failure %d, got %d (%v)", tc.want, res.Failure, res.Err)
			}
			if tc.want == CheckFailureNone && res.Session == nil {
				t.Fatal("expected session on success")
			}
		})
	}
}

type brokenBackend struct{ storage.Backend }

func (brokenBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, storage.ErrUnavailable
}

func TestRunCheckUnavailable(t *testing.T) {
	deps := checkDeps(t, nil, time.Now())
	deps.Sessions = session.NewStore(brokenBackend{storage.NewMemory()}, session.Keys{}, nil)

	res := RunCheck(context.Background(), deps)
	if res.Failure != CheckFailureUnavailable {
		t.Fatalf("expected unavailable, got %d", res.Failure)
	}
}

func TestRunFocusCheck(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	v := token.Default()

	if res := RunFocusCheck(context.Background(), checkDeps(t, nil, now)); res.Checked {
		t.Fatal("focus check must skip when no token is stored")
	}

	res := RunFocusCheck(context.Background(), checkDeps(t, map[string]string{"adminToken": v.Issue(now.Add(-30 * time.Hour))}, now))
	if !res.Checked || !errors.Is(res.Err, token.ErrExpired) {
		t.Fatalf("expected expired token, got %+v", res)
	}

	res = RunFocusCheck(context.Background(), checkDeps(t, map[string]string{"adminToken": v.Issue(now)}, now))
	if !res.Checked || res.Err != nil {
		t.Fatalf("expected valid token, got %+v", res)
	}
}

type clearer struct {
	calls int
	err   error
}

func (c *clearer) Clear(context.Context) error {
	c.calls++
	return c.err
}

func TestRunTeardownOrder(t *testing.T) {
	var order []string
	c := &clearer{err: errors.New("boom")}
	res := RunTeardown(context.Background(), "bye", TeardownDeps{
		Sessions:  c,
		Notify:    func(msg string) { order = append(order, "notify:"+msg) },
		Redirect:  func(path string) { order = append(order, "redirect:"+path) },
		LoginPath: "login-admin.html",
	})

	if c.calls != 1 {
		t.Fatalf("expected one clear, got %d", c.calls)
	}
	if res.ClearErr == nil {
		t.Fatal("clear error must be reported")
	}
	if len(order) != 2 || order[0] != "notify:bye" || order[1] != "redirect:login-admin.html" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRunTeardownSilent(t *testing.T) {
	notified := false
	RunTeardown(context.Background(), "", TeardownDeps{
		Sessions: &clearer{},
		Notify:   func(string) { notified = true },
		Redirect: func(string) {},
	})
	if notified {
		t.Fatal("empty notice must not prompt")
	}
}
