package authguard

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/scheduler"
	"github.com/MrEthical07/authguard/storage"
	"github.com/MrEthical07/authguard/token"
)

var guardTestStart = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

type guardHarness struct {
	guard   *Guard
	backend storage.Backend
	mem     *storage.Memory
	sched   *scheduler.Manual
	clock   *scheduler.Manual
	prompt  *ScriptedPrompt
	nav     *RecordingNavigator
	page    *render.StaticPage
	logs    *bytes.Buffer
}

type harnessOptions struct {
	backend storage.Backend
	page    *render.StaticPage
	prompt  *ScriptedPrompt
	config  func(*Config)
	sink    AuditSink
}

// newGuardHarness builds a guard over an in-memory store, a manual scheduler
// and a separate manual clock, so timer firing and token age move
// independently.
func newGuardHarness(t testing.TB, opts *harnessOptions) *guardHarness {
	t.Helper()
	if opts == nil {
		opts = &harnessOptions{}
	}

	h := &guardHarness{
		sched:  scheduler.NewManual(guardTestStart),
		clock:  scheduler.NewManual(guardTestStart),
		prompt: opts.prompt,
		nav:    &RecordingNavigator{},
		page:   opts.page,
		logs:   &bytes.Buffer{},
	}
	if h.prompt == nil {
		h.prompt = NewScriptedPrompt(true)
	}
	if h.page == nil {
		h.page = render.NewStaticPage("adminName", "loginTime", "logoutBtn")
	}
	h.backend = opts.backend
	if h.backend == nil {
		h.mem = storage.NewMemory()
		h.backend = h.mem
	}

	cfg := DefaultConfig()
	cfg.Profile.TimeZone = "UTC"
	if opts.config != nil {
		opts.config(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithStorage(h.backend).
		WithScheduler(h.sched).
		WithClock(h.clock).
		WithPrompt(h.prompt).
		WithNavigator(h.nav).
		WithPage(h.page).
		WithLogger(slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if opts.sink != nil {
		b = b.WithAuditSink(opts.sink)
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	t.Cleanup(g.Close)
	h.guard = g
	return h
}

func (h *guardHarness) seed(t testing.TB, values map[string]string) {
	t.Helper()
	for k, v := range values {
		if err := h.backend.Set(context.Background(), k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
}

func (h *guardHarness) seedValid(t testing.TB) {
	t.Helper()
	h.seed(t, map[string]string{
		"adminToken": token.Default().Issue(h.clock.Now()),
		"adminData":  `{"fullName":"Budi","username":"budi","loginTime":"2024-01-15T10:00:00Z"}`,
		"rememberMe": "true",
	})
}

func (h *guardHarness) assertCleared(t *testing.T) {
	t.Helper()
	for _, key := range []string{"adminToken", "adminData", "rememberMe"} {
		_, ok, err := h.backend.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if ok {
			t.Fatalf("expected %s to be removed", key)
		}
	}
}

func (h *guardHarness) assertRedirected(t *testing.T, times int) {
	t.Helper()
	got := h.nav.Redirects()
	if len(got) != times {
		t.Fatalf("expected %d redirects, got %v", times, got)
	}
	for _, p := range got {
		if p != "login-admin.html" {
			t.Fatalf("unexpected redirect target %q", p)
		}
	}
}

func memoryKeys(m *storage.Memory) []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// countingBackend records reads per key.
type countingBackend struct {
	storage.Backend
	reads map[string]int
}

func newCountingBackend(inner storage.Backend) *countingBackend {
	return &countingBackend{Backend: inner, reads: map[string]int{}}
}

func (c *countingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	c.reads[key]++
	return c.Backend.Get(ctx, key)
}

// failingBackend fails every read and optionally every removal.
type failingBackend struct {
	storage.Backend
	failRemove bool
}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, storage.ErrUnavailable
}

func (f failingBackend) Remove(ctx context.Context, key string) error {
	if f.failRemove {
		return storage.ErrUnavailable
	}
	return f.Backend.Remove(ctx, key)
}
