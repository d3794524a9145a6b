package authguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authguard/storage"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func crossTab(c *Config) { c.CrossTab.Enabled = true }

func TestCrossTabLogoutPropagates(t *testing.T) {
	shared := storage.NewMemory()
	first := newGuardHarness(t, &harnessOptions{backend: shared, config: crossTab})
	second := newGuardHarness(t, &harnessOptions{backend: shared, config: crossTab})
	first.seedValid(t)

	first.guard.Dispatch(context.Background(), Event{Kind: EventPageLoad})
	second.guard.Dispatch(context.Background(), Event{Kind: EventPageLoad})
	if second.guard.State() != StateAuthenticated {
		t.Fatalf("second page must start authenticated")
	}

	first.guard.Logout(context.Background())

	waitFor(t, second.guard.Terminated)
	if !errors.Is(second.guard.LastFailure(), ErrCrossTabLogout) {
		t.Fatalf("expected ErrCrossTabLogout, got %v", second.guard.LastFailure())
	}
	if !errors.Is(second.guard.LastFailure(), ErrAbsentCredential) {
		t.Fatalf("expected absent cause, got %v", second.guard.LastFailure())
	}
	if len(second.prompt.Notices()) != 0 {
		t.Fatalf("cross-tab logout must be silent")
	}
	second.assertRedirected(t, 1)
	if got := second.guard.MetricsSnapshot().Counters[MetricCrossTabLogout]; got != 1 {
		t.Fatalf("expected cross-tab metric 1, got %d", got)
	}
}

func TestCrossTabDisabledKeepsEventualConsistency(t *testing.T) {
	shared := storage.NewMemory()
	first := newGuardHarness(t, &harnessOptions{backend: shared})
	second := newGuardHarness(t, &harnessOptions{backend: shared})
	first.seedValid(t)

	second.guard.Dispatch(context.Background(), Event{Kind: EventPageLoad})
	first.guard.Logout(context.Background())

	if second.guard.Terminated() || second.guard.State() != StateAuthenticated {
		t.Fatalf("without cross-tab handling the other page stays unaware")
	}

	// Focus with no stored token is a no-op; only a reload notices.
	second.guard.HandleFocus(context.Background())
	second.assertRedirected(t, 0)
}

func TestCrossTabIgnoresUnrelatedKeys(t *testing.T) {
	shared := storage.NewMemory()
	h := newGuardHarness(t, &harnessOptions{backend: shared, config: crossTab})
	h.seedValid(t)
	h.guard.Dispatch(context.Background(), Event{Kind: EventPageLoad})

	if err := shared.Set(context.Background(), "theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := shared.Remove(context.Background(), "rememberMe"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := shared.Set(context.Background(), "adminData", `{"fullName":"Budi S."}`); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A later removal proves the earlier changes were drained without effect.
	if err := shared.Remove(context.Background(), "adminToken"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitFor(t, h.guard.Terminated)
	if got := h.guard.MetricsSnapshot().Counters[MetricCrossTabLogout]; got != 1 {
		t.Fatalf("expected a single cross-tab logout, got %d", got)
	}
}
