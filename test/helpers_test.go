//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newIntegrationBackend returns two Redis backends over the same namespace,
// each with its own client, the way two browser tabs share one origin.
func newIntegrationBackend(t *testing.T) (*storage.Redis, *storage.Redis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	first := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	second := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return storage.NewRedis(first, "ag", "admin.example"), storage.NewRedis(second, "ag", "admin.example"), func() {
		_ = first.Close()
		_ = second.Close()
		mr.Close()
	}
}

func buildGuard(t *testing.T, backend storage.Backend, nav *authguard.RecordingNavigator) *authguard.Guard {
	t.Helper()

	cfg := authguard.DefaultConfig()
	cfg.CrossTab.Enabled = true

	g, err := authguard.New().
		WithConfig(cfg).
		WithStorage(backend).
		WithPrompt(authguard.NewScriptedPrompt(true)).
		WithNavigator(nav).
		Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	return g
}
