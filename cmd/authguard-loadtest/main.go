package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/storage"
	"github.com/MrEthical07/authguard/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type discardNavigator struct{}

func (discardNavigator) Redirect(string) {}

func main() {
	var (
		origins      = flag.Int("origins", 10000, "number of stored sessions, one per origin namespace")
		concurrency  = flag.Int("concurrency", 256, "number of concurrent workers")
		ops          = flag.Int("ops", 200000, "operations per phase (check + focus)")
		expiredRatio = flag.Float64("expired-ratio", 0.1, "fraction of seeded sessions with a 25h old token")
		redisAddr    = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix       = flag.String("prefix", "ag", "storage key prefix")
	)
	flag.Parse()

	if *origins <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "origins, concurrency, and ops must be > 0")
		os.Exit(2)
	}
	if *expiredRatio < 0 || *expiredRatio > 1 {
		fmt.Fprintln(os.Stderr, "expired-ratio must be within [0, 1]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backends := make([]*storage.Redis, *origins)
	validator := token.Default()
	fmt.Printf("seeding %d sessions...\n", *origins)
	startSeed := time.Now()
	for i := 0; i < *origins; i++ {
		backends[i] = storage.NewRedis(client, *prefix, fmt.Sprintf("origin-%d", i))
		issued := time.Now()
		if float64(i) < *expiredRatio*float64(*origins) {
			issued = issued.Add(-25 * time.Hour)
		}
		if err := seed(ctx, backends[i], validator.IssueWithSuffix(issued, uuid.NewString()), i); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	checkStats := runCheckPhase(ctx, backends, logger, *ops, *concurrency)
	focusStats := runFocusPhase(ctx, backends, logger, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("focus", focusStats)
}

func seed(ctx context.Context, b storage.Backend, tok string, i int) error {
	profile, err := json.Marshal(map[string]any{
		"fullName":  fmt.Sprintf("Admin %d", i),
		"username":  fmt.Sprintf("admin%d", i),
		"loginTime": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	keys := authguard.DefaultConfig().Keys
	if err := b.Set(ctx, keys.Token, tok); err != nil {
		return err
	}
	return b.Set(ctx, keys.Profile, string(profile))
}

func buildGuard(b storage.Backend, logger *slog.Logger) (*authguard.Guard, error) {
	return authguard.New().
		WithStorage(b).
		WithPrompt(authguard.NewScriptedPrompt(true)).
		WithNavigator(discardNavigator{}).
		WithLogger(logger).
		WithMetricsEnabled(false).
		Build()
}

// runCheckPhase models page loads: a fresh guard per operation. Expired
// sessions are torn down on their first check, so later picks of the same
// origin fail as absent.
func runCheckPhase(ctx context.Context, backends []*storage.Redis, logger *slog.Logger, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(backends))
				t0 := time.Now()
				g, err := buildGuard(backends[idx], logger)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				ok := g.CheckAuth(ctx)
				d := time.Since(t0)
				g.Close()
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runFocusPhase shares one guard per origin across workers, so focus checks on
// the same page contend on its transition lock.
func runFocusPhase(ctx context.Context, backends []*storage.Redis, logger *slog.Logger, ops, concurrency int) phaseStats {
	guards := make([]*authguard.Guard, len(backends))
	for i, b := range backends {
		g, err := buildGuard(b, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build guard: %v\n", err)
			os.Exit(1)
		}
		guards[i] = g
	}
	defer func() {
		for _, g := range guards {
			g.Close()
		}
	}()

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				g := guards[r.Intn(len(guards))]
				t0 := time.Now()
				out := g.Dispatch(ctx, authguard.Event{Kind: authguard.EventFocus})
				d := time.Since(t0)
				if out.Redirected {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
