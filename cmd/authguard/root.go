package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	backendFile  = "file"
	backendRedis = "redis"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	backend    string
	filePath   string
	redisAddr  string
	prefix     string
	namespace  string
	logLevel   string
	auditLog   string

	in  io.Reader
	out io.Writer
}

// env is what a subcommand runs against.
type env struct {
	cfg     authguard.Config
	backend storage.Backend
	store   *session.Store
	logger  *slog.Logger
	audit   authguard.AuditSink
	close   func()
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{in: in, out: out}

	cmd := &cobra.Command{
		Use:   "authguard",
		Short: "Inspect and drive an admin session store",
		Long: `authguard runs the admin session guard against a persisted store.

The store is either a JSON file (the default, shared by every process that
points at it) or a Redis namespace. Subcommands write a session the way the
login page does, run the page-load check, log out, and follow the store for
changes made elsewhere.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.backend, "backend", backendFile, "Storage backend (file, redis)")
	flags.StringVar(&opts.filePath, "file", "authguard-storage.json", "Storage file for the file backend")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address; if empty, REDIS_ADDR env or an embedded miniredis is used")
	flags.StringVar(&opts.prefix, "prefix", "ag", "Redis key prefix")
	flags.StringVar(&opts.namespace, "namespace", "default", "Redis namespace (one per origin)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.auditLog, "audit-log", "", "Append guard audit events as JSON lines to this file (- for stdout)")

	cmd.AddCommand(
		newLoginCmd(opts),
		newCheckCmd(opts),
		newLogoutCmd(opts),
		newInspectCmd(opts),
		newWatchCmd(opts),
	)

	return cmd
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(o.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *options) open(ctx context.Context) (*env, error) {
	logger := o.logger()

	cfg := authguard.DefaultConfig()
	if o.configPath != "" {
		loaded, err := authguard.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	e := &env{cfg: cfg, logger: logger, close: func() {}}

	switch o.backend {
	case backendFile:
		e.backend = storage.NewFile(o.filePath)
	case backendRedis:
		addr := o.redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, fmt.Errorf("start miniredis: %w", err)
			}
			addr = mr.Addr()
			logger.Warn("no redis address given, using an embedded miniredis; data is not persisted", "addr", addr)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		r := storage.NewRedis(client, o.prefix, o.namespace)
		if err := r.Ping(ctx); err != nil {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
			return nil, err
		}
		e.backend = r
		e.close = func() {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", o.backend)
	}

	if err := e.openAuditLog(o); err != nil {
		e.close()
		return nil, err
	}

	e.store = session.NewStore(e.backend, cfg.Keys, logger)
	return e, nil
}

// openAuditLog enables auditing when --audit-log is set. The file is closed
// after the backend.
func (e *env) openAuditLog(o *options) error {
	if o.auditLog == "" {
		return nil
	}
	e.cfg.Audit.Enabled = true
	if o.auditLog == "-" {
		e.audit = authguard.NewJSONWriterSink(o.out)
		return nil
	}

	f, err := os.OpenFile(o.auditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	sink := authguard.NewJSONWriterSink(f)
	e.audit = sink
	closeBackend := e.close
	e.close = func() {
		closeBackend()
		if n := sink.Failed(); n > 0 {
			e.logger.Warn("audit events could not be written", "path", o.auditLog, "count", n)
		}
		_ = f.Close()
	}
	return nil
}

var errNotAuthenticated = errors.New("not authenticated")
