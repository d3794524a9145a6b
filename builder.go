package authguard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/authguard/internal/flows"
	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/scheduler"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/storage"
	"github.com/MrEthical07/authguard/token"
	"github.com/google/uuid"
)

// Builder assembles a Guard from a Config and host ports.
//
// Builder instances are configured during initialization and used once.
type Builder struct {
	config Config

	backend   storage.Backend
	sched     scheduler.Scheduler
	clock     Clock
	prompt    Prompt
	navigator Navigator
	page      render.Page
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStorage sets the persisted store. Required.
func (b *Builder) WithStorage(backend storage.Backend) *Builder {
	b.backend = backend
	return b
}

// WithScheduler sets the timer source for the inactivity countdown. Defaults
// to real timers.
func (b *Builder) WithScheduler(s scheduler.Scheduler) *Builder {
	b.sched = s
	return b
}

// WithClock sets the time source for token age checks. Defaults to the wall
// clock.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithPrompt sets the modal dialog port. Required.
func (b *Builder) WithPrompt(p Prompt) *Builder {
	b.prompt = p
	return b
}

// WithNavigator sets the redirect port. Required.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithPage sets the page whose elements are rendered and bound. Optional; a
// nil page renders nothing and binds no logout control.
func (b *Builder) WithPage(p render.Page) *Builder {
	b.page = p
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit consumer. Events are only dispatched when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the CheckAuth latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Guard in the
// unauthenticated state. Nothing is read from storage until the first check.
func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("storage backend required")
	}
	if b.prompt == nil {
		return nil, errors.New("prompt required")
	}
	if b.navigator == nil {
		return nil, errors.New("navigator required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := b.sched
	if sched == nil {
		sched = scheduler.NewTimer()
	}
	clock := b.clock
	if clock == nil {
		clock = SystemClock()
	}

	// -------- SESSION STORE --------
	store := session.NewStore(b.backend, cfg.Keys, logger)

	validator := token.Validator{
		Prefix:    cfg.Token.Prefix,
		Separator: cfg.Token.Separator,
		MaxAge:    cfg.Token.MaxAge,
	}

	renderer := render.Renderer{
		NameElement:      cfg.Profile.NameElement,
		LoginTimeElement: cfg.Profile.LoginTimeElement,
		FallbackName:     cfg.Profile.FallbackName,
		Location:         cfg.location(),
	}

	g := &Guard{
		id:        uuid.NewString(),
		config:    cfg,
		validator: validator,
		store:     store,
		backend:   b.backend,
		sched:     sched,
		clock:     clock,
		prompt:    b.prompt,
		nav:       b.navigator,
		page:      b.page,
		renderer:  renderer,
		state:     StateUnauthenticated,
	}
	g.logger = logger.With("guard_id", g.id)
	g.metrics = NewMetrics(cfg.Metrics)
	g.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	// -------- FLOWS --------
	g.flows = flows.Deps{
		Check: flows.CheckDeps{
			Sessions: store,
			Inspect: func(tok string, now time.Time) error {
				_, err := validator.Inspect(tok, now)
				return err
			},
			Now: clock.Now,
		},
		Teardown: flows.TeardownDeps{
			Sessions:  store,
			Notify:    b.prompt.Notify,
			Redirect:  b.navigator.Redirect,
			LoginPath: cfg.Redirect.LoginPath,
			Logger:    g.logger,
		},
	}

	b.built = true

	return g, nil
}
