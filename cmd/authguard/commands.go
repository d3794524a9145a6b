package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/token"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (e *env) validator() token.Validator {
	return token.Validator{
		Prefix:    e.cfg.Token.Prefix,
		Separator: e.cfg.Token.Separator,
		MaxAge:    e.cfg.Token.MaxAge,
	}
}

func (e *env) page() *render.StaticPage {
	return render.NewStaticPage(e.cfg.Profile.NameElement, e.cfg.Profile.LoginTimeElement, e.cfg.Profile.LogoutElement)
}

func (e *env) guard(opts *options, prompt authguard.Prompt, page render.Page) (*authguard.Guard, error) {
	b := authguard.New().
		WithConfig(e.cfg).
		WithStorage(e.backend).
		WithPrompt(prompt).
		WithNavigator(printNavigator{out: opts.out}).
		WithPage(page).
		WithLogger(e.logger)
	if e.audit != nil {
		b = b.WithAuditSink(e.audit)
	}
	return b.Build()
}

func newLoginCmd(opts *options) *cobra.Command {
	var (
		fullName   string
		username   string
		rememberMe bool
		backdate   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Write a session the way the login page does",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			now := time.Now()
			tok := e.validator().IssueWithSuffix(now.Add(-backdate), uuid.NewString())

			fields := map[string]any{"loginTime": now.UTC().Format(time.RFC3339)}
			if fullName != "" {
				fields["fullName"] = fullName
			}
			if username != "" {
				fields["username"] = username
			}
			profile, err := session.EncodeProfile(fields)
			if err != nil {
				return err
			}

			if err := e.store.Write(cmd.Context(), tok, profile, rememberMe); err != nil {
				return fmt.Errorf("write session: %w", err)
			}
			fmt.Fprintf(opts.out, "token: %s\n", tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "Full name stored in the profile")
	cmd.Flags().StringVar(&username, "username", "", "Username stored in the profile")
	cmd.Flags().BoolVar(&rememberMe, "remember", false, "Set the remember-me flag")
	cmd.Flags().DurationVar(&backdate, "backdate", 0, "Issue the token this long ago")

	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the page-load check and render the profile",
		Long: `check runs the same sequence as loading a protected page. A failed check
clears the stored session and reports the redirect; the command then exits
non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			page := e.page()
			g, err := e.guard(opts, newLinePrompt(opts.in, opts.out, false), page)
			if err != nil {
				return err
			}
			defer g.Close()

			g.Dispatch(cmd.Context(), authguard.Event{Kind: authguard.EventPageLoad})

			fmt.Fprintf(opts.out, "state: %s\n", g.State())
			if g.State() != authguard.StateAuthenticated {
				if cause := g.LastFailure(); cause != nil {
					fmt.Fprintf(opts.out, "reason: %v\n", cause)
				}
				return errNotAuthenticated
			}
			fmt.Fprintf(opts.out, "name: %s\n", page.Text(e.cfg.Profile.NameElement))
			if lt := page.Text(e.cfg.Profile.LoginTimeElement); lt != "" {
				fmt.Fprintf(opts.out, "login time: %s\n", lt)
			}
			return nil
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Ask for confirmation, then clear the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			g, err := e.guard(opts, newLinePrompt(opts.in, opts.out, assumeYes), nil)
			if err != nil {
				return err
			}
			defer g.Close()

			if !g.RequestLogout(cmd.Context()) {
				fmt.Fprintln(opts.out, "logout cancelled")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Confirm without prompting")

	return cmd
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Validate a token, or the stored one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			tok := ""
			if len(args) == 1 {
				tok = args[0]
			} else {
				tok = e.store.Token(cmd.Context())
			}

			now := time.Now()
			info, err := e.validator().Inspect(tok, now)
			fmt.Fprintf(opts.out, "token: %q\n", tok)
			if err == nil || errors.Is(err, token.ErrExpired) {
				issued := time.UnixMilli(int64(info.IssuedAtMillis))
				fmt.Fprintf(opts.out, "issued: %s\n", issued.UTC().Format(time.RFC3339))
				fmt.Fprintf(opts.out, "age: %s\n", info.Age.Round(time.Second))
			}
			if err != nil {
				fmt.Fprintf(opts.out, "valid: false (%v)\n", err)
				return nil
			}
			fmt.Fprintln(opts.out, "valid: true")
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Hold a guarded page open until the session ends",
		Long: `watch loads a guarded page with cross-tab handling enabled and waits. It
returns when the session is cleared by another process, expires through
inactivity, or the timeout elapses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			e, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer e.close()
			e.cfg.CrossTab.Enabled = true

			g, err := e.guard(opts, newLinePrompt(opts.in, opts.out, false), e.page())
			if err != nil {
				return err
			}
			defer g.Close()

			g.Dispatch(ctx, authguard.Event{Kind: authguard.EventPageLoad})
			if g.State() != authguard.StateAuthenticated {
				return errNotAuthenticated
			}
			fmt.Fprintf(opts.out, "watching session (guard %s)\n", g.ID())

			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(opts.out, "session still active")
					return nil
				case <-ticker.C:
					if g.Terminated() {
						fmt.Fprintf(opts.out, "session ended: %v\n", g.LastFailure())
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop watching after this long (0 waits for a signal)")

	return cmd
}
