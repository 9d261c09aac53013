// Package cli exposes the pipelines as one-shot commands next to the HTTP
// server.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelsync/modelsync/internal"
	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type rootOptions struct {
	verbose bool
}

// NewRootCommand builds the modelsync command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "modelsync",
		Short:        "Keep a model in sync with a shared git repository",
		Version:      internal.Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "write application logs")

	cmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "repo", Title: "Repository:"},
	)

	cmd.AddCommand(
		newServeCommand(),
		newRefreshCommand(opts),
		newPublishCommand(opts),
		newCloneCommand(opts),
		newCreateCommand(opts),
		newResetCommand(opts),
		newStatusCommand(opts),
		newUserCommand(opts),
		newBranchesCommand(opts),
		newCheckoutCommand(opts),
		newDeleteBranchCommand(opts),
		newDeleteCommand(opts),
		newLogCommand(opts),
		newRunsCommand(opts),
	)

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			internal.Run()
		},
	}
}

type services struct {
	orchestrator *orchestrator.Service
	journal      *journal.Service
}

// withServices starts the application without listeners, runs fn and stops
// it again. SIGINT and SIGTERM cancel the context passed to fn.
func (o *rootOptions) withServices(cmd *cobra.Command, fn func(context.Context, services) error) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var s services
	options := []fx.Option{
		internal.Modules(),
		fx.NopLogger,
		fx.Populate(&s.orchestrator, &s.journal),
	}
	if !o.verbose {
		options = append(options, fx.Decorate(func() *zap.Logger { return zap.NewNop() }))
	}

	app := fx.New(options...)
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := app.Stop(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "failed to stop:", err)
		}
	}()

	return fn(ctx, s)
}

// runOptions are the flags shared by the pipeline commands.
type runOptions struct {
	message     string
	strategy    string
	save        bool
	interactive bool
	credentials vcs.Credentials
}

func (r *runOptions) bind(cmd *cobra.Command, message bool) {
	flags := cmd.Flags()
	if message {
		flags.StringVarP(&r.message, "message", "m", "", "message for the commit of local changes")
	}
	flags.StringVar(&r.strategy, "strategy", "", "conflict strategy when not interactive: cancel, ours or theirs")
	flags.BoolVar(&r.save, "save", false, "save unsaved model changes without asking")
	flags.BoolVarP(&r.interactive, "interactive", "i", false, "ask before saving and on conflicts")
	flags.StringVar(&r.credentials.Username, "username", "", "username for the remote")
	flags.StringVar(&r.credentials.Password, "password", "", "password or token for the remote")
	flags.StringVar(&r.credentials.PrivateKeyPath, "ssh-key", "", "private key for SSH remotes")
	flags.StringVar(&r.credentials.Passphrase, "passphrase", "", "passphrase of the private key")
}

func (r *runOptions) options(cmd *cobra.Command) (orchestrator.Options, error) {
	opts := orchestrator.Options{Message: r.message}

	if r.credentials != (vcs.Credentials{}) {
		creds := r.credentials
		opts.Credentials = &creds
	}

	switch {
	case r.interactive:
		opts.Operator = NewPromptOperator(cmd.InOrStdin(), cmd.OutOrStdout())
	case r.strategy != "" || r.save:
		strategy, err := orchestrator.ParseStrategy(r.strategy)
		if err != nil {
			return opts, err
		}
		opts.Operator = orchestrator.PolicyOperator{SaveDirty: r.save, Strategy: strategy}
	}

	return opts, nil
}
