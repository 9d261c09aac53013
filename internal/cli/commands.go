package cli

import (
	"context"
	"fmt"

	"github.com/modelsync/modelsync/internal/journal"
	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/vcs"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newRefreshCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "refresh",
		GroupID: "sync",
		Short:   "Commit local changes, then fetch and merge the remote branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.Refresh(ctx, opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, true)
	return cmd
}

func newPublishCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "publish",
		GroupID: "sync",
		Short:   "Refresh, then push local commits to the remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.Publish(ctx, opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, true)
	return cmd
}

func newCloneCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "clone URL",
		GroupID: "repo",
		Short:   "Clone a remote and load its model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.Clone(ctx, args[0], opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, false)
	return cmd
}

func newCreateCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "create URL",
		GroupID: "repo",
		Short:   "Create a repository from the current model and push it to an empty remote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.CreateFromModel(ctx, args[0], opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, false)
	return cmd
}

func newResetCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "reset [REF]",
		GroupID: "repo",
		Short:   "Discard the working tree and reload the model from REF, HEAD by default",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref string
			if len(args) > 0 {
				ref = args[0]
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.Reset(ctx, ref)
				return report(cmd, res, err)
			})
		},
	}
}

func newStatusCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "repo",
		Short:   "Show the state of the local repository",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				state, err := s.orchestrator.Status(ctx)
				if err != nil {
					return err
				}
				return printState(cmd.OutOrStdout(), state)
			})
		},
	}
}

func newUserCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "user [NAME EMAIL]",
		GroupID: "repo",
		Short:   "Show or set the identity that authors commits",
		Args:    userArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				if len(args) == 0 {
					user, err := s.orchestrator.UserDetails(ctx)
					if err != nil {
						return err
					}
					return printUser(cmd.OutOrStdout(), user)
				}

				user := vcs.UserDetails{Name: args[0], Email: args[1]}
				if err := s.orchestrator.SetUserDetails(ctx, user); err != nil {
					return err
				}
				return printUser(cmd.OutOrStdout(), user)
			})
		},
	}
}

func userArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("expected both NAME and EMAIL, got %q", args[0])
	}
	return cobra.MaximumNArgs(2)(cmd, args)
}

func newBranchesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "branches",
		GroupID: "repo",
		Short:   "List local and remote branches",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				branches, err := s.orchestrator.Branches(ctx)
				if err != nil {
					return err
				}
				return printBranches(cmd.OutOrStdout(), branches)
			})
		},
	}
}

func newCheckoutCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "checkout BRANCH",
		GroupID: "repo",
		Short:   "Commit local changes and switch to another branch",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.CheckoutBranch(ctx, args[0], opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, true)
	return cmd
}

func newDeleteBranchCommand(root *rootOptions) *cobra.Command {
	run := &runOptions{}
	cmd := &cobra.Command{
		Use:     "delete-branch BRANCH",
		GroupID: "repo",
		Short:   "Delete a branch locally and on the remote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := run.options(cmd)
			if err != nil {
				return err
			}
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.DeleteBranch(ctx, args[0], opts)
				return report(cmd, res, err)
			})
		},
	}
	run.bind(cmd, false)
	return cmd
}

func newDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete",
		GroupID: "repo",
		Short:   "Delete the local repository",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				res, err := s.orchestrator.DeleteRepository(ctx)
				return report(cmd, res, err)
			})
		},
	}
}

func newLogCommand(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "log",
		GroupID: "repo",
		Short:   "Show the commit history of the current branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				commits, err := s.orchestrator.History(ctx, limit)
				if err != nil {
					return err
				}
				return printCommits(cmd.OutOrStdout(), commits)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of commits to show")
	return cmd
}

func newRunsCommand(root *rootOptions) *cobra.Command {
	var (
		limit     int
		operation string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withServices(cmd, func(ctx context.Context, s services) error {
				var (
					runs []journal.Run
					err  error
				)
				if operation != "" {
					runs, err = s.journal.ListByOperation(ctx, orchestrator.Operation(operation))
					if len(runs) > limit {
						runs = runs[:limit]
					}
				} else {
					runs, err = s.journal.List(ctx, limit)
				}
				if err != nil {
					return err
				}
				return printRuns(cmd.OutOrStdout(), runs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().StringVar(&operation, "operation", "", "only show runs of this operation")
	return cmd
}

// report prints the run, including the diagnostics of a failed run, and
// returns the run error.
func report(cmd *cobra.Command, res *orchestrator.Result, err error) error {
	if res != nil {
		if printErr := printResult(cmd.OutOrStdout(), res); printErr != nil {
			return multierr.Append(err, printErr)
		}
	}
	return err
}
