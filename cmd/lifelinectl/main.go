// Command lifelinectl runs operator tasks against the Postgres directory:
// schema migration and role or status changes that must not depend on an
// existing admin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"lifeline/internal/platform/postgres"
	userModels "lifeline/internal/users/models"
	userService "lifeline/internal/users/service"
	userStore "lifeline/internal/users/store"
	"lifeline/pkg/domain"
)

type cliEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout, openPool).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type poolOpener func(ctx context.Context, url string) (*pgxpool.Pool, error)

func openPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	return postgres.Open(ctx, url)
}

func newRootCmd(out io.Writer, open poolOpener) *cobra.Command {
	var databaseURL string
	root := &cobra.Command{
		Use:           "lifelinectl",
		Short:         "Operator tooling for the Life Line backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL != "" {
				return nil
			}
			var e cliEnv
			if err := env.Parse(&e); err != nil {
				return err
			}
			databaseURL = e.DatabaseURL
			if databaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default $DATABASE_URL)")

	withPool := func(cmd *cobra.Command, fn func(*pgxpool.Pool) error) error {
		pool, err := open(cmd.Context(), databaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(pool)
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd, func(pool *pgxpool.Pool) error {
				if err := postgres.Migrate(cmd.Context(), pool); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	var role string
	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Set a user's role, registering the user if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := domain.ParseEmail(args[0])
			if err != nil {
				return err
			}
			r, err := userModels.ParseRole(role)
			if err != nil {
				return err
			}
			return withPool(cmd, func(pool *pgxpool.Pool) error {
				u, err := userService.NewOperator(userStore.NewPostgres(pool)).Promote(cmd.Context(), email, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
				return nil
			})
		},
	}
	promote.Flags().StringVar(&role, "role", string(userModels.RoleAdmin), "role to assign: donor, volunteer or admin")
	root.AddCommand(promote)

	var unblock bool
	block := &cobra.Command{
		Use:   "block <email>",
		Short: "Block a user, or reactivate with --unblock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := domain.ParseEmail(args[0])
			if err != nil {
				return err
			}
			status := userModels.StatusBlocked
			if unblock {
				status = userModels.StatusActive
			}
			return withPool(cmd, func(pool *pgxpool.Pool) error {
				u, err := userService.NewOperator(userStore.NewPostgres(pool)).SetStatus(cmd.Context(), email, status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Status)
				return nil
			})
		},
	}
	block.Flags().BoolVar(&unblock, "unblock", false, "reactivate instead of blocking")
	root.AddCommand(block)

	return root
}
