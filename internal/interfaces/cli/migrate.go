package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/RateCraft/internal/bootstrap"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// NewMigrateCmd manages the PostgreSQL schema and reference data.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the rating database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, _ []string, m *postgres.Migrator, _ *postgres.Connection) error {
				if err := m.Up(); err != nil {
					return err
				}
				PrintSuccess(cmd, "migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default one step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, args []string, m *postgres.Migrator, _ *postgres.Connection) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return errors.Newf(errors.CodeInvalidParam, "steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				if err := m.Down(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, _ []string, m *postgres.Migrator, _ *postgres.Connection) error {
				version, dirty, err := m.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd, migrationStatus{Version: version, Dirty: dirty})
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, args []string, m *postgres.Migrator, _ *postgres.Connection) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return errors.Newf(errors.CodeInvalidParam, "version must be an integer, got %q", args[0])
				}
				if err := m.Force(v); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", v))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Apply migrations and load the reference rate catalog",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, _ []string, m *postgres.Migrator, conn *postgres.Connection) error {
				if err := m.Up(); err != nil {
					return err
				}
				cliCtx, _ := GetCLIContext(cmd)
				cat := bootstrap.DefaultCatalog()
				repo := repositories.NewRatingRepository(conn, cliCtx.Logger)
				if err := repo.Seed(cmd.Context(), cat); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("seeded %d rate tables, %d rules, %d territories",
					len(cat.RateTables), len(cat.Rules), len(cat.Territories)))
				return nil
			}),
		},
	)
	return cmd
}

type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

type migrateFunc func(cmd *cobra.Command, args []string, m *postgres.Migrator, conn *postgres.Connection) error

// openDatabase is swapped in tests.
var openDatabase = func(ctx context.Context, cliCtx *CLIContext) (*postgres.Connection, error) {
	return postgres.NewConnection(ctx, cliCtx.Config.Database, cliCtx.Logger)
}

func withMigrator(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		if cliCtx.Config.Database.Driver != "postgres" {
			return errors.Newf(errors.CodeInvalidParam, "migrate requires database.driver=postgres, got %q", cliCtx.Config.Database.Driver)
		}
		ctx, cancel := commandContext(cmd, cliCtx)
		defer cancel()
		cmd.SetContext(ctx)

		conn, err := openDatabase(ctx, cliCtx)
		if err != nil {
			return err
		}
		defer conn.Close()

		m, err := postgres.NewMigrator(conn.DB(), cliCtx.Logger)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(cmd, args, m, conn)
	}
}

//Personal.AI order the ending
