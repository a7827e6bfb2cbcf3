package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaxflow/core/internal/adapters/repository"
	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/database"
	"github.com/relaxflow/core/internal/infrastructure/kv"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/infrastructure/server"
	"github.com/relaxflow/core/internal/ports"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the RelaxFlow API server",
		Long:  "Start the RelaxFlow API server with all configured routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply pending migrations before serving (postgres driver only)")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the postgres storage schema (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				applied, err := db.MigrateUp()
				if err != nil {
					return err
				}
				if !applied {
					fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migration up completed successfully")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				applied, err := db.MigrateDown()
				if err != nil {
					return err
				}
				if !applied {
					fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migration down completed successfully")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.DB) error {
				status, err := db.MigrationVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", status.Version)
				fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", status.Dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create dashboard users and prepare administrator credentials",
	}

	var name, email, role, avatar string
	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user record",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ports.CreateUserRequest{
				Name:   name,
				Email:  email,
				Role:   entities.UserRole(role),
				Avatar: avatar,
			}
			user, err := createUser(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User created successfully:\n")
			fmt.Fprintf(out, "  ID: %s\n", user.ID)
			fmt.Fprintf(out, "  Name: %s\n", user.Name)
			fmt.Fprintf(out, "  Email: %s\n", user.Email)
			fmt.Fprintf(out, "  Role: %s\n", user.Role)
			return nil
		},
	}

	createUserCmd.Flags().StringVar(&name, "name", "", "User display name (required)")
	createUserCmd.Flags().StringVar(&email, "email", "", "User email (required)")
	createUserCmd.Flags().StringVar(&role, "role", string(entities.UserRoleUser), "User role (Admin, User)")
	createUserCmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")

	hashCmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	userCmd.AddCommand(createUserCmd, hashCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print RelaxFlow version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RelaxFlow Core %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", Commit)
		},
	}
}

func runServer(autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	backends, closeBackends, err := openBackends(cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeBackends()

	if autoMigrate && backends.DB != nil {
		applied, err := backends.DB.MigrateUp()
		if err != nil {
			return err
		}
		appLogger.Infow("Migrations checked", "applied", applied)
	}

	srv, err := server.New(cfg, backends, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Infow("Starting RelaxFlow API server",
		"address", cfg.Server.GetAddr(),
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.GetAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openBackends connects to whatever the configured storage driver needs.
func openBackends(cfg *config.Config, log *logger.Logger) (repository.Backends, func(), error) {
	var backends repository.Backends

	switch cfg.Storage.Driver {
	case repository.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return backends, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		backends.DB = db
		return backends, func() { db.Close() }, nil
	case repository.DriverRedis:
		rdb, err := kv.New(context.Background(), cfg.Redis, log)
		if err != nil {
			return backends, nil, err
		}
		backends.Redis = rdb
		return backends, func() { rdb.Close() }, nil
	default:
		return backends, func() {}, nil
	}
}

func withDatabase(fn func(db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func createUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	backends, closeBackends, err := openBackends(cfg, logger.NewNop())
	if err != nil {
		return nil, err
	}
	defer closeBackends()

	store, err := repository.New(cfg.Storage, backends, nil)
	if err != nil {
		return nil, err
	}
	ids, err := repository.NewIDGenerator(cfg.Storage.IDStrategy)
	if err != nil {
		return nil, err
	}

	userService := services.NewUserService(store.Users, services.Dependencies{IDs: ids})
	return userService.Create(ctx, req)
}
