package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskmaster/todo/internal/adapters/repository"
	"github.com/taskmaster/todo/internal/adapters/repository/memory"
	"github.com/taskmaster/todo/internal/application/services"
	"github.com/taskmaster/todo/internal/infrastructure/config"
	"github.com/taskmaster/todo/internal/infrastructure/database"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/infrastructure/server"
)

// Version is overridden at build time with -ldflags "-X ...commands.Version=..."
var Version = "dev"

var errNeedsPostgres = errors.New("this command needs database.driver=postgres")

// NewRootCommand assembles the todo CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Todo API server",
		Long:          "Todo is a multi-user to-do list backend with bearer-token authentication.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", os.Getenv("TODO_CONFIG"), "Path to a config file (env TODO_CONFIG)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewUserCommand())
	rootCmd.AddCommand(NewTodoCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// runtime is what every command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	logger  *logger.Logger
	storage server.Storage
	db      *database.DB
}

// bootstrap loads configuration, applies adjust in order and opens storage.
func bootstrap(cmd *cobra.Command, adjust ...func(*config.Config)) (*runtime, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	for _, fn := range adjust {
		fn(cfg)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: appLogger}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		rt.storage = server.Storage{Users: store.Users(), Tasks: store.Tasks(), Tx: store, Health: store}
		appLogger.Warnw("Using in-memory storage; data is lost on exit")
	default:
		db, err := database.New(cfg.Database)
		if err != nil {
			appLogger.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.db = db
		rt.storage = server.Storage{
			Users:  repository.NewUserRepository(db),
			Tasks:  repository.NewTaskRepository(db),
			Tx:     db,
			Health: db,
		}
	}

	return rt, nil
}

func (rt *runtime) userService() *services.UserService {
	return services.NewUserService(rt.storage.Users, rt.storage.Tasks, rt.storage.Tx, rt.logger)
}

func (rt *runtime) taskService() *services.TaskService {
	return services.NewTaskService(rt.storage.Tasks, rt.storage.Tx, rt.logger)
}

func (rt *runtime) migrator() (*database.Migrator, error) {
	if rt.db == nil {
		return nil, errNeedsPostgres
	}
	return database.NewMigrator(rt.db)
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warnw("Failed to close database", "error", err)
		}
	}
	_ = rt.logger.Close()
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the API server with all configured routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			withMigrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd, withMigrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServer(cmd *cobra.Command, withMigrate bool) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if withMigrate && rt.db != nil {
		m, err := rt.migrator()
		if err != nil {
			return err
		}
		applied, err := m.Up()
		if err != nil {
			return err
		}
		rt.logger.Infow("Migrations checked", "applied", applied)
	}

	srv, err := server.New(rt.cfg, rt.storage, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := rt.migrator()
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
			return nil
		},
	})

	return migrateCmd
}

func runMigration(cmd *cobra.Command, direction string) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := rt.migrator()
	if err != nil {
		return err
	}

	var changed bool
	if direction == "down" {
		changed, err = m.Down()
	} else {
		changed, err = m.Up()
	}
	if err != nil {
		return err
	}

	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	}
	return nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo %s\n", Version)
		},
	}
}
