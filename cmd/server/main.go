package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/lobbychat/internal/app"
	"github.com/vovakirdan/lobbychat/internal/auth"
	"github.com/vovakirdan/lobbychat/internal/config"
	"github.com/vovakirdan/lobbychat/internal/log"
	"github.com/vovakirdan/lobbychat/internal/store/sqlite"
)

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "lobbychat",
		Short:         "Lobby chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config.yaml")
	pf.StringVar(&flags.overrides.Addr, "addr", "", "HTTP listen address")
	pf.DurationVar(&flags.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	pf.DurationVar(&flags.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	pf.StringVar(&flags.overrides.DatabasePath, "db", "", "SQLite database path")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.overrides.LogFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the chat server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(_ *cobra.Command, _ []string) error {
				return runMigrate(flags)
			},
		},
		newUsersCmd(flags),
	)

	return root
}

func newUsersCmd(flags *rootFlags) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage registered users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			all, err := st.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			logger.Debug().Int("count", len(all)).Msg("listing users")

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Username", "Registered"})
			table.SetAutoFormatHeaders(false)
			table.SetBorder(false)
			for _, u := range all {
				table.Append([]string{
					strconv.FormatInt(u.ID, 10),
					u.Username,
					u.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			table.Render()
			return nil
		},
	}

	var password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := auth.NewService(st, jwtConfig(cfg), nil)
			if _, err := svc.Register(cmd.Context(), args[0], password); err != nil {
				return fmt.Errorf("add user %s: %w", args[0], err)
			}
			logger.Info().Str("user", args[0]).Msg("user registered")
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "password for the new user")
	_ = add.MarkFlagRequired("password")

	users.AddCommand(list, add)
	return users
}

func loadConfig(flags *rootFlags) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info", "console")

	cfg, path, err := config.Load(bootstrap, flags.configPath)
	if err != nil {
		return cfg, bootstrap, fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(flags.overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, bootstrap, err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}

func jwtConfig(cfg config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
}

func runServe(parent context.Context, flags *rootFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting lobbychat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runMigrate(flags *rootFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := sqlite.Version(st.DB())
	if err != nil {
		return err
	}
	logger.Info().Int64("version", version).Str("db_path", cfg.DatabasePath).Msg("database migrated")
	return nil
}
