package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/kakomon/internal/catalog"
	"github.com/abhisek/kakomon/internal/config"
	"github.com/abhisek/kakomon/internal/practice"
	"github.com/abhisek/kakomon/internal/store"
)

var (
	v      = config.NewViper()
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "kakomon",
	Short:         "Adaptive practice for fill-in-the-blank exam questions",
	Long:          "Kakomon grades answers to past exam questions, tracks mastery per question pattern and builds the next practice set.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command and prints any error with its code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if code := practice.ErrorCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyConfig, "", "Path to a config file (yaml, toml or json)")
	flags.String(config.KeyDB, "", "Path to SQLite database file (overrides KAKOMON_DB env var)")
	flags.String(config.KeyContent, config.Default().ContentDir, "Directory holding catalog.json and answers.json")
	flags.String("log-level", config.Default().LogLevel.String(), "Log level: debug, info, warn or error")
	flags.String(config.KeyUser, config.Default().UserID, "Learner id")
	flags.Bool("json", false, "Print results as JSON")

	bind(config.KeyConfig, config.KeyConfig)
	bind(config.KeyDB, config.KeyDB)
	bind(config.KeyContent, config.KeyContent)
	bind(config.KeyLogLevel, "log-level")
	bind(config.KeyUser, config.KeyUser)

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

// bind makes viper read key from the named persistent flag.
func bind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// openService opens the store and catalog and returns a practice service
// with a cleanup func.
func openService() (*practice.Service, func(), error) {
	if err := store.EnsureDir(cfg.DBPath); err != nil {
		return nil, nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(cfg.DBPath, store.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	bank, err := catalog.Load(cfg.ContentDir)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Debug("catalog loaded", "dir", cfg.ContentDir, "questions", bank.Len())

	svc := practice.New(practice.Options{
		Catalog:  bank,
		Attempts: st.Attempts(),
		Mastery:  st.Mastery(),
		Sessions: st.Sessions(),
		Budgets:  &cfg.Budgets,
		Logger:   logger,
	})
	return svc, func() { st.Close() }, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("json")
	return on
}
