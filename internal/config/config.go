// Package config resolves runtime settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/store"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "KAKOMON"

// Keys understood by Load. Flags bound to viper use the same names.
const (
	KeyConfig   = "config"
	KeyDB       = "db"
	KeyContent  = "content"
	KeyLogLevel = "log_level"
	KeyUser     = "user"

	// KeyBudgets lists the time budget in seconds for difficulties 1..5,
	// e.g. "60 90 120 180 240" in KAKOMON_BUDGETS or a list in the file.
	KeyBudgets        = "budgets"
	KeyBudgetFallback = "budget_fallback"
)

// Config holds resolved settings.
type Config struct {
	DBPath     string
	ContentDir string
	LogLevel   slog.Level
	UserID     string
	Budgets    budget.Table
}

// Default returns the settings used when nothing overrides them. DBPath is
// left empty and resolved by Load.
func Default() Config {
	return Config{
		ContentDir: "content",
		LogLevel:   slog.LevelWarn,
		UserID:     "local",
		Budgets:    budget.Default(),
	}
}

// NewViper returns a viper instance wired to the KAKOMON_ environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyContent, d.ContentDir)
	v.SetDefault(KeyLogLevel, d.LogLevel.String())
	v.SetDefault(KeyUser, d.UserID)
	v.SetDefault(KeyBudgetFallback, budget.DefaultFallbackSeconds)
	return v
}

// Load resolves a Config from v. A config file named by the "config" key is
// read first; flags and environment still take precedence over it.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Default()
	cfg.ContentDir = v.GetString(KeyContent)
	cfg.UserID = v.GetString(KeyUser)

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("parse log level: %w", err)
	}

	cfg.DBPath = v.GetString(KeyDB)
	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}

	budgets, err := loadBudgets(v, cfg.Budgets)
	if err != nil {
		return Config{}, err
	}
	cfg.Budgets = budgets

	if cfg.UserID == "" {
		return Config{}, fmt.Errorf("user id must not be empty")
	}
	return cfg, nil
}

// loadBudgets overrides the per-level seconds and the fallback of def with
// whatever v carries. Entries may be separated by spaces or commas.
func loadBudgets(v *viper.Viper, def budget.Table) (budget.Table, error) {
	levels := def.Levels()
	if raw := v.GetStringSlice(KeyBudgets); len(raw) > 0 {
		levels = levels[:0]
		for _, item := range raw {
			for _, field := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
				secs, err := strconv.Atoi(field)
				if err != nil {
					return budget.Table{}, fmt.Errorf("parse %s: %w", KeyBudgets, err)
				}
				levels = append(levels, secs)
			}
		}
	}
	t, err := budget.New(levels, v.GetInt(KeyBudgetFallback))
	if err != nil {
		return budget.Table{}, fmt.Errorf("%s: %w", KeyBudgets, err)
	}
	return t, nil
}
