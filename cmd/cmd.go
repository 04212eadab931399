package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "leave-management",
	Short: "Leave Management",
	Long:  `Leave entitlement, ledger and approval workflow service.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads config.yml from path. Values from .env and the process
// environment (LEAVE_ prefix, dots as underscores) override the file.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("LEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	logger.Setup(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	return &cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(accrueCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(eventCmd)
}
