// Package config loads application settings through Viper, from environment
// variables or an optional local .env file. AWS credentials and region stay
// with the SDK's own loader in internal/aws.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the account factory services.
type Config struct {
	AccountTable     string `mapstructure:"ACCOUNT_TABLE"`
	StatusIndex      string `mapstructure:"ACCOUNT_STATUS_INDEX"`
	AccountQueueURL  string `mapstructure:"ACCOUNT_QUEUE_URL"`
	WorkerRoleARN    string `mapstructure:"WORKER_ROLE_ARN"`
	MetricsNamespace string `mapstructure:"METRICS_NAMESPACE"`
}

// Load reads configuration from the environment or a .env file.
func Load() (Config, error) {
	var cfg Config

	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"ACCOUNT_TABLE",
		"ACCOUNT_STATUS_INDEX",
		"ACCOUNT_QUEUE_URL",
		"WORKER_ROLE_ARN",
		"METRICS_NAMESPACE",
	} {
		_ = viper.BindEnv(key)
	}

	viper.SetDefault("ACCOUNT_STATUS_INDEX", "status-index")
	viper.SetDefault("METRICS_NAMESPACE", "AccountFactory")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.AccountTable == "" {
		return cfg, fmt.Errorf("ACCOUNT_TABLE is required")
	}

	return cfg, nil
}
