// Package config loads settings from file, environment and CLI flags, in
// ascending precedence.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AnalysisConfig tunes batching and the orchestrator.
type AnalysisConfig struct {
	MaxBatchSize      int `mapstructure:"max_batch_size"`
	MaxTokensPerBatch int `mapstructure:"max_tokens_per_batch"`
	MaxConcurrency    int `mapstructure:"max_concurrency"`
	RelatedDepth      int `mapstructure:"related_depth"`
}

// RemoteConfig addresses the remote analyzer backend.
type RemoteConfig struct {
	BaseURL string  `mapstructure:"base_url"`
	Model   string  `mapstructure:"model"`
	APIKey  string  `mapstructure:"api_key"`
	Timeout int     `mapstructure:"timeout_seconds"`
	Temp    float32 `mapstructure:"temperature"`
}

// Config is the application configuration.
type Config struct {
	LogLevel         string         `mapstructure:"log_level"`
	CacheDir         string         `mapstructure:"cache_dir"`
	Signatures       string         `mapstructure:"signatures"`
	Exclusions       []string       `mapstructure:"exclusions"`
	MaxFileSizeBytes int64          `mapstructure:"max_file_size_bytes"`
	DebounceMs       int            `mapstructure:"debounce_ms"`
	Analysis         AnalysisConfig `mapstructure:"analysis"`
	Remote           RemoteConfig   `mapstructure:"remote"`
}

// DefaultConfig carries the built-in defaults.
var DefaultConfig = Config{
	LogLevel:         "info",
	CacheDir:         "",
	MaxFileSizeBytes: 1024 * 1024,
	DebounceMs:       500,
	Analysis: AnalysisConfig{
		MaxBatchSize:      8,
		MaxTokensPerBatch: 60000,
		MaxConcurrency:    3,
		RelatedDepth:      2,
	},
	Remote: RemoteConfig{
		Model:   "gpt-4o-mini",
		Timeout: 120,
	},
}

var cfgFile string

// InitFlags registers the persistent flags the configuration binds to.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a codag configuration file")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "directory for the persistent graph cache (empty for in-memory)")
	rootCmd.PersistentFlags().String("signatures", "", "path to a YAML signature overlay with extra providers or frameworks")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "glob patterns excluded from scanning")
	rootCmd.PersistentFlags().Int("max_batch_size", DefaultConfig.Analysis.MaxBatchSize, "maximum files per analysis batch")
	rootCmd.PersistentFlags().Int("max_concurrency", DefaultConfig.Analysis.MaxConcurrency, "maximum concurrent remote analysis calls")
	rootCmd.PersistentFlags().String("model", DefaultConfig.Remote.Model, "remote analyzer model")
	rootCmd.PersistentFlags().String("api_key", "", "remote analyzer API key")
	rootCmd.PersistentFlags().String("base_url", "", "remote analyzer base URL override")
}

// Load resolves the configuration: defaults, then a codag.yaml in cwd (or
// the file named by --config), then environment variables, then flags.
func Load(rootCmd *cobra.Command, cwd string) (*Config, error) {
	setDefaults()
	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %v: %w", cfgFile, err)
		}
	} else {
		viper.SetConfigName("codag")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(cwd)
		// A missing config file just means defaults.
		_ = viper.ReadInConfig()
	}

	bindFlags(rootCmd)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("cache_dir", DefaultConfig.CacheDir)
	viper.SetDefault("max_file_size_bytes", DefaultConfig.MaxFileSizeBytes)
	viper.SetDefault("debounce_ms", DefaultConfig.DebounceMs)
	viper.SetDefault("analysis.max_batch_size", DefaultConfig.Analysis.MaxBatchSize)
	viper.SetDefault("analysis.max_tokens_per_batch", DefaultConfig.Analysis.MaxTokensPerBatch)
	viper.SetDefault("analysis.max_concurrency", DefaultConfig.Analysis.MaxConcurrency)
	viper.SetDefault("analysis.related_depth", DefaultConfig.Analysis.RelatedDepth)
	viper.SetDefault("remote.model", DefaultConfig.Remote.Model)
	viper.SetDefault("remote.timeout_seconds", DefaultConfig.Remote.Timeout)
}

func bindEnv() {
	_ = viper.BindEnv("log_level", "CODAG_LOG_LEVEL")
	_ = viper.BindEnv("cache_dir", "CODAG_CACHE_DIR")
	_ = viper.BindEnv("remote.api_key", "CODAG_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("remote.base_url", "CODAG_BASE_URL")
	_ = viper.BindEnv("remote.model", "CODAG_MODEL")
}

func bindFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = viper.BindPFlag("cache_dir", flags.Lookup("cache_dir"))
	_ = viper.BindPFlag("signatures", flags.Lookup("signatures"))
	_ = viper.BindPFlag("exclusions", flags.Lookup("exclude"))
	_ = viper.BindPFlag("analysis.max_batch_size", flags.Lookup("max_batch_size"))
	_ = viper.BindPFlag("analysis.max_concurrency", flags.Lookup("max_concurrency"))
	_ = viper.BindPFlag("remote.model", flags.Lookup("model"))
	_ = viper.BindPFlag("remote.api_key", flags.Lookup("api_key"))
	_ = viper.BindPFlag("remote.base_url", flags.Lookup("base_url"))
}
