package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/model"
)

// Version is the release version, overridable with -ldflags
var Version = "1.0.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string
	mockLLM  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "watchdog",
	Short: "Watchdog - risk-scoring safety gateway for LLM answers",
	Long: `Watchdog sits between users and a large language model.

Every answer is scored for hallucination risk (unverified claims,
contradictions, overconfidence, dangerous content) and then allowed,
shown with a warning, or blocked according to per-domain thresholds.

When anything in the pipeline fails, the answer is blocked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and risk engine details for Watchdog.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := analyze.NewDefault(nil).Info()
		fmt.Printf("watchdog v%s\n", Version)
		fmt.Printf("  risk engine:   v%s\n", info.Version)
		fmt.Printf("  rules version: %d\n", info.RulesVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.watchdog/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&mockLLM, "mock", false, "answer with canned mock responses instead of calling an LLM")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and environment variables
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".watchdog"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match WATCHDOG_*
	viper.SetEnvPrefix("WATCHDOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// envKeys are the config keys settable through WATCHDOG_* variables. Some also
// accept a short legacy name.
var envKeys = map[string][]string{
	"server.addr":            nil,
	"server.cors_origins":    {"CORS_ORIGINS"},
	"llm.provider":           {"LLM_PROVIDER"},
	"llm.mock":               {"MOCK_LLM"},
	"llm.model":              {"LLM_MODEL"},
	"llm.api_key":            nil,
	"llm.base_url":           nil,
	"llm.max_retries":        {"LLM_MAX_RETRIES"},
	"llm.fallback_to_mock":   {"FALLBACK_TO_MOCK"},
	"llm.http_proxy":         nil,
	"llm.https_proxy":        nil,
	"policy.path":            nil,
	"policy.watch":           nil,
	"rules.path":             nil,
	"evidence.dir":           nil,
	"evidence.urls":          nil,
	"evidence.top_k":         nil,
	"audit.path":             {"AUDIT_LOG_PATH"},
	"audit.safety_mode":      nil,
	"cache.enabled":          nil,
	"cache.disk_dir":         nil,
	"concurrency.workers":    nil,
	"logging.level":          {"LOG_LEVEL"},
	"logging.format":         nil,
	"telemetry.tracing":      nil,
	"telemetry.service_name": nil,
}

func bindEnv() {
	for key, legacy := range envKeys {
		names := append([]string{"WATCHDOG_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, legacy...)
		_ = viper.BindEnv(append([]string{key}, names...)...)
	}
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// LLM_TIMEOUT is in seconds; WATCHDOG_LLM_TIMEOUT takes a duration.
	if v := os.Getenv("WATCHDOG_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WATCHDOG_LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = d
	} else if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = time.Duration(secs * float64(time.Second))
	}

	// Flags win over everything else, but only when given.
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if rootCmd.PersistentFlags().Changed("mock") {
		cfg.LLM.Mock = mockLLM
	}

	return cfg, nil
}
