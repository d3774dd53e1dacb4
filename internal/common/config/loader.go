package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL = "https://www.fueleconomy.gov/ws/rest"
	DefaultYear    = 2018
	DefaultMake    = "Tesla"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it and
// lets environment variables override any key (fueleconomy.base_url ->
// FUELECONOMY_BASE_URL). A missing base file is not an error: defaults apply.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindDefaults(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads exactly one config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindDefaults registers every key viper must know about for AutomaticEnv to
// reach it during Unmarshal, even when no config file mentions the key.
func bindDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fuel-economy")
	v.SetDefault("fueleconomy.base_url", DefaultBaseURL)
	v.SetDefault("fueleconomy.timeout", 30000)
	v.SetDefault("fueleconomy.max_concurrency", 0)
	v.SetDefault("query.year", DefaultYear)
	v.SetDefault("query.make", DefaultMake)
	v.SetDefault("render.sink", SinkTable)
	v.SetDefault("render.table", "variant_ranges")
	v.SetDefault("render.index", "variant-ranges")
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.elasticsearch.addresses", []string{})
	v.SetDefault("metrics.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.FuelEconomy.BaseURL == "" {
		cfg.FuelEconomy.BaseURL = DefaultBaseURL
	}
	cfg.FuelEconomy.BaseURL = strings.TrimRight(cfg.FuelEconomy.BaseURL, "/")
	if cfg.FuelEconomy.Timeout == 0 {
		cfg.FuelEconomy.Timeout = 30000
	}

	if cfg.Query.Year == 0 {
		cfg.Query.Year = DefaultYear
	}
	if cfg.Query.Make == "" {
		cfg.Query.Make = DefaultMake
	}

	if cfg.Render.Sink == "" {
		cfg.Render.Sink = SinkTable
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = cfg.FuelEconomy.Timeout
		}
		cfg.Workers[key] = worker
	}
}

// Validate checks cfg as it stands, including any overrides applied after it
// was loaded.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(cfg *Config) error {
	if cfg.FuelEconomy.MaxConcurrency < 0 {
		return fmt.Errorf("fueleconomy.max_concurrency must be >= 0")
	}
	if cfg.Query.Year < 1984 {
		return fmt.Errorf("query.year must be 1984 or later, got %d", cfg.Query.Year)
	}

	switch cfg.Render.Sink {
	case SinkTable, SinkJSON:
	case SinkPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for the postgres sink")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required for the postgres sink")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required for the postgres sink")
		}
	case SinkElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required for the elasticsearch sink")
		}
	default:
		return fmt.Errorf("render.sink %q is not one of table, json, postgres, elasticsearch", cfg.Render.Sink)
	}

	for name, w := range cfg.Workers {
		if w.Enabled && cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when worker %s is enabled", name)
		}
	}

	return nil
}
