package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	MigrationsPath string

	// SystemToken authenticates the scheduler calling the job endpoints.
	SystemToken string

	// Identity service
	IdentityURL       string
	IdentityJWTSecret string
	IdentityTimeout   time.Duration

	// Core service (linked accounts, device tokens)
	CoreURL    string
	CoreAPIKey string

	// Transaction aggregation provider
	PlaidURL      string
	PlaidClientID string
	PlaidSecret   string
	PlaidPageSize int

	// Notification webhook
	NotifyURL string

	// Jobs
	JobBatchSize    int
	JobTimeBudget   time.Duration
	BudgetEndWindow time.Duration
}

var appConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "budgeting")
	v.SetDefault("db_password", "budgeting")
	v.SetDefault("db_name", "budgeting")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("migrations_path", "migrations")

	v.SetDefault("system_token", "")

	v.SetDefault("identity_url", "http://localhost:9000")
	v.SetDefault("identity_jwt_secret", "")
	v.SetDefault("identity_timeout", "10s")

	v.SetDefault("core_url", "http://localhost:9001")
	v.SetDefault("core_api_key", "")

	v.SetDefault("plaid_url", "https://sandbox.plaid.com")
	v.SetDefault("plaid_client_id", "")
	v.SetDefault("plaid_secret", "")
	v.SetDefault("plaid_page_size", 500)

	v.SetDefault("notify_url", "http://localhost:9002")

	v.SetDefault("job_batch_size", 10)
	v.SetDefault("job_time_budget", "0s")
	v.SetDefault("budget_end_window", "24h")
}

// Load reads configuration from the environment (after loading .env when
// present) and an optional YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	config := &Config{
		Env:  v.GetString("env"),
		Port: v.GetString("port"),

		DBHost:         v.GetString("db_host"),
		DBPort:         v.GetString("db_port"),
		DBUser:         v.GetString("db_user"),
		DBPassword:     v.GetString("db_password"),
		DBName:         v.GetString("db_name"),
		DBSSLMode:      v.GetString("db_sslmode"),
		MigrationsPath: v.GetString("migrations_path"),

		SystemToken: v.GetString("system_token"),

		IdentityURL:       v.GetString("identity_url"),
		IdentityJWTSecret: v.GetString("identity_jwt_secret"),
		IdentityTimeout:   v.GetDuration("identity_timeout"),

		CoreURL:    v.GetString("core_url"),
		CoreAPIKey: v.GetString("core_api_key"),

		PlaidURL:      v.GetString("plaid_url"),
		PlaidClientID: v.GetString("plaid_client_id"),
		PlaidSecret:   v.GetString("plaid_secret"),
		PlaidPageSize: v.GetInt("plaid_page_size"),

		NotifyURL: v.GetString("notify_url"),

		JobBatchSize:    v.GetInt("job_batch_size"),
		JobTimeBudget:   v.GetDuration("job_time_budget"),
		BudgetEndWindow: v.GetDuration("budget_end_window"),
	}

	if config.JobBatchSize <= 0 {
		log.Printf("Warning: invalid JOB_BATCH_SIZE %d, falling back to 10\n", config.JobBatchSize)
		config.JobBatchSize = 10
	}
	if config.PlaidPageSize <= 0 {
		config.PlaidPageSize = 500
	}
	if config.BudgetEndWindow <= 0 {
		config.BudgetEndWindow = 24 * time.Hour
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
