package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"apsiteimport/internal/db"
	"apsiteimport/internal/mist"
)

// Config is the full application configuration.
type Config struct {
	Mist      mist.Config
	SheetName string
	Results   ResultsConfig
	Workers   int

	// Database is nil when no run-history store is configured.
	Database *db.Config
}

type ResultsConfig struct {
	Directory string
}

// Load reads config.yaml from the given directory, with environment
// overrides (MIST_API_TOKEN, MIST_ORG_ID, DATABASE_HOST, ...). The remote
// credentials are required; everything else has a default.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("results.directory", "results")
	v.SetDefault("workers", 4)
	v.SetDefault("mist.timeout_seconds", 60)

	v.BindEnv("mist.api_token")
	v.BindEnv("mist.org_id")
	v.BindEnv("mist.base_url")
	v.BindEnv("mist.xlsx_sheet_name")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; env vars may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Mist: mist.Config{
			BaseURL:  strings.TrimRight(strings.TrimSpace(v.GetString("mist.base_url")), "/"),
			OrgID:    strings.TrimSpace(v.GetString("mist.org_id")),
			APIToken: strings.TrimSpace(v.GetString("mist.api_token")),
			Timeout:  time.Duration(v.GetInt("mist.timeout_seconds")) * time.Second,
		},
		SheetName: strings.TrimSpace(v.GetString("mist.xlsx_sheet_name")),
		Results: ResultsConfig{
			Directory: v.GetString("results.directory"),
		},
		Workers: v.GetInt("workers"),
	}

	var missing []string
	if cfg.Mist.APIToken == "" {
		missing = append(missing, "mist.api_token")
	}
	if cfg.Mist.OrgID == "" {
		missing = append(missing, "mist.org_id")
	}
	if cfg.Mist.BaseURL == "" {
		missing = append(missing, "mist.base_url")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required config values: %s", strings.Join(missing, ", "))
	}

	if v.IsSet("database.host") {
		database := db.DefaultConfig()
		database.Host = v.GetString("database.host")
		if v.IsSet("database.port") {
			database.Port = v.GetInt("database.port")
		}
		if v.IsSet("database.user") {
			database.User = v.GetString("database.user")
		}
		if v.IsSet("database.password") {
			database.Password = v.GetString("database.password")
		}
		if v.IsSet("database.dbname") {
			database.DBName = v.GetString("database.dbname")
		}
		if v.IsSet("database.sslmode") {
			database.SSLMode = v.GetString("database.sslmode")
		}
		cfg.Database = &database
	}

	return cfg, nil
}
