package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Console ConsoleConfig `mapstructure:"console"`
}

type AppConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Dir  string `mapstructure:"dir"` // directory of static files served to the browser
}

type DBConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

type ConsoleConfig struct {
	Prompt string `mapstructure:"prompt"`
}

// Addr returns the host:port pair the HTTP server binds to.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// URL returns the full address shown to the user by the console.
func (a AppConfig) URL() string {
	return "http://" + a.Addr()
}

// Path returns the full path of the stock database file.
func (d DBConfig) Path() string {
	return filepath.Join(d.Dir, d.File)
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Load .env file into System Environment (if it exists)
	// This ensures variables like APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	// 2. Set Defaults (mirror the reference deployment)
	v.SetDefault("app.host", "localhost")
	v.SetDefault("app.port", 3000)
	v.SetDefault("app.dir", "./app")

	v.SetDefault("db.dir", "./stockDB")
	v.SetDefault("db.file", "stocks.db")

	v.SetDefault("console.prompt", "press h to see commands...")

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	// This is crucial for Viper to map flat Env Vars (APP_PORT) to nested structs (App.Port)
	bindEnv(v, "app.host", "app.port", "app.dir")
	bindEnv(v, "db.dir", "db.file")
	bindEnv(v, "console.prompt")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// 6. Basic Validation
	if cfg.DB.File == "" {
		return nil, fmt.Errorf("db file name cannot be empty")
	}
	if cfg.App.Port <= 0 {
		return nil, fmt.Errorf("app port must be positive")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
