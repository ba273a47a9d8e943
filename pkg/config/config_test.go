package config_test

import (
	"path/filepath"
	"testing"

	"github.com/RickyOwings/rogue-stock/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.App.Host != "localhost" || cfg.App.Port != 3000 {
		t.Errorf("unexpected app defaults: %+v", cfg.App)
	}
	if cfg.App.Dir != "./app" {
		t.Errorf("unexpected static dir: %q", cfg.App.Dir)
	}
	if cfg.DB.Dir != "./stockDB" || cfg.DB.File != "stocks.db" {
		t.Errorf("unexpected db defaults: %+v", cfg.DB)
	}
	if cfg.Console.Prompt != "press h to see commands..." {
		t.Errorf("unexpected prompt: %q", cfg.Console.Prompt)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "0.0.0.0")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DIR", "/tmp/marketdata")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.App.Host != "0.0.0.0" || cfg.App.Port != 8080 {
		t.Errorf("env overrides not applied: %+v", cfg.App)
	}
	if cfg.DB.Dir != "/tmp/marketdata" {
		t.Errorf("db dir override not applied: %q", cfg.DB.Dir)
	}
}

func TestLoadConfig_RejectsBadPort(t *testing.T) {
	t.Setenv("APP_PORT", "-1")

	if _, err := config.LoadConfig(); err == nil {
		t.Fatal("expected an error for a negative port")
	}
}

func TestAddr(t *testing.T) {
	app := config.AppConfig{Host: "localhost", Port: 3000}
	if app.Addr() != "localhost:3000" {
		t.Errorf("unexpected addr %q", app.Addr())
	}
	if app.URL() != "http://localhost:3000" {
		t.Errorf("unexpected url %q", app.URL())
	}
}

func TestDBPath(t *testing.T) {
	db := config.DBConfig{Dir: "./stockDB", File: "stocks.db"}
	if db.Path() != filepath.Join("./stockDB", "stocks.db") {
		t.Errorf("unexpected path %q", db.Path())
	}
}
