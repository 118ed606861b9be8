package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/stockview/internal/clients"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/models"
	"github.com/bobmcallan/stockview/internal/storage"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Storage.Backend = common.BackendNone
	config.Logging.Level = "error"
	return config
}

func TestNewAppWithConfig_UnconfiguredSource(t *testing.T) {
	a, err := NewAppWithConfig(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Source.(clients.Unconfigured); !ok {
		t.Fatalf("Expected Unconfigured source, got %T", a.Source)
	}
	if _, ok := a.Store.(storage.NoopStore); !ok {
		t.Fatalf("Expected NoopStore, got %T", a.Store)
	}

	_, err = a.DashboardService.GetDashboard(context.Background(), "AAPL", false)
	if !errors.Is(err, models.ErrSourceNotConfigured) {
		t.Fatalf("Expected ErrSourceNotConfigured, got %v", err)
	}
	if got := models.UserMessage(err); got != "API configuration error" {
		t.Errorf("Unexpected user message %q", got)
	}
}

func TestNewAppWithConfig_ConfiguredSource(t *testing.T) {
	config := testConfig(t)
	config.Clients.Source = common.SourceTiingo
	config.Clients.Tiingo.APIKey = "test-key"

	a, err := NewAppWithConfig(context.Background(), config)
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	if a.Source.Name() != common.SourceTiingo {
		t.Errorf("Expected tiingo source, got %s", a.Source.Name())
	}
	if a.DashboardService.SourceName() != common.SourceTiingo {
		t.Errorf("Service reports source %s", a.DashboardService.SourceName())
	}
}

func TestNewAppWithConfig_SQLiteStore(t *testing.T) {
	config := testConfig(t)
	config.Storage.Backend = common.BackendSQLite
	config.Storage.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")

	a, err := NewAppWithConfig(context.Background(), config)
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	a.Close()

	if _, err := os.Stat(config.Storage.SQLite.Path); err != nil {
		t.Errorf("Expected sqlite file to exist: %v", err)
	}
	if a.Store != nil {
		t.Error("Close should release the store")
	}
}

func TestStartWarmScheduler_NoSymbols(t *testing.T) {
	a, err := NewAppWithConfig(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	if err := a.StartWarmScheduler(); err != nil {
		t.Fatalf("StartWarmScheduler failed: %v", err)
	}
	if a.scheduler != nil {
		t.Error("Expected no scheduler without symbols")
	}
}

func TestStartWarmScheduler_BadSchedule(t *testing.T) {
	config := testConfig(t)
	config.Warm.Symbols = []string{"AAPL"}
	config.Warm.Schedule = "not a schedule"

	a, err := NewAppWithConfig(context.Background(), config)
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer a.Close()

	t.Setenv("STOCKVIEW_WARM_CACHE", "")
	if err := a.StartWarmScheduler(); err == nil {
		t.Fatal("Expected error for invalid schedule")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("STOCKVIEW_CONFIG", "")
	if got := ResolveConfigPath("explicit.toml"); got != "explicit.toml" {
		t.Errorf("Expected explicit path, got %s", got)
	}

	t.Setenv("STOCKVIEW_CONFIG", "/etc/stockview.toml")
	if got := ResolveConfigPath(""); got != "/etc/stockview.toml" {
		t.Errorf("Expected env path, got %s", got)
	}
}

func TestNewApp_LoadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockview.toml")
	content := `
[storage]
backend = "none"

[clients]
source = "eodhd"

[logging]
level = "error"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKVIEW_SOURCE", "")
	t.Setenv("STOCKVIEW_STORAGE_BACKEND", "")

	a, err := NewApp(path)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	if a.Config.Clients.Source != common.SourceEODHD {
		t.Errorf("Expected eodhd source, got %s", a.Config.Clients.Source)
	}
}
