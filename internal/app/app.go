// Package app wires configuration, the market data source, the cache store
// and the dashboard service into a single runtime shared by the server and
// the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockview/internal/clients"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
	"github.com/bobmcallan/stockview/internal/services/market"
	"github.com/bobmcallan/stockview/internal/storage"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Source           interfaces.MarketSource
	Store            interfaces.MarketCacheStore
	DashboardService interfaces.DashboardService
	MCPServer        *server.MCPServer
	StartupTime      time.Time

	scheduler       *WarmScheduler
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, then
// STOCKVIEW_CONFIG, then stockview.toml beside the binary, then
// config/stockview.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("STOCKVIEW_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "stockview.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockview.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes every component.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewAppWithConfig(context.Background(), config)
}

// NewAppWithConfig initializes every component from an already loaded config.
func NewAppWithConfig(ctx context.Context, config *common.Config) (*App, error) {
	startupStart := time.Now()
	logger := common.NewLoggerFromConfig(config.Logging)

	source, err := clients.NewSource(config.Clients, logger)
	if err != nil {
		if !errors.Is(err, models.ErrSourceNotConfigured) {
			return nil, fmt.Errorf("failed to initialize market source: %w", err)
		}
		// Serve anyway; lookups report a configuration error
		logger.Warn().Str("source", config.Clients.Source).Msg("API key not configured - lookups will fail until one is set")
		source = clients.Unconfigured{Vendor: config.Clients.Source}
	}

	store, err := storage.NewCacheStore(ctx, config.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	vendor, _ := config.Clients.Vendor(config.Clients.Source)
	dashboardService := market.NewService(source, store, logger,
		market.WithFetchTimeout(vendor.GetTimeout()),
		market.WithWriteWorkers(config.Storage.WriteWorkers),
		market.WithPriceHistory(config.Clients.HistoryDays),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Source:           source,
		Store:            store,
		DashboardService: dashboardService,
		MCPServer: server.NewMCPServer(
			"stockview",
			common.GetVersion(),
			server.WithToolCapabilities(true),
		),
		StartupTime: startupStart,
	}
	a.registerTools()

	logger.Info().
		Str("source", source.Name()).
		Str("storage", config.Storage.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, cancel warm cache, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close market cache")
		}
		a.Store = nil
	}
}

// StartWarmCache launches the background cache warming goroutine.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.DashboardService, a.Config.Warm.Symbols, a.Logger)
	}()
}

// StartWarmScheduler refreshes the configured symbols on the warm schedule.
func (a *App) StartWarmScheduler() error {
	if len(a.Config.Warm.Symbols) == 0 || warmDisabled() {
		return nil
	}
	s := NewWarmScheduler(a.DashboardService, a.Config.Warm.Symbols, a.Logger)
	if err := s.Start(a.Config.Warm.Schedule); err != nil {
		return fmt.Errorf("failed to start warm scheduler: %w", err)
	}
	a.scheduler = s
	return nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	s.AddTool(createGetVersionTool(), handleGetVersion(a.DashboardService))
	s.AddTool(createGetStockDashboardTool(), handleGetStockDashboard(a.DashboardService, a.Logger))
}
