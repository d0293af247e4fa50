// Package app wires configuration, the backend client, caches, and all HTTP
// handlers into a single application container.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/cache"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/config"
	"github.com/snapfolio/snapfolio-portal/internal/events"
	"github.com/snapfolio/snapfolio-portal/internal/handlers"
	"github.com/snapfolio/snapfolio-portal/internal/mcp"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Backend   *client.Backend
	NewsCache *cache.Cache
	Preloader *cache.Preloader
	Bus       *events.Bus
	Guard     *auth.RedirectGuard
	Signup    *auth.SignupStore

	// HTTP handlers
	HealthHandler        *handlers.HealthHandler
	VersionHandler       *handlers.VersionHandler
	AuthHandler          *handlers.AuthHandler
	HomeHandler          *handlers.HomeHandler
	StockHandler         *handlers.StockHandler
	CalendarHandler      *handlers.CalendarHandler
	DisclosureHandler    *handlers.DisclosureHandler
	ScrapHandler         *handlers.ScrapHandler
	CardsHandler         *handlers.CardsHandler
	NotificationsHandler *handlers.NotificationsHandler
	MarketDataHandler    *handlers.MarketDataHandler
	MCPHandler           *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE — unsigned sessions accepted, do not use in production")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	a.Backend = client.New(cfg.API.URL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)
	a.NewsCache = cache.New(time.Duration(cfg.Cache.NewsTTLMinutes)*time.Minute, cfg.Cache.MaxEntries)
	a.Preloader = cache.NewPreloader(warmImage(), cfg.Cache.MaxEntries)
	a.Bus = events.NewBus(logger)
	a.Guard = auth.NewRedirectGuard()
	a.Signup = auth.NewSignupStore()

	// A stale session is announced once per expiry: the guard swallows the
	// duplicate AUTH-002 responses that concurrent screen fetches produce.
	a.Backend.OnSessionExpired(func() {
		if a.Guard.Trip() {
			logger.Info().Msg("backend session expired, notifying clients")
			a.Bus.Publish(events.SessionExpired, "Session expired, please log in again", map[string]interface{}{
				"redirect": "/login",
			})
		}
	})

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	jwtSecret := []byte(a.Config.Auth.JWTSecret)

	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.AuthHandler = handlers.NewAuthHandler(a.Logger, a.Backend, a.Guard, a.Signup, a.NewsCache, jwtSecret, a.Config.IsDevMode())
	a.HomeHandler = handlers.NewHomeHandler(a.Logger, a.Backend, jwtSecret)
	a.StockHandler = handlers.NewStockHandler(a.Logger, a.Backend, a.NewsCache, a.Preloader, jwtSecret)
	a.CalendarHandler = handlers.NewCalendarHandler(a.Logger, a.Backend, jwtSecret)
	a.DisclosureHandler = handlers.NewDisclosureHandler(a.Logger, a.Backend, jwtSecret)
	a.ScrapHandler = handlers.NewScrapHandler(a.Logger, a.Backend, a.Bus, jwtSecret)
	a.CardsHandler = handlers.NewCardsHandler(a.Logger, a.Backend, jwtSecret)
	a.NotificationsHandler = handlers.NewNotificationsHandler(a.Logger, a.Bus, jwtSecret)
	a.MarketDataHandler = handlers.NewMarketDataHandler(a.Logger, a.Config.MarketData.URL, a.Config.MarketData.APIKey)
	a.MCPHandler = mcp.NewHandler(a.Backend, jwtSecret, a.Logger)
}

// warmImage returns the preloader warm function. Fetching the image once
// primes any intermediate HTTP caches so the first card flip renders fast.
func warmImage() cache.WarmFunc {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return func(ctx context.Context, url string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("warm %s: status %d", url, resp.StatusCode)
		}
		return nil
	}
}
