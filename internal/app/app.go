package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/config"
	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/handlers"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository"
	"github.com/abrezinsky/pickem/internal/scoring"
	"github.com/abrezinsky/pickem/internal/services"
	"github.com/abrezinsky/pickem/internal/websocket"
)

// Delays between scoring watcher restarts
const (
	watcherMinRetry = time.Second
	watcherMaxRetry = time.Minute
)

// App holds all application dependencies
type App struct {
	log        logger.Logger
	cfg        *config.Config
	repo       *repository.Repository
	handlers   *handlers.Handlers
	hub        *websocket.Hub
	provider   *auth.JWTProvider
	reconciler *scoring.Reconciler
	watcher    *scoring.Watcher
	baseURL    string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New opens the configured store and builds the application
func New(ctx context.Context, log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := openRepository(ctx, log, cfg.Store)
	if err != nil {
		return nil, err
	}
	return NewWithRepository(log, cfg, repo), nil
}

// NewWithRepository builds the application over an open repository.
// The app owns repo and closes it in Close.
func NewWithRepository(log logger.Logger, cfg *config.Config, repo *repository.Repository) *App {
	clock := pickem.SystemClock{}
	baseURL := defaultBaseURL(cfg.Server.BaseURL, realNetworkProvider{}, cfg.Addr())

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = auth.GenerateSecret()
		log.Warn("No JWT secret configured, using a random one; tokens will not survive a restart")
	}
	provider := auth.NewJWTProvider(secret, cfg.Auth.Issuer)

	// Initialize services
	roundService := services.NewRoundService(log, repo, clock, baseURL)
	matchService := services.NewMatchService(log, repo)
	pickService := services.NewPickService(log, repo, clock)
	leaderboardService := services.NewLeaderboardService(log, repo, clock)
	userService := services.NewUserService(log, repo)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, roundService)
	hub.Start()
	roundService.SetBroadcaster(hub)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	reconciler := scoring.NewReconciler(log, repo, scoring.Options{
		Concurrency: cfg.Scoring.Concurrency,
		Metrics:     scoring.NewMetrics(registry),
		Notifier:    hub,
	})
	watcher := scoring.NewWatcher(log, repo, reconciler, cfg.Scoring.Debounce)

	h := handlers.New(handlers.Deps{
		Rounds:      roundService,
		Matches:     matchService,
		Picks:       pickService,
		Leaderboard: leaderboardService,
		Users:       userService,
		Rescorer:    reconciler,
		Auth:        provider,
		Limiter:     auth.NewRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst),
		Hub:         hub.ServeWs,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Health:      repo.Ping,
		Log:         log,
	})

	return &App{
		log:        log,
		cfg:        cfg,
		repo:       repo,
		handlers:   h,
		hub:        hub,
		provider:   provider,
		reconciler: reconciler,
		watcher:    watcher,
		baseURL:    baseURL,
	}
}

// openRepository opens the document store named by cfg
func openRepository(ctx context.Context, log logger.Logger, cfg config.StoreConfig) (*repository.Repository, error) {
	storeLog := slogFor(log).With("component", "docstore")
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := repository.OpenSQLite(cfg.SQLitePath, storeLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return repo, nil
	case config.BackendFirestore:
		store, err := docstore.OpenFirestore(ctx, cfg.FirestoreProject, storeLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open firestore: %w", err)
		}
		return repository.New(store), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func slogFor(log logger.Logger) *slog.Logger {
	if s, ok := log.(interface{ Slog() *slog.Logger }); ok {
		return s.Slog()
	}
	return slog.Default()
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// BaseURL returns the URL used for share links
func (a *App) BaseURL() string {
	return a.baseURL
}

// MintToken signs a token for id with the app's provider
func (a *App) MintToken(id auth.Identity) (string, error) {
	return a.provider.GenerateToken(id, a.cfg.Auth.TokenTTL)
}

// Rescore reconciles every round once
func (a *App) Rescore(ctx context.Context) (scoring.Result, error) {
	return a.reconciler.ReconcileAll(ctx)
}

// Start runs the scoring watcher and the round status broadcaster until
// Close is called
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.watcher.Supervise(ctx, watcherMinRetry, watcherMaxRetry)
	}()
	go func() {
		defer a.wg.Done()
		a.hub.WatchRoundStatus(ctx, a.cfg.Scoring.StatusInterval)
	}()
}

// Close stops background work and closes the store
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
			a.wg.Wait()
		}
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close store", "error", err)
		}
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "url", a.baseURL)
		a.log.Info("Admin API", "url", a.baseURL+"/api/admin/rounds")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.log.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// defaultBaseURL keeps a configured base URL unless it points at
// localhost, which is useless for QR codes scanned from a phone
func defaultBaseURL(configured string, provider networkProvider, addr string) string {
	if configured != "" && !strings.Contains(configured, "localhost") && !strings.Contains(configured, "127.0.0.1") {
		return strings.TrimRight(configured, "/")
	}
	return fmt.Sprintf("http://%s%s", getPreferredIP(provider), addr)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges and falling back to localhost
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
