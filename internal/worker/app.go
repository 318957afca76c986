// Package worker assembles the background worker: durable storage, session,
// backend gateway, identity provider, router and the gRPC transport that UI
// surfaces talk to. Run serves until the context is cancelled or the process
// receives SIGINT, SIGTERM or SIGQUIT.
package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/config"
	"github.com/dmitrijs2005/trace/internal/client/gateway"
	"github.com/dmitrijs2005/trace/internal/client/identity"
	"github.com/dmitrijs2005/trace/internal/client/session"
	"github.com/dmitrijs2005/trace/internal/client/storage"
	"github.com/dmitrijs2005/trace/internal/client/tabs"
	"github.com/dmitrijs2005/trace/internal/common"
	"github.com/dmitrijs2005/trace/internal/logging"
	"github.com/dmitrijs2005/trace/internal/router"
	"github.com/dmitrijs2005/trace/internal/transport"
	"golang.org/x/sync/errgroup"
)

const (
	tabPruneInterval = 10 * time.Minute
	tabMaxAge        = time.Hour
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *storage.SQLiteStore
	kv      storage.Store
	session *session.Store
	gateway *gateway.Client
	tabs    *tabs.Registry
	router  *router.Router
	server  *transport.GRPCServer
	health  *HealthWatcher
}

// NewApp opens durable storage and wires every component. The caller owns
// the returned App and must call Run or Close.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if err := ensureDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var kv storage.Store = db
	if c.StorageSecret != "" {
		sealed, err := storage.NewSealedStore(ctx, db, []byte(c.StorageSecret), common.SensitiveKeys)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sealed store: %w", err)
		}
		kv = sealed
	}

	app := &App{config: c, logger: l, db: db, kv: kv, tabs: tabs.NewRegistry()}

	app.session = session.NewStore(kv, l)
	app.gateway = gateway.NewClient(&http.Client{Timeout: c.RequestTimeout}, app.baseURL, c.Endpoints, l)

	google := identity.NewGoogle(identity.GoogleConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		OpenBrowser:  c.OpenBrowser,
		Prompt:       app.prompt,
	}, l)

	app.router = router.New(router.Deps{
		Session:  app.session,
		Backend:  app.gateway,
		Identity: google,
		Storage:  kv,
		Tabs:     app.tabs,
		Logger:   l,
	})
	app.server = transport.NewGRPCServer(c.ListenAddr, app.router, l)
	app.health = NewHealthWatcher(app.gateway, c.HealthCheckInterval, l)

	return app, nil
}

func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// baseURL resolves the backend per request so a backendUrl written to
// storage takes effect without a restart.
func (app *App) baseURL(ctx context.Context) string {
	if u := storage.String(ctx, app.kv, common.KeyBackendURL, ""); u != "" {
		return strings.TrimRight(u, "/")
	}
	return app.config.BaseURL()
}

func (app *App) prompt(ctx context.Context, verificationURL, userCode string) {
	app.logger.Info(ctx, "Sign-in pending", "verification_url", verificationURL, "user_code", userCode)
	fmt.Fprintf(os.Stderr, "To sign in, visit %s and enter code %s\n", verificationURL, userCode)
}

// Router exposes the in-process router, mainly for tests and embedding.
func (app *App) Router() *router.Router {
	return app.router
}

func (app *App) Health() *HealthWatcher {
	return app.health
}

// Run listens on the configured address and serves until ctx is done or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.config.ListenAddr)
	if err != nil {
		_ = app.Close()
		return fmt.Errorf("listen %s: %w", app.config.ListenAddr, err)
	}
	return app.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (app *App) Serve(ctx context.Context, lis net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "environment", string(app.config.Environment), "backend", app.config.BaseURL())

	app.router.Init(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Serve(ctx, lis)
	})
	g.Go(func() error {
		return app.health.Run(ctx)
	})
	g.Go(func() error {
		app.pruneTabs(ctx, tabPruneInterval)
		return nil
	})

	err := g.Wait()

	app.logger.Info(context.Background(), "Waiting for in-flight messages...")
	app.router.Wait()

	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	app.logger.Info(context.Background(), "Stopped")
	return err
}

func (app *App) pruneTabs(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := app.tabs.Prune(now.Add(-tabMaxAge)); n > 0 {
				app.logger.Debug(ctx, "pruned tabs", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (app *App) Close() error {
	return app.db.Close()
}
