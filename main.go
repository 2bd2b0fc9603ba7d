package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cardcheck/internal/accounts"
	"cardcheck/internal/config"
	"cardcheck/internal/logger"
	"cardcheck/internal/routes"
	"cardcheck/internal/session"
	"cardcheck/internal/view"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type portal struct {
	sessions *session.Manager
	accounts *accounts.Service
	views    *view.Renderer
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		logger.Log.Infow("request",
			"status", rec.status,
			"bytes", rec.bytes,
			"dur", time.Since(start).Truncate(time.Millisecond),
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"xff", strings.TrimSpace(r.Header.Get("X-Forwarded-For")),
			"ua", r.UserAgent(),
		)
	})
}

func getPortalRouter(p *portal) http.Handler {
	router := chi.NewRouter()
	router.Use(p.sessions.LoadAndSave)

	router.Handle(routes.Path(routes.Static)+"*", http.FileServer(http.FS(view.Static())))
	router.Get(routes.Path(routes.Index), p.handleIndex)
	router.Get(routes.Path(routes.Login), p.handleLoginGet)
	router.Post(routes.Path(routes.Login), p.handleLoginPost)
	router.HandleFunc(routes.Path(routes.Logout), p.handleLogout)
	router.Handle(routes.Path(routes.Metrics), promhttp.Handler())
	router.NotFound(p.handleNotFound)

	apiCfg := huma.DefaultConfig("CardCheck Pro", "1.0.0")
	apiCfg.OpenAPIPath = ""
	apiCfg.DocsPath = ""
	apiCfg.SchemasPath = ""
	api := humachi.New(router, apiCfg)
	registerHealth(api)
	registerPages(api, p)

	return logRequests(router)
}

func openStore(ctx context.Context, cfg *config.Config) (accounts.Store, error) {
	if cfg.DatabaseDSN == "" {
		logger.Log.Warn("DATABASE_DSN not set, accounts are kept in memory")
		return accounts.NewMemoryStore(), nil
	}
	return accounts.NewPostgresStore(ctx, cfg.DatabaseDSN, cfg.DBConnectTimeout)
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.FromSettings(config.NewSettingType(true))
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("logger sync: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open account store: %w", err)
	}
	defer store.Close()

	views, err := view.New()
	if err != nil {
		return err
	}

	p := &portal{
		sessions: session.NewManager(session.Options{
			Lifetime:     cfg.SessionTTL,
			CookieSecure: cfg.CookieSecure,
		}),
		accounts: accounts.NewService(store, cfg.MainAdminID, cfg.TierCacheTTL),
		views:    views,
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: getPortalRouter(p),

		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(srv, cfg)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func serve(srv *http.Server, cfg *config.Config) error {
	if !cfg.TLSEnabled {
		logger.Log.Infow("starting CardCheck Pro portal", "addr", srv.Addr)
		return srv.ListenAndServe()
	}

	if err := ensureTLSCert(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
		return fmt.Errorf("failed to ensure TLS certs: %w", err)
	}
	srv.TLSConfig = tlsConfig()
	logger.Log.Infow("starting CardCheck Pro portal with TLS", "addr", srv.Addr)
	return srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
