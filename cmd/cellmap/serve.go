package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/acme/autocert"

	"mobkml.dev/cellmap/internal/app"
	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/restapi"
	"mobkml.dev/cellmap/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port      int
	env       string
	apiKeys   string
	rateLimit int
	dbType    string
	dbPath    string
	dbConn    string
	tlsDomain string
	certDir   string
}

func (o serveOptions) config() appconf.Config {
	return appconf.Config{
		Port:      o.port,
		Env:       appconf.EnvFlagToEnvironment(o.env),
		ApiKeys:   appconf.ParseAPIKeys(o.apiKeys),
		RateLimit: o.rateLimit,
		DBType:    o.dbType,
		DBPath:    o.dbPath,
		DBConn:    o.dbConn,
		TLSDomain: o.tlsDomain,
		CertDir:   o.certDir,
	}
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mapping API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.config(), cmd.ErrOrStderr())
		},
	}

	addServeFlags(cmd, &opts)
	return cmd
}

func addServeFlags(cmd *cobra.Command, opts *serveOptions) {
	flags := cmd.Flags()
	flags.IntVar(&opts.port, "port", 8000, "API server port")
	flags.StringVar(&opts.env, "env", "development", "Environment (development|test|production)")
	flags.StringVar(&opts.apiKeys, "api-keys", "", "Comma separated API keys, empty disables key checks")
	flags.IntVar(&opts.rateLimit, "rate-limit", 100, "Requests per second per client, 0 disables limiting")
	flags.StringVar(&opts.dbType, "db-type", profiles.DriverSQLite, "Profile database driver (sqlite|pgx)")
	flags.StringVar(&opts.dbPath, "db-path", "profiles.db", "SQLite profile database file")
	flags.StringVar(&opts.dbConn, "db-conn", "", "PostgreSQL connection string for --db-type pgx")
	flags.StringVar(&opts.tlsDomain, "tls-domain", "", "Serve HTTPS on :443 with Let's Encrypt certificates for this host")
	flags.StringVar(&opts.certDir, "cert-dir", "certs", "Certificate cache directory for --tls-domain")
}

// runServe serves until ctx is done, then shuts down gracefully.
func runServe(ctx context.Context, cfg appconf.Config, logOut io.Writer) error {
	logger := logging.ForEnvironment(logOut, cfg.Env)

	store, err := profiles.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening profile store: %w", err)
	}
	defer logging.SafeCloseWithLogging(store, logger, "profile store")

	api := restapi.NewRestAPI(&app.Application{
		Config:    cfg,
		Logger:    logger,
		Workspace: workspace.New(),
		Profiles:  store,
	})
	defer api.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	servers := []*http.Server{srv}
	errCh := make(chan error, 2)
	if cfg.TLSDomain == "" {
		go func() { errCh <- srv.ListenAndServe() }()
	} else {
		challenge := configureTLS(srv, cfg)
		servers = append(servers, challenge)
		go func() { errCh <- challenge.ListenAndServe() }()
		go func() { errCh <- srv.ListenAndServeTLS("", "") }()
	}
	logger.Info("starting server",
		slog.String("addr", srv.Addr),
		slog.String("env", cfg.Env.String()),
		slog.String("db", store.Driver()))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			shutdown(servers, logger)
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	shutdown(servers, logger)
	return nil
}

// configureTLS points srv at :443 with autocert certificates and returns
// the :80 server answering ACME challenges and redirecting to HTTPS.
func configureTLS(srv *http.Server, cfg appconf.Config) *http.Server {
	domain := cfg.TLSDomain
	certDir := cfg.CertDir
	if certDir == "" {
		certDir = "certs"
	}
	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(certDir),
		HostPolicy: autocert.HostWhitelist(domain, "www."+domain),
	}

	srv.Addr = ":443"
	srv.TLSConfig = manager.TLSConfig()

	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://"+domain+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
	return &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(redirect),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          srv.ErrorLog,
	}
}

func shutdown(servers []*http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			logging.LogError(logger, "graceful shutdown failed", err, slog.String("addr", s.Addr))
		}
	}
}
