package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RyanHill92/rootzone/internal/config"
	"github.com/RyanHill92/rootzone/internal/server"
	"github.com/RyanHill92/rootzone/internal/site"
)

const dbWait = 30 * time.Second

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serves sites, trees, section lines and computed surfaces over HTTP.

The store driver comes from the config file or ROOTZONE_STORE. The mysql
driver reads DB_USER, DB_PASSWORD, DB_HOST and DB_NAME.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.Reference.Path)
	if err != nil {
		return fmt.Errorf("error loading reference data: %w", err)
	}

	store, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("error initializing store: %w", err)
	}
	defer closeStore()

	srv := server.New(store, site.NewModel(catalog, logger), cfg.Model, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("web service listening", zap.String("addr", cfg.Server.Addr), zap.String("store", cfg.Store.Driver))
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", zap.Stringer("signal", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		httpServer.Close()
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openStore opens the configured site store. The returned func releases it
// along with any database handle.
func openStore(ctx context.Context, c *config.Config) (site.Store, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		db    *sql.DB
		store *site.SQLStore
		err   error
	)
	switch c.Store.Driver {
	case config.DriverMemory:
		return site.NewMemoryStore(), func() {}, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(c.Store.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("error creating database directory: %w", err)
		}
		db, err = sql.Open("sqlite", c.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening DB connection: %w", err)
		}
		store, err = site.NewSQLiteStore(db, logger)

	case config.DriverMySQL:
		db, err = sql.Open("mysql", c.Store.MySQL.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("error opening DB connection: %w", err)
		}
		if err = waitForDB(ctx, db); err == nil {
			store, err = site.NewMySQLStore(db, logger)
		}

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return store, func() {
		logger.Info("closing store")
		store.Close()
		logger.Info("closing database")
		db.Close()
	}, nil
}

// waitForDB pings until the database answers, which can take a while when
// it starts alongside the service.
func waitForDB(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, dbWait)
	defer cancel()

	for {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database did not answer within %s: %w", dbWait, ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}
	}
}
