package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/swivo/auth"
	"github.com/danielhkuo/swivo/cache"
	"github.com/danielhkuo/swivo/catalog"
	"github.com/danielhkuo/swivo/cliparse"
	"github.com/danielhkuo/swivo/db"
	"github.com/danielhkuo/swivo/invite"
	"github.com/danielhkuo/swivo/middleware"
	"github.com/danielhkuo/swivo/notify"
	"github.com/danielhkuo/swivo/router"
	"github.com/danielhkuo/swivo/session"
	"github.com/danielhkuo/swivo/store"
)

func main() {
	var err error

	// A missing .env file is fine; real deployments use the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	driver, err := db.DriverName(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	dbType := db.TypePostgres
	if driver == "sqlite" {
		dbType = db.TypeSQLite
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection, giving a database that is still starting a moment
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		return dbConn.PingContext(ctx)
	}
	if err := backoff.Retry(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dbType)

	var cat catalog.Catalog = catalog.NewSQLCatalog(dbConn)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		if err := cache.Ping(ctx, rdb); err != nil {
			slog.Warn("redis unavailable, labels will be read from the database until it recovers", "error", err)
		}
		cancel()

		cat = cache.NewOptionCache(rdb, cat, cache.DefaultTTL)
		slog.Info("Option label cache enabled")
	}

	var transport notify.Transport = notify.LogTransport{}
	if cfg.PushGatewayURL != "" {
		transport = notify.NewGatewayTransport(cfg.PushGatewayURL, cfg.PushGatewayKey, cfg.PushTimeout)
		slog.Info("Push gateway configured", "url", cfg.PushGatewayURL)
	} else {
		slog.Warn("PUSH_GATEWAY_URL not set, match notifications will only be logged")
	}

	st := store.New(dbConn, dbType, invite.NewGenerator(invite.DefaultLength))
	dispatcher := notify.NewDispatcher(st, st, cat, transport, notify.Config{
		SendTimeout: cfg.PushTimeout,
		Concurrency: cfg.PushConcurrency,
	})
	svc := session.NewService(st, cat, dispatcher, session.Config{
		StoreTimeout:  cfg.StoreTimeout,
		NotifyTimeout: 3 * cfg.PushTimeout,
	})

	// Create router
	mux := router.NewRouter(dbConn, svc, auth.NewVerifier(cfg.JWTSecret))

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Let in-flight match notifications finish before exiting
	svc.Wait()
}
