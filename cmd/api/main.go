package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"crewbase.org/internal/account"
	"crewbase.org/internal/httpapi"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/profile"
	"crewbase.org/internal/provider"
	"crewbase.org/internal/provider/devprov"
	"crewbase.org/internal/provider/httpprov"
	"crewbase.org/internal/session"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

type gateway interface {
	provider.Gateway
	httpapi.SessionTokenSource
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Profile store: Postgres when a DSN is set, Redis when an address is
	// set, in-memory otherwise (local development).
	var (
		db     *sql.DB
		stores profile.Store
	)
	switch {
	case os.Getenv("CREWBASE_PG_DSN") != "":
		var err error
		db, err = sql.Open("pgx", os.Getenv("CREWBASE_PG_DSN"))
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		stores = profile.NewPostgres(db)
	case os.Getenv("CREWBASE_REDIS_ADDR") != "":
		rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("CREWBASE_REDIS_ADDR")})
		stores = profile.NewRedis(rdb)
	default:
		log.Println("no CREWBASE_PG_DSN or CREWBASE_REDIS_ADDR set, using in-memory profile store")
		stores = profile.NewMemory()
	}

	secret := os.Getenv("CREWBASE_PROVIDER_SECRET")
	if secret == "" {
		secret = "crewbase-dev-secret"
		log.Println("CREWBASE_PROVIDER_SECRET not set, using development default")
	}

	// Identity gateway: remote provider when a URL is configured, the
	// in-process development provider otherwise.
	var gw gateway
	if url := os.Getenv("CREWBASE_PROVIDER_URL"); url != "" {
		client, err := httpprov.New(url, secret)
		if err != nil {
			log.Fatalf("provider client: %v", err)
		}
		gw = client
	} else {
		gw = devprov.New(secret)
	}

	resolver := session.New(gw, stores)
	accounts := account.NewService(gw, stores)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := resolver.Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("session resolver: %v", err)
		}
	}()

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, accounts, resolver, stores, gw)

	addr := os.Getenv("CREWBASE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting crewbase-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	cancel()
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
