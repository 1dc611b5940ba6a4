package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ulyban/contactbook/internal/auth"
	authrepo "github.com/ulyban/contactbook/internal/auth/repo"
	contactrepo "github.com/ulyban/contactbook/internal/contact/repo"
	"github.com/ulyban/contactbook/internal/mailer"
	"github.com/ulyban/contactbook/internal/router"
	userrepo "github.com/ulyban/contactbook/internal/user/repo"
	"github.com/ulyban/contactbook/pkg/database"
	"github.com/ulyban/contactbook/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting contactbook api")

	// auth config is fatal when incomplete: token secrets have no defaults
	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("auth config: %v", err)
	}

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// ensure schema
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSchema()
	for _, ensure := range []func(context.Context) error{
		userrepo.NewUserRepo(db).EnsureTable,
		authrepo.NewSessionRepo(db).EnsureTable,
		contactrepo.NewContactRepo(db).EnsureTable,
	} {
		if err := ensure(schemaCtx); err != nil {
			sugar.Fatalf("ensure schema: %v", err)
		}
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Info("service is running; press Ctrl+C to stop")

	// mount http server
	smtp := mailer.NewSMTP(mailer.ConfigFromEnv())
	handler := router.RegisterRoutes(sugar, db, authCfg, smtp)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ping db once more
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
