package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/timmelander/oidc-session-gateway/authstate"
	"github.com/timmelander/oidc-session-gateway/cache"
	"github.com/timmelander/oidc-session-gateway/idp"
	"github.com/timmelander/oidc-session-gateway/internal/config"
	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/server"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running server: %s\n", err)
	}
	log.Printf("Server stopped\n")
}

func run() error {
	c := config.New()
	displayAppname(c.GetAppName())

	cacheClient := cache.New(c)
	defer cacheClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cacheClient.Ping(ctx).Err(); err != nil {
		cancel()
		return fmt.Errorf("failed to connect to cache: %w", err)
	}
	cancel()

	gateway := server.New(
		c,
		secrets.NewCachingProvider(secrets.EnvProvider{}),
		authstate.NewRedisRepo(cacheClient),
		sessions.NewRedisRepo(cacheClient),
		idp.New(c.GetIssuerBaseURL()),
	)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           gateway,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server) {
	log.Printf("Server listening on %s\n", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server.ListenAndServe: %s\n", err)
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
