// cmd/server/main.go
package main

import (
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/singular-game/singular/internal/auth"
	"github.com/singular-game/singular/internal/cache"
	"github.com/singular-game/singular/internal/handlers"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// The historian pipeline is optional; the relay runs fine without
	// Redis, it just keeps no history.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("historian disabled: %v", err)
	}

	srv := handlers.NewServer(logger)

	stop := make(chan struct{})
	srv.Rooms.StartPurgeLoop(5*time.Minute, stop)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	server := &http.Server{
		Addr:        addr,
		Handler:     srv.Router(),
		ReadTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errc <- server.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("server exited: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
	close(stop)
}
