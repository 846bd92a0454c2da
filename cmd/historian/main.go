// cmd/historian/main.go
package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/singular-game/singular/internal/historian"
)

func main() {
	cfg := historian.Config{
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		QueueName:  os.Getenv("HISTORIAN_QUEUE_NAME"),
		BatchSize:  envInt("HISTORIAN_BATCH_SIZE"),
		FlushDelay: time.Duration(envInt("HISTORIAN_FLUSH_MS")) * time.Millisecond,
		Inactivity: time.Duration(envInt("ROOM_INACTIVITY_TIMEOUT_SEC")) * time.Second,
	}

	hs := historian.NewService(cfg)
	go hs.Run()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	hs.Stop()
	logrus.Info("historian shutdown complete")
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
