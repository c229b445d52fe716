// cmd/lobbyd/main.go
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/auth"
	"lobbyd/internal/journal"
	"lobbyd/internal/session"
	"lobbyd/internal/transport"
)

func main() {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(getEnv("LOBBYD_LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}

	keys, err := auth.NewKeys(parseExpire(logger))
	if err != nil {
		logger.Fatalf("failed to init session keys: %v", err)
	}

	// The event journal is optional; without LOBBYD_REDIS_ADDR the server
	// runs with a nil journal and every publish is a no-op.
	var jr *journal.Journal
	if addr := os.Getenv("LOBBYD_REDIS_ADDR"); addr != "" {
		jr, err = journal.Connect(addr, getEnvInt("LOBBYD_REDIS_DB", 0), os.Getenv("LOBBYD_QUEUE"), logger)
		if err != nil {
			logger.Warnf("event journal disabled: %v", err)
		} else {
			defer jr.Close()
		}
	}

	hub := transport.NewHub(logger, keys)
	authority, err := session.NewAuthority(hub, logger, jr)
	if err != nil {
		logger.Fatalf("failed to start authority: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", getEnv("LOBBYD_PORT", "8080")))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v, %d active lobbies discarded", sig, len(authority.Lobbies()))
	}
}

func parseExpire(logger *logrus.Logger) time.Duration {
	raw := os.Getenv("LOBBYD_TOKEN_EXPIRE")
	if raw == "" || raw == "never" || raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Fatalf("failed to parse LOBBYD_TOKEN_EXPIRE: %v", err)
	}
	return d
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return def
	}
	return v
}
