// cmd/lobbyctl/main.go

// lobbyctl is a line-oriented client for a lobbyd server: it issues player
// intents from stdin and prints lobby and validation changes as they arrive.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
	"lobbyd/internal/session"
	"lobbyd/internal/transport"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	url := getEnv("LOBBYD_URL", "ws://localhost:8080/ws")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := transport.Dial(ctx, url, os.Getenv("LOBBYD_TOKEN"), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	part := session.NewParticipant(client, resolveName, session.Config{}, logger)

	part.View().Subscribe(func(l *lobby.Lobby) {
		if l == nil {
			fmt.Println("* left lobby")
			return
		}
		names := make([]string, 0, l.Count())
		for _, p := range l.Players {
			names = append(names, p.Name)
		}
		fmt.Printf("* lobby %d (private=%v seed=%d): %s\n", l.ID, l.Private, l.Seed, strings.Join(names, ", "))
	})
	part.Validator().OnChange(func(status protocol.ValidationStatus) {
		fmt.Printf("* code %d: %s\n", part.Validator().Code(), status)
	})

	go client.Run(ctx)

	// The validator is poll-driven; tick it on the configured cadence.
	ticker := time.NewTicker(pollInterval(os.Getenv("LOBBYD_POLL_INTERVAL")))
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				part.Validator().Poll()
			}
		}
	}()

	fmt.Printf("connected as %s (client %d)\n", part.Name(), client.LocalID())
	fmt.Println("commands: create | join <code> | match | exit | validate <code> | fetch | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "create":
			err = part.RequestCreatePrivateLobby()
		case "join":
			code, ok := parseCode(fields)
			if !ok {
				continue
			}
			err = part.RequestJoinPrivateLobby(code)
		case "match":
			err = part.RequestMatchmake()
		case "exit":
			err = part.RequestExitLobby()
		case "validate":
			code, ok := parseCode(fields)
			if !ok {
				continue
			}
			part.RequestValidateLobbyCode(code)
		case "fetch":
			if err = part.RequestFetchLobbies(); err == nil {
				// Give the reply a moment, then print the mirror.
				time.Sleep(200 * time.Millisecond)
				for _, l := range part.Snapshot() {
					fmt.Printf("  lobby %d private=%v players=%d/%d\n", l.ID, l.Private, l.Count(), lobby.MaxPlayers)
				}
			}
		case "quit":
			return
		default:
			fmt.Println("unknown command")
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			return
		}
	}
}

func parseCode(fields []string) (int, bool) {
	if len(fields) < 2 {
		fmt.Println("usage:", fields[0], "<code>")
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Println("code must be an integer")
		return 0, false
	}
	return code, true
}

// pollInterval parses the validator tick cadence, defaulting to one second
// for an empty or unusable value.
func pollInterval(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

func resolveName() string {
	if name := os.Getenv("LOBBYD_NAME"); name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
