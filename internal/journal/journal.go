// internal/journal/journal.go

// Package journal pushes lobby lifecycle events onto a Redis queue for
// out-of-process consumers (dashboards, analytics). The feed is strictly
// fire-and-forget: lobby state itself is never persisted, and a missing or
// failing Redis never affects lobby semantics.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/lobby"
)

// DefaultQueueName is the Redis list the records are pushed to.
const DefaultQueueName = "lobbyd_events"

// Event names recorded by the authority.
const (
	EventLobbyCreated = "lobby_created"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventLobbyDeleted = "lobby_deleted"
)

// Record is the JSON document pushed per event.
type Record struct {
	Event     string           `json:"event"`
	LobbyID   int              `json:"lobby_id"`
	Private   bool             `json:"private"`
	Seed      int              `json:"seed"`
	Members   []lobby.ClientID `json:"members"`
	Subject   lobby.ClientID   `json:"subject,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// Journal wraps a Redis client and a queue name. A nil *Journal is valid and
// drops every record, so callers never need to branch on whether the feed is
// configured.
type Journal struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// Connect opens and pings a Redis client. queue falls back to
// DefaultQueueName when empty.
func Connect(addr string, db int, queue string, logger *logrus.Logger) (*Journal, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Journal{rdb: rdb, queue: queue, logger: logger}, nil
}

// Publish serializes the record and pushes it onto the queue. Failures are
// logged and swallowed; the event feed is best effort.
func (j *Journal) Publish(ctx context.Context, rec Record) {
	if j == nil {
		return
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		j.logger.Warnf("journal: marshal record: %v", err)
		return
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		j.logger.Warnf("journal: rpush to %q: %v", j.queue, err)
	}
}

// Close releases the Redis client.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.rdb.Close()
}
