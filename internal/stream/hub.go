package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	EventLike           = "like"
	EventUnlike         = "unlike"
	EventComment        = "comment"
	EventCommentDeleted = "comment_deleted"

	channelPattern = "trips:*:activity"
)

// Event is one piece of trip activity pushed to live viewers.
type Event struct {
	Type       string    `json:"type"`
	TripID     int64     `json:"trip_id"`
	UserID     int64     `json:"user_id"`
	LikesCount *int64    `json:"likes_count,omitempty"`
	CommentID  int64     `json:"comment_id,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher is what services use to announce activity.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Hub fans trip activity out to websocket clients. With redis every event
// goes through pub/sub so all API instances see it; without redis it is
// delivered in process.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	TripID int64
	Send   chan []byte
}

func NewHub(ctx context.Context, redisClient *redis.Client) *Hub {
	h := &Hub{clients: map[int64]map[*Client]struct{}{}}
	if redisClient == nil {
		return h
	}

	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Warn().Err(err).Msg("activity stream: redis subscribe failed, delivering locally")
		_ = pubsub.Close()
		return h
	}
	h.redis = redisClient
	h.pubsub = pubsub
	go h.forward(pubsub.Channel())
	return h
}

func (h *Hub) Register(tripID int64) *Client {
	client := &Client{TripID: tripID, Send: make(chan []byte, 64)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tripClients, ok := h.clients[client.TripID]
	if !ok {
		return
	}
	if _, ok := tripClients[client]; !ok {
		return
	}
	delete(tripClients, client)
	if len(tripClients) == 0 {
		delete(h.clients, client.TripID)
	}
	close(client.Send)
}

func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("activity stream: encode event")
		return
	}

	if h.redis != nil {
		err := h.redis.Publish(ctx, redisChannel(ev.TripID), payload).Err()
		if err == nil {
			return
		}
		log.Warn().Err(err).Int64("trip_id", ev.TripID).Msg("activity stream: redis publish failed, delivering locally")
	}
	h.deliver(ev.TripID, payload)
}

// Close stops the redis subscription.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

// deliver drops the payload for clients whose buffer is full. The read lock
// is held while sending so Unregister cannot close a channel mid-send.
func (h *Hub) deliver(tripID int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[tripID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(messages <-chan *redis.Message) {
	for msg := range messages {
		tripID, ok := tripIDFromChannel(msg.Channel)
		if !ok {
			continue
		}
		h.deliver(tripID, []byte(msg.Payload))
	}
}

func redisChannel(tripID int64) string {
	return "trips:" + strconv.FormatInt(tripID, 10) + ":activity"
}

func tripIDFromChannel(ch string) (int64, bool) {
	// trips:{id}:activity
	raw, ok := strings.CutPrefix(ch, "trips:")
	if !ok {
		return 0, false
	}
	raw, ok = strings.CutSuffix(raw, ":activity")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
