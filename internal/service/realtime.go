package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/observability"
)

const realtimeBufferSize = 16

// Transport delivers an event to every live connection of a user.
type Transport interface {
	EmitToUser(ctx context.Context, userID uint, event string, payload interface{}) error
}

// RealtimeEvent is the frame written to websocket and SSE subscribers.
type RealtimeEvent struct {
	UserID  uint            `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

type realtimeEnvelope struct {
	Source string        `json:"source"`
	Event  RealtimeEvent `json:"event"`
}

// RealtimeHub fans events out to local subscribers and, when configured, to other API
// nodes through Redis pub/sub and NATS.
type RealtimeHub struct {
	mu           sync.RWMutex
	subscribers  map[uint]map[chan RealtimeEvent]struct{}
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewRealtimeHub constructs a hub. redisClient and natsConn are optional.
func NewRealtimeHub(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *RealtimeHub {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":realtime"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".realtime"
	}

	return &RealtimeHub{
		subscribers:  make(map[uint]map[chan RealtimeEvent]struct{}),
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "realtime_hub").Logger(),
		now:          time.Now,
	}
}

// Start consumes events published by other nodes until ctx is cancelled.
func (h *RealtimeHub) Start(ctx context.Context) {
	if h.redis != nil && h.redisChannel != "" {
		go h.consumeRedis(ctx)
	}
	if h.nats != nil && h.natsSubject != "" {
		go h.consumeNATS(ctx)
	}
}

// Subscribe registers a live connection for userID. The returned func must be called on disconnect.
func (h *RealtimeHub) Subscribe(userID uint) (<-chan RealtimeEvent, func()) {
	ch := make(chan RealtimeEvent, realtimeBufferSize)

	h.mu.Lock()
	if _, ok := h.subscribers[userID]; !ok {
		h.subscribers[userID] = make(map[chan RealtimeEvent]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()
	observability.RealtimeClientsActive().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.subscribers[userID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			h.mu.Unlock()
			observability.RealtimeClientsActive().Dec()
		})
	}
}

// Connections reports how many live connections userID has on this node.
func (h *RealtimeHub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// EmitToUser delivers locally and publishes to peer nodes. Only a peer publish failure is
// returned; local delivery never blocks and drops frames for slow consumers.
func (h *RealtimeHub) EmitToUser(ctx context.Context, userID uint, event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	frame := RealtimeEvent{UserID: userID, Event: event, Payload: raw, SentAt: h.now().UTC()}
	h.deliver(frame)
	observability.RealtimeEventsTotal().WithLabelValues(event).Inc()

	return h.publish(ctx, frame)
}

func (h *RealtimeHub) deliver(frame RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[frame.UserID] {
		select {
		case ch <- frame:
		default:
			h.logger.Warn().Uint("user_id", frame.UserID).Str("event", frame.Event).Msg("dropping realtime event for slow client")
		}
	}
}

func (h *RealtimeHub) publish(ctx context.Context, frame RealtimeEvent) error {
	if (h.redis == nil || h.redisChannel == "") && (h.nats == nil || h.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(realtimeEnvelope{Source: h.nodeID, Event: frame})
	if err != nil {
		return err
	}

	if h.redis != nil && h.redisChannel != "" {
		if err := h.redis.Publish(ctx, h.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if h.nats != nil && h.natsSubject != "" {
		if err := h.nats.Publish(h.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (h *RealtimeHub) consumeRedis(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, h.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		h.handleEnvelope([]byte(msg.Payload))
	}
}

func (h *RealtimeHub) consumeNATS(ctx context.Context) {
	sub, err := h.nats.Subscribe(h.natsSubject, func(msg *nats.Msg) {
		h.handleEnvelope(msg.Data)
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to subscribe to nats realtime subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
		}
	}()
}

func (h *RealtimeHub) handleEnvelope(data []byte) {
	var envelope realtimeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		h.logger.Warn().Err(err).Msg("invalid realtime envelope")
		return
	}
	if envelope.Source == h.nodeID {
		return
	}
	h.deliver(envelope.Event)
}
