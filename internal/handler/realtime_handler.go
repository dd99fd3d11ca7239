package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/middleware"
	"github.com/noah-isme/unishare-api/internal/service"
)

// RealtimeSubscriber registers live connections for a user.
type RealtimeSubscriber interface {
	Subscribe(userID uint) (<-chan service.RealtimeEvent, func())
}

// RealtimeHandler streams per-user events over websocket and server-sent events.
type RealtimeHandler struct {
	hub       RealtimeSubscriber
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewRealtimeHandler constructs the handler. keepAlive defaults to 30s.
func NewRealtimeHandler(hub RealtimeSubscriber, logger zerolog.Logger, keepAlive time.Duration) *RealtimeHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &RealtimeHandler{
		hub:       hub,
		logger:    logger.With().Str("component", "realtime_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the websocket and SSE endpoints.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("/stream", h.stream)
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	events, cleanup := h.hub.Subscribe(userID)
	closed := make(chan struct{})
	defer func() {
		cleanup()
		_ = conn.Close()
	}()

	logger := h.logger.With().Uint("user_id", userID).Logger()
	logger.Info().Msg("realtime websocket connected")

	// clients only send pings and close frames; the read loop detects disconnects
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug().Err(err).Msg("realtime read loop ended")
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("realtime write loop terminated")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("realtime ping failed")
				return
			}
		case <-closed:
			logger.Info().Msg("realtime websocket disconnected")
			return
		}
	}
}

func (h *RealtimeHandler) stream(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	events, cleanup := h.hub.Subscribe(actor.ID)
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAlive / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeRealtimeEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write realtime event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write realtime keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeRealtimeEvent(w *bufio.Writer, event service.RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}

func websocketUserID(conn *websocket.Conn) uint {
	switch v := conn.Locals(middleware.LocalUserID).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

var _ RealtimeSubscriber = (*service.RealtimeHub)(nil)
