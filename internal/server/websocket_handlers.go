package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"chronicle/internal/middleware"
	"chronicle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	wsTicketTTL = 30 * time.Second
	// How long a GETDEL-consumed ticket stays in the in-process cache. Long
	// enough to cover Fiber's repeated middleware passes during the
	// websocket handshake, short enough that a leaked ticket is useless.
	wsTicketCacheTTL = 30 * time.Second
)

// consumedTicketEntry caches a ticket that was already consumed from Redis so
// the auth middleware can resolve it again during the same handshake.
type consumedTicketEntry struct {
	userID    uint
	consumeAt time.Time
}

// IssueWSTicket mints a short-lived single-use ticket the client presents in
// the WebSocket URL. Browsers cannot set an Authorization header on the
// upgrade request, so the JWT is exchanged for a ticket here.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("realtime feed unavailable")))
	}

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	userID := currentUserID(c)

	if err := s.redis.Set(c.UserContext(), key,
		strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		s.logRedisError("issue_ws_ticket", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// resolveWSTicket resolves a ticket to a user ID. Tickets are consumed from
// Redis atomically with GETDEL on first sight, then served from the
// in-process cache so the multi-pass websocket handshake can re-run auth.
func (s *Server) resolveWSTicket(ctx context.Context, ticket string) (uint, bool) {
	s.consumedTicketsMu.Lock()
	if entry, ok := s.consumedTickets[ticket]; ok {
		if time.Since(entry.consumeAt) < wsTicketCacheTTL {
			s.consumedTicketsMu.Unlock()
			return entry.userID, true
		}
		delete(s.consumedTickets, ticket)
	}
	s.consumedTicketsMu.Unlock()

	key := fmt.Sprintf("ws_ticket:%s", ticket)
	userIDStr, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		return 0, false
	}

	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return 0, false
	}

	s.consumedTicketsMu.Lock()
	s.consumedTickets[ticket] = consumedTicketEntry{
		userID:    uint(userID),
		consumeAt: time.Now(),
	}
	s.consumedTicketsMu.Unlock()

	return uint(userID), true
}

// consumeWSTicket removes a ticket from the in-process cache once the
// handshake has completed. Safe to call with a nil or empty local.
func (s *Server) consumeWSTicket(_ context.Context, ticket any) {
	ticketStr, ok := ticket.(string)
	if !ok || ticketStr == "" {
		return
	}

	s.consumedTicketsMu.Lock()
	delete(s.consumedTickets, ticketStr)
	s.consumedTicketsMu.Unlock()
}

// WebsocketHandler upgrades the connection and attaches it to the feed hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)

		// The single-use ticket has served its purpose once we are here.
		s.consumeWSTicket(context.Background(), conn.Locals("wsTicket"))

		if !ok || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "connection limit reached"))
			_ = conn.Close()
			return
		}

		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		go client.WritePump()
		client.ReadPump()
	})
}
