// Package ws streams session transition events to connected clients over a
// websocket, and accepts settle messages so clients can signal that a card
// animation has finished.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/hamisigad71/rare-draw-demo1/internal/app"
	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

// clientMessage is the only message shape clients may send on the stream.
type clientMessage struct {
	Type string `json:"type"`
}

const msgTypeSettle = "settle"

// Stream bridges GameService events to websocket clients.
type Stream struct {
	svc    *app.GameService
	logger *slog.Logger
}

func NewStream(svc *app.GameService, logger *slog.Logger) *Stream {
	return &Stream{svc: svc, logger: logger}
}

// Register mounts the event stream route on the echo instance.
func (s *Stream) Register(e *echo.Echo) {
	e.GET("/v1/sessions/:id/events", s.handle)
}

func (s *Stream) handle(c echo.Context) error {
	sessionID := c.Param("id")

	events, cancel, err := s.svc.Subscribe(sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "subscribe failed"})
	}
	defer cancel()

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "session_id", sessionID, "error", err)
		return nil
	}
	defer conn.CloseNow()

	ctx, stop := context.WithCancel(c.Request().Context())
	defer stop()

	go s.readLoop(ctx, stop, conn, sessionID)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return nil
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				s.logger.Debug("websocket write failed", "session_id", sessionID, "error", err)
				return nil
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		}
	}
}

// readLoop consumes client messages until the connection drops. Settle
// messages are forwarded to the service; anything else is ignored.
func (s *Stream) readLoop(ctx context.Context, stop context.CancelFunc, conn *websocket.Conn, sessionID string) {
	defer stop()
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		if msg.Type != msgTypeSettle {
			continue
		}
		if _, err := s.svc.Settle(ctx, sessionID); err != nil {
			s.logger.Debug("settle over websocket failed", "session_id", sessionID, "error", err)
			return
		}
	}
}
