package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hamisigad71/rare-draw-demo1/internal/app"
	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

type Handler struct {
	svc *app.GameService
}

func NewHandler(svc *app.GameService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/v1")
	g.POST("/sessions", h.StartSession)
	g.GET("/sessions/:id", h.GetSession)
	g.POST("/sessions/:id/swipe", h.Swipe)
	g.POST("/sessions/:id/settle", h.Settle)
	g.POST("/sessions/:id/undo", h.Undo)
	g.POST("/sessions/:id/restart", h.Restart)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) StartSession(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := h.svc.Start(c.Request().Context(), req.DeckID, bearerToken(c))
	if err != nil {
		return mapError(c, err)
	}

	if result.Denied {
		return c.JSON(http.StatusPaymentRequired, PurchaseRequiredResponse{
			Error:     "purchase required",
			DeckID:    result.Deck.ID,
			DeckName:  result.Deck.Name,
			Price:     result.Deck.Price,
			CardCount: result.CardCount,
		})
	}

	return c.JSON(http.StatusCreated, toSessionResponse(*result.Session))
}

func (h *Handler) GetSession(c echo.Context) error {
	view, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

func (h *Handler) Swipe(c echo.Context) error {
	var req SwipeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	view, applied, err := h.svc.Swipe(c.Request().Context(), c.Param("id"), domain.Direction(req.Direction))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, TransitionResponse{Applied: applied, Session: toSessionResponse(view)})
}

func (h *Handler) Settle(c echo.Context) error {
	view, err := h.svc.Settle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, TransitionResponse{Applied: true, Session: toSessionResponse(view)})
}

func (h *Handler) Undo(c echo.Context) error {
	view, applied, err := h.svc.Undo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, TransitionResponse{Applied: applied, Session: toSessionResponse(view)})
}

func (h *Handler) Restart(c echo.Context) error {
	view, applied, err := h.svc.Restart(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, TransitionResponse{Applied: applied, Session: toSessionResponse(view)})
}

func mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrDeckNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "deck not found"})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
