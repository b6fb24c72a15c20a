package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SubjectValidator resolves a raw access token to the owner it was issued to
type SubjectValidator interface {
	Subject(ctx context.Context, token string) (string, error)
}

// AlertStreamHandler upgrades authenticated requests to push-only budget
// alert streams
type AlertStreamHandler struct {
	hub      *websocket.Hub
	auth     SubjectValidator
	origins  map[string]struct{}
	upgrader ws.Upgrader
}

// NewAlertStreamHandler creates an AlertStreamHandler. Browser requests must
// come from one of allowedOrigins.
func NewAlertStreamHandler(hub *websocket.Hub, auth SubjectValidator, allowedOrigins []string) *AlertStreamHandler {
	h := &AlertStreamHandler{
		hub:     hub,
		auth:    auth,
		origins: make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = struct{}{}
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

// originAllowed admits non-browser clients, which send no Origin
func (h *AlertStreamHandler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("Alert stream rejected: origin not allowed")
	return false
}

// Stream handles GET /ws?token=. The connection receives the owner's
// retained budget.exceeded event, if any, followed by live alert frames.
func (h *AlertStreamHandler) Stream(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "missing token")
	}

	ownerID, err := h.auth.Subject(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("Alert stream rejected")
		return NewUnauthorizedError(c, "invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("Alert stream upgrade failed")
		return err
	}

	log.Info().Str("owner_id", ownerID).Msg("Alert stream opened")
	go websocket.NewClient(conn, ownerID).Serve(h.hub)

	return nil
}
