package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSubjects accepts the token "good" for one owner
type stubSubjects struct {
	ownerID string
}

func (s *stubSubjects) Subject(ctx context.Context, token string) (string, error) {
	if token != "good" {
		return "", errors.New("signature mismatch")
	}
	return s.ownerID, nil
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://fortuna.app"}

func TestAlertStreamHandler_MissingToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewAlertStreamHandler(hub, &stubSubjects{ownerID: "auth0|a"}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()

	err := h.Stream(e.NewContext(req, rec))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing token")
	assert.Equal(t, 0, hub.TotalConnections())
}

func TestAlertStreamHandler_InvalidToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewAlertStreamHandler(hub, &stubSubjects{ownerID: "auth0|a"}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=forged", nil)
	rec := httptest.NewRecorder()

	err := h.Stream(e.NewContext(req, rec))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
	assert.NotContains(t, rec.Body.String(), "signature mismatch")
}

func TestAlertStreamHandler_ValidTokenWithoutUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewAlertStreamHandler(hub, &stubSubjects{ownerID: "auth0|a"}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	rec := httptest.NewRecorder()

	err := h.Stream(e.NewContext(req, rec))

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.Connections("auth0|a"))
}

func TestAlertStreamHandler_OriginAllowed(t *testing.T) {
	h := NewAlertStreamHandler(websocket.NewHub(), &stubSubjects{}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://fortuna.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"no origin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.expected, h.originAllowed(req))
		})
	}
}

func readEvent(t *testing.T, conn *ws.Conn) websocket.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt websocket.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestAlertStreamHandler_LateSubscriberReceivesRetainedAlert(t *testing.T) {
	hub := websocket.NewHub()
	h := NewAlertStreamHandler(hub, &stubSubjects{ownerID: "auth0|a"}, testAllowedOrigins)

	e := echo.New()
	e.GET("/ws", h.Stream)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx := context.Background()
	alert := &domain.BudgetAlert{
		Categories: []string{"Dining"},
		Message:    "You have exceeded your budget for: Dining.",
	}
	// a sweep raised the alert before the client connected
	require.NoError(t, hub.DispatchBudgetAlert(ctx, "auth0|a", alert))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=good"
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	replayed := readEvent(t, conn)
	assert.Equal(t, websocket.EventBudgetExceeded, replayed.Type)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, []string{"Dining"}, replayed.Alert.Categories)
	assert.Equal(t, 1, hub.Connections("auth0|a"))

	require.NoError(t, hub.ResolveBudgetAlert(ctx, "auth0|a"))
	resolved := readEvent(t, conn)
	assert.Equal(t, websocket.EventBudgetResolved, resolved.Type)
	assert.False(t, resolved.Replayed)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return hub.TotalConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
