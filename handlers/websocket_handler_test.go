package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTournamentService knows a single tournament.
type stubTournamentService struct {
	services.TournamentService
	id int
}

func (s *stubTournamentService) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	if id != s.id {
		return nil, services.ErrTournamentNotFound
	}
	return &models.Tournament{ID: id, Name: "Open"}, nil
}

func wsServer(t *testing.T, origins []string) (*httptest.Server, *brackets.Hub) {
	t.Helper()
	hub := brackets.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	h := NewWebSocketHandler(hub, &stubTournamentService{id: 3}, origins)

	router := chi.NewRouter()
	router.Get("/ws/tournaments/{tournamentID}", h.ServeWs)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWebSocketHandler_ReceivesTournamentEvents(t *testing.T) {
	srv, hub := wsServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/3"), nil)
	require.NoError(t, err)
	defer conn.Close()

	room := brackets.TournamentRoom(3)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyTournament(3, brackets.EventStandingsUpdated, []int{1, 2})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg brackets.WebSocketMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, brackets.EventStandingsUpdated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
}

func TestWebSocketHandler_UnknownTournament(t *testing.T) {
	srv, _ := wsServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/4"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	srv, _ := wsServer(t, []string{"https://tab.example.org"})

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/3"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://tab.example.org"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/3"), header)
	require.NoError(t, err)
	conn.Close()
}
