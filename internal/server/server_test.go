package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/unoroom/internal/game"
)

type apiResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r apiResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

func (r apiResponse) errorBody(t *testing.T) errorResponse {
	t.Helper()
	var body errorResponse
	r.decode(t, &body)
	return body
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: buf.Bytes()}
}

func newHTTPServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	s, _ := NewTestServer(t, 7, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.CloseAll()
		ts.Close()
	})
	return ts
}

// setupGame creates a room with the named players and returns its id and
// the player ids in join order.
func setupGame(t *testing.T, ts *httptest.Server, names ...string) (string, []string) {
	t.Helper()
	resp := call(t, ts, http.MethodPost, "/api/rooms", NameRequest{Name: names[0]})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var created JoinResponse
	resp.decode(t, &created)

	ids := []string{created.PlayerID}
	for _, name := range names[1:] {
		resp := call(t, ts, http.MethodPost, "/api/rooms/"+created.RoomID+"/join", NameRequest{Name: name})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
		var joined JoinResponse
		resp.decode(t, &joined)
		assert.Equal(t, created.RoomID, joined.RoomID)
		ids = append(ids, joined.PlayerID)
	}
	return created.RoomID, ids
}

func getState(t *testing.T, ts *httptest.Server, roomID, playerID string) *game.PublicState {
	t.Helper()
	resp := call(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/state?playerId="+playerID, nil)
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var state game.PublicState
	resp.decode(t, &state)
	return &state
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)

	resp := call(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "OK", string(resp.Body))
}

func TestGameFlow(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)

	roomID, ids := setupGame(t, ts, "Alice", "Bob")
	host, guest := ids[0], ids[1]

	lobby := getState(t, ts, roomID, guest)
	assert.Equal(t, game.StageLobby, lobby.Stage)
	assert.Len(t, lobby.Players, 2)

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", PlayerRequest{PlayerID: host})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var ok OKResponse
	resp.decode(t, &ok)
	assert.True(t, ok.OK)

	resp = call(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/state?playerId="+host, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	var state game.PublicState
	resp.decode(t, &state)
	assert.Equal(t, game.StagePlaying, state.Stage)
	assert.Len(t, state.Hand, game.HandSize)
	assert.Equal(t, host, state.CurrentPlayerID)
	require.NotNil(t, state.DiscardTop)
	assert.NotContains(t, string(resp.Body), `"drawPile"`)

	// The host draws; the turn passes to the guest.
	resp = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/draw", PlayerRequest{PlayerID: host})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	state = *getState(t, ts, roomID, guest)
	assert.Equal(t, guest, state.CurrentPlayerID)
	assert.Equal(t, game.ActionDraw, state.LastAction.Type)

	// The guest plays a legal card if they have one.
	if playable := state.Playable(); len(playable) > 0 {
		card := playable[0]
		req := PlayRequest{PlayerID: guest, CardID: card.ID}
		if card.IsWild() {
			req.ChosenColor = "green"
		}
		resp = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/play", req)
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
		after := getState(t, ts, roomID, guest)
		assert.Len(t, after.Hand, len(state.Hand)-1)
	}
}

func TestRoomCodesAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	roomID, _ := setupGame(t, ts, "Alice")

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+strings.ToUpper(roomID)+"/join", NameRequest{Name: "Bob"})
	assert.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
}

func TestErrorResponses(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	roomID, ids := setupGame(t, ts, "Alice", "Bob")
	host, guest := ids[0], ids[1]

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   game.Code
	}{
		{"create without name", http.MethodPost, "/api/rooms", NameRequest{Name: "  "}, http.StatusBadRequest, game.CodeValidation},
		{"create with bad json", http.MethodPost, "/api/rooms", "{", http.StatusBadRequest, game.CodeValidation},
		{"create with wrong types", http.MethodPost, "/api/rooms", `{"name": 7}`, http.StatusBadRequest, game.CodeValidation},
		{"join unknown room", http.MethodPost, "/api/rooms/zzzzzz/join", NameRequest{Name: "Eve"}, http.StatusNotFound, game.CodeNotFound},
		{"join malformed room", http.MethodPost, "/api/rooms/no!/join", NameRequest{Name: "Eve"}, http.StatusNotFound, game.CodeNotFound},
		{"start by guest", http.MethodPost, "/api/rooms/" + roomID + "/start", PlayerRequest{PlayerID: guest}, http.StatusBadRequest, game.CodeUnauthorized},
		{"start without player", http.MethodPost, "/api/rooms/" + roomID + "/start", PlayerRequest{}, http.StatusBadRequest, game.CodeValidation},
		{"draw before start", http.MethodPost, "/api/rooms/" + roomID + "/draw", PlayerRequest{PlayerID: host}, http.StatusBadRequest, game.CodeInvalidState},
		{"uno before start", http.MethodPost, "/api/rooms/" + roomID + "/uno", PlayerRequest{PlayerID: host}, http.StatusBadRequest, game.CodeInvalidState},
		{"play without card", http.MethodPost, "/api/rooms/" + roomID + "/play", PlayRequest{PlayerID: host}, http.StatusBadRequest, game.CodeValidation},
		{"state without player", http.MethodGet, "/api/rooms/" + roomID + "/state", nil, http.StatusBadRequest, game.CodeValidation},
		{"state for stranger", http.MethodGet, "/api/rooms/" + roomID + "/state?playerId=mallory", nil, http.StatusBadRequest, game.CodeNotFound},
		{"state for unknown room", http.MethodGet, "/api/rooms/zzzzzz/state?playerId=" + host, nil, http.StatusNotFound, game.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, ts, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, resp.Status, string(resp.Body))
			body := resp.errorBody(t)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPlayOutOfTurn(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	roomID, ids := setupGame(t, ts, "Alice", "Bob")

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", PlayerRequest{PlayerID: ids[0]})
	require.Equal(t, http.StatusOK, resp.Status)

	guest := getState(t, ts, roomID, ids[1])
	resp = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/play", PlayRequest{PlayerID: ids[1], CardID: guest.Hand[0].ID})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, game.CodeNotYourTurn, resp.errorBody(t).Code)

	resp = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", NameRequest{Name: "Late"})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, game.CodeInvalidState, resp.errorBody(t).Code)
}

func TestRoomFull(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t, WithMaxPlayers(2))
	roomID, _ := setupGame(t, ts, "Alice", "Bob")

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", NameRequest{Name: "Carol"})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	body := resp.errorBody(t)
	assert.Equal(t, game.CodeInvalidState, body.Code)
	assert.Equal(t, "room is full", body.Error)
}

func TestStartRejectsOversizedRoom(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	names := make([]string, game.MaxPlayers+1)
	for i := range names {
		names[i] = fmt.Sprintf("Player %d", i+1)
	}
	roomID, ids := setupGame(t, ts, names...)

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", PlayerRequest{PlayerID: ids[0]})
	require.Equal(t, http.StatusBadRequest, resp.Status, string(resp.Body))
	assert.Equal(t, game.CodeInvalidState, resp.errorBody(t).Code)

	state := getState(t, ts, roomID, ids[0])
	assert.Equal(t, game.StageLobby, state.Stage)
	assert.Len(t, state.Players, game.MaxPlayers+1)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)

	resp := call(t, ts, http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	status, body := statusFor(fmt.Errorf("update: %w", game.ErrInvariant))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Error)
	assert.Empty(t, body.Code)

	status, body = statusFor(errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Error)

	status, body = statusFor(game.NewError(game.CodeIllegalPlay, "nope"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errorResponse{Error: "nope", Code: game.CodeIllegalPlay}, body)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)

	const id = "6f1c2a1e-5d0b-4c7b-9b43-0d7c8d2f1a11"
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(requestIDHeader))

	req.Header.Set(requestIDHeader, "not-a-uuid")
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(requestIDHeader))
}

func wsURL(ts *httptest.Server, roomID, playerID string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/rooms/" + roomID + "/ws?playerId=" + playerID
}

func readState(t *testing.T, conn *websocket.Conn) *game.PublicState {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var state game.PublicState
	require.NoError(t, conn.ReadJSON(&state))
	return &state
}

func TestWatchPushesState(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	roomID, ids := setupGame(t, ts, "Alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, roomID, ids[0]), nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readState(t, conn)
	assert.Equal(t, ids[0], initial.ViewerID)
	assert.Len(t, initial.Players, 1)

	resp := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", NameRequest{Name: "Bob"})
	require.Equal(t, http.StatusOK, resp.Status)

	updated := readState(t, conn)
	assert.Len(t, updated.Players, 2)

	resp = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", PlayerRequest{PlayerID: ids[0]})
	require.Equal(t, http.StatusOK, resp.Status)

	started := readState(t, conn)
	assert.Equal(t, game.StagePlaying, started.Stage)
	assert.Len(t, started.Hand, game.HandSize)
}

func TestWatchClosesWhenRoomDeleted(t *testing.T) {
	t.Parallel()
	s, rooms := NewTestServer(t, 9)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.CloseAll()
		ts.Close()
	})
	roomID, ids := setupGame(t, ts, "Alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, roomID, ids[0]), nil)
	require.NoError(t, err)
	defer conn.Close()
	readState(t, conn)

	require.NoError(t, rooms.Delete(context.Background(), roomID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}

func TestWatchRejectsBeforeUpgrade(t *testing.T) {
	t.Parallel()
	ts := newHTTPServer(t)
	roomID, _ := setupGame(t, ts, "Alice")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, roomID, "mallory"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(ts, "zzzzzz", "mallory"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	s, _ := NewTestServer(t, 8)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
