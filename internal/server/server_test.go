package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/threadlink/internal/sessionid"
	"github.com/lox/threadlink/rng"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewServer("127.0.0.1:0", rng.NewSession(42), rng.NewRoot(7), rng.NewRegistry(), testLogger(), opts...)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req DrawRequest) DrawResponse {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp DrawResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, srv.SessionID(), health.Session)
	assert.NoError(t, sessionid.Validate(health.Session))
}

func TestDraw(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		req   DrawRequest
		check func(t *testing.T, resp DrawResponse)
	}{
		{
			name: "range golden",
			req:  DrawRequest{ID: "a", Domain: "combat", Op: OpRange, Min: 0, Max: 100, Count: 3},
			check: func(t *testing.T, resp DrawResponse) {
				assert.Equal(t, []int{80, 62, 12}, resp.Ints)
				assert.Equal(t, uint64(3), resp.Counter)
				assert.Equal(t, "a", resp.ID)
			},
		},
		{
			name: "counter seeks",
			req:  DrawRequest{Domain: "combat", Op: OpRange, Min: 0, Max: 100, Count: 2, Counter: 1},
			check: func(t *testing.T, resp DrawResponse) {
				assert.Equal(t, []int{62, 12}, resp.Ints)
				assert.Equal(t, uint64(3), resp.Counter)
			},
		},
		{
			name: "raw next",
			req:  DrawRequest{Domain: "combat", Op: OpNext, Count: 2},
			check: func(t *testing.T, resp DrawResponse) {
				assert.Equal(t, []uint64{0xc2a6eebdf3976ad0, 0xa759ea27d4727622}, resp.Values)
			},
		},
		{
			name: "count defaults to one",
			req:  DrawRequest{Domain: "loot", Op: OpBool},
			check: func(t *testing.T, resp DrawResponse) {
				assert.Len(t, resp.Bools, 1)
				assert.Equal(t, uint64(1), resp.Counter)
			},
		},
		{
			name: "floats in unit interval",
			req:  DrawRequest{Domain: "animation", Context: []uint64{9}, Op: OpFloat, Count: 50},
			check: func(t *testing.T, resp DrawResponse) {
				require.Len(t, resp.Floats, 50)
				for _, f := range resp.Floats {
					assert.GreaterOrEqual(t, f, 0.0)
					assert.Less(t, f, 1.0)
				}
			},
		},
		{
			name: "index",
			req:  DrawRequest{Domain: "loot", Op: OpIndex, Max: 6, Count: 20},
			check: func(t *testing.T, resp DrawResponse) {
				require.Len(t, resp.Ints, 20)
				for _, v := range resp.Ints {
					assert.GreaterOrEqual(t, v, 0)
					assert.Less(t, v, 6)
				}
			},
		},
		{
			name: "key",
			req:  DrawRequest{Op: OpKey, Context: []uint64{1, 2, 3, 4}},
			check: func(t *testing.T, resp DrawResponse) {
				assert.Equal(t, []uint64{0xe1190779}, resp.Values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.Draw(tt.req)
			require.Empty(t, resp.Error)
			tt.check(t, resp)
		})
	}
}

func TestDrawErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		req  DrawRequest
		want string
	}{
		{"inverted range", DrawRequest{Domain: "combat", Op: OpRange, Min: 10, Max: 10}, "invalid range"},
		{"zero index", DrawRequest{Domain: "combat", Op: OpIndex}, "invalid count"},
		{"negative count", DrawRequest{Domain: "combat", Op: OpNext, Count: -1}, "invalid count"},
		{"unknown domain", DrawRequest{Domain: "weather", Op: OpNext}, "unknown domain"},
		{"unknown op", DrawRequest{Domain: "combat", Op: "gauss"}, "unknown op"},
		{"key too long", DrawRequest{Op: OpKey, Context: []uint64{1, 2, 3, 4, 5}}, "1 to 4"},
		{"key overflow", DrawRequest{Op: OpKey, Context: []uint64{1 << 32}}, "overflows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.Draw(tt.req)
			assert.Contains(t, resp.Error, tt.want)
			assert.Empty(t, resp.Values)
			assert.Empty(t, resp.Ints)
		})
	}
}

func TestDrawCountCapped(t *testing.T) {
	srv := newTestServer(t, WithMaxDraws(10))

	resp := srv.Draw(DrawRequest{Domain: "combat", Op: OpNext, Count: 1000})
	require.Empty(t, resp.Error)
	assert.Len(t, resp.Values, 10)
	assert.Equal(t, uint64(10), resp.Counter)
}

func TestDrawMatchesLocalReplay(t *testing.T) {
	srv := newTestServer(t)
	local := rng.NewSession(42).SourceFrom(rng.Loot, rng.Of(3, 14))

	resp := srv.Draw(DrawRequest{Domain: "loot", Context: []uint64{3, 14}, Op: OpNext, Count: 5})
	require.Empty(t, resp.Error)
	for i, v := range resp.Values {
		assert.Equal(t, local.Next(), v, "draw %d", i)
	}
}

func TestWebSocketDraws(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)

	resp := roundTrip(t, conn, DrawRequest{ID: "1", Domain: "combat", Op: OpRange, Min: 0, Max: 100, Count: 3})
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, []int{80, 62, 12}, resp.Ints)

	resp = roundTrip(t, conn, DrawRequest{ID: "2", Domain: "combat", Op: OpRange, Min: 5, Max: 1})
	assert.Equal(t, "2", resp.ID)
	assert.Contains(t, resp.Error, "invalid range")

	// the connection must survive a bad request
	resp = roundTrip(t, conn, DrawRequest{ID: "3", Domain: "combat", Op: OpNext})
	assert.Empty(t, resp.Error)
	assert.Len(t, resp.Values, 1)

	assert.Equal(t, 1, srv.ConnectionCount())
	assert.Equal(t, uint64(4), srv.draws.Load())
}

func TestWebSocketInvalidJSON(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var resp DrawResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "invalid request")
}

func TestWebSocketDisconnect(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	roundTrip(t, conn, DrawRequest{Domain: "combat", Op: OpNext})
	require.Equal(t, 1, srv.ConnectionCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return srv.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesConnections(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	roundTrip(t, conn, DrawRequest{Domain: "combat", Op: OpNext})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, srv.ConnectionCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestSendAfterClose(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := dial(t, ts)
	roundTrip(t, client, DrawRequest{Domain: "combat", Op: OpNext})

	srv.mu.RLock()
	var conn *Connection
	for c := range srv.connections {
		conn = c
	}
	srv.mu.RUnlock()
	require.NotNil(t, conn)

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.NotPanics(t, func() {
		assert.ErrorIs(t, conn.Send(&DrawResponse{ID: "late"}), ErrConnectionClosed)
	})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestStartAfterShutdown(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Start())
}

func TestSessionIDDeterministicWithMockClock(t *testing.T) {
	a := newTestServer(t)
	b := newTestServer(t)
	assert.Len(t, a.SessionID(), sessionid.Length)
	// the random part comes from crypto/rand, so only the time prefix matches
	assert.Equal(t, a.SessionID()[:10], b.SessionID()[:10])
}
