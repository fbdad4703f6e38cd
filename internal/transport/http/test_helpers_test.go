package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/auth"
	"github.com/beamchat/server/internal/config"
	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/proto"
	"github.com/beamchat/server/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	auth *auth.Service
	st   *sqlite.SQLiteStore
	hub  *core.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	jwtCfg := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "beamchat",
		Audience: "beamchat",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtCfg)

	logger := zerolog.Nop()
	hub := core.NewHub(st, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.HistoryLimit = 50
	cfg.MessageRateLimit = 0

	srv := NewServer(hub, authService, st, &cfg, &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, auth: authService, st: st, hub: hub}
}

// registerUser creates an account directly through the auth service and
// returns its session token.
func registerUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	token, err := env.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func doJSON(t *testing.T, env *testEnv, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := stdhttp.NewRequest(method, env.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp.StatusCode, data
}

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendInbound(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		raw = encoded
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// outboundFrame mirrors the wire envelope with the payload kept raw so
// tests can decode it into the expected shape.
type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// waitForEvent reads frames until one matches the wanted event name.
// Presence chatter arriving in between is skipped.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string) outboundFrame {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for event %q: %v", event, err)
		}
		if frame.Type == proto.OutboundTypeEvent && frame.Event == event {
			return frame
		}
	}
}

// waitForError reads frames until an error envelope arrives.
func waitForError(t *testing.T, conn *websocket.Conn) *proto.Error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for error frame: %v", err)
		}
		if frame.Type == proto.OutboundTypeError && frame.Error != nil {
			return frame.Error
		}
	}
}

// identify completes the hello exchange and waits until the hub
// acknowledges with the presence snapshot.
func identify(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()
	sendInbound(t, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
	waitForEvent(t, conn, proto.EventOnlineUsers)
}
