package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/auth"
	"github.com/vovakirdan/lobbychat/internal/config"
	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
	"github.com/vovakirdan/lobbychat/internal/store/sqlite"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 20 * time.Millisecond
)

type testEnv struct {
	ts   *httptest.Server
	hub  *core.Hub
	auth *auth.Service
	cfg  config.Config

	closeStore func() error
}

// newTestEnv starts a full server over an in-memory database.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = "test-secret-change-me"
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	hub := core.NewHub(core.Options{
		Users:        st,
		Log:          core.NewStoreLog(st),
		Logger:       &logger,
		MaxBodyRunes: cfg.MaxBodyRunes,
	})

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}, hub)

	ts := httptest.NewServer(NewHandler(hub, authService, &cfg, &logger))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService, cfg: cfg, closeStore: st.Close}
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func hello(t *testing.T, ctx context.Context, conn *websocket.Conn, token string) {
	t.Helper()
	send(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
}

// readEvent skips frames until an event named name arrives and decodes its data into out.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string, out any) {
	t.Helper()
	for {
		var frame rawOutbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", name, err)
		}
		if frame.Type != proto.OutboundTypeEvent || frame.Event != name {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(frame.Data, out); err != nil {
				t.Fatalf("decode %s: %v", name, err)
			}
		}
		return
	}
}

// readError skips frames until an error frame arrives.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()
	for {
		var frame rawOutbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for error: %v", err)
		}
		if frame.Type == proto.OutboundTypeError {
			return frame.Error
		}
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
