package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/lobbychat/internal/auth"
	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
	"github.com/vovakirdan/lobbychat/internal/utils"
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// WSOptions tunes per-connection limits.
type WSOptions struct {
	AllowedOrigins     []string
	MaxMessageBytes    int64
	SendBuffer         int
	RateLimitPerMinute int
}

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub    *core.Hub
	tokens TokenValidator
	opts   WSOptions
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, tokens TokenValidator, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	l := logger.With().Str("component", "ws").Logger()
	return &WSHandler{hub: hub, tokens: tokens, opts: opts, log: &l}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	ws, err := websocket.Accept(w, r, acceptOptions(h.opts.AllowedOrigins))
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer ws.CloseNow()
	if h.opts.MaxMessageBytes > 0 {
		ws.SetReadLimit(h.opts.MaxMessageBytes)
	}

	conn := core.NewConn(utils.NewID(), h.opts.SendBuffer)
	h.hub.Connect(conn)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, ws, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, ws, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "connection closed"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("ws connection closed with error")
		}
	}

	h.hub.Disconnect(conn, reason)
	ws.Close(status, truncateReason(reason))
}

func (h *WSHandler) readLoop(ctx context.Context, ws *websocket.Conn, conn *core.Conn) error {
	limiter := newRateLimiter(h.opts.RateLimitPerMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, ws, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", conn.ID).Msg("read ws inbound")
			return err
		}

		out := h.dispatch(ctx, conn, inbound, limiter)
		if out == nil {
			continue
		}
		if err := wsjson.Write(ctx, ws, out); err != nil {
			return err
		}
	}
}

// dispatch hands one inbound frame to the hub. Transport-level rejections
// come back as an outbound error; hub errors reach the client as events.
func (h *WSHandler) dispatch(ctx context.Context, conn *core.Conn, inbound proto.Inbound, limiter *rateLimiter) *proto.Outbound {
	logger := h.log.With().Str("conn_id", conn.ID).Str("type", inbound.Type).Logger()

	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if err := json.Unmarshal(inbound.Data, &hello); err != nil {
			return lo.ToPtr(protoError(proto.ErrCodeBadRequest, "malformed hello"))
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return lo.ToPtr(protoError(proto.ErrCodeUnsupportedVersion, "unsupported protocol version"))
		}
		claims, err := h.tokens.ValidateToken(hello.Token)
		if err != nil {
			logger.Debug().Err(err).Msg("hello rejected")
			return lo.ToPtr(protoError(proto.ErrCodeUnauthorized, "invalid token"))
		}
		if err := h.hub.Handshake(ctx, conn, claims.Username); err != nil {
			logger.Debug().Err(err).Str("user", claims.Username).Msg("handshake failed")
		}
		return nil

	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return lo.ToPtr(protoError(proto.ErrCodeBadRequest, "malformed msg"))
		}
		if !limiter.allow() {
			return lo.ToPtr(protoError(proto.ErrCodeRateLimited, "slow down"))
		}
		if _, err := h.hub.Send(ctx, conn, msg.To, msg.Text); err != nil {
			logger.Debug().Err(err).Msg("send failed")
		}
		return nil

	case proto.InboundTypeHistory:
		var req proto.HistoryData
		if err := json.Unmarshal(inbound.Data, &req); err != nil {
			return lo.ToPtr(protoError(proto.ErrCodeBadRequest, "malformed history request"))
		}
		if err := h.hub.RequestHistory(ctx, conn, req.With, req.Fill); err != nil {
			logger.Debug().Err(err).Msg("history failed")
		}
		return nil

	default:
		return lo.ToPtr(protoError(proto.ErrCodeUnknownType, "unknown message type"))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, ws *websocket.Conn, conn *core.Conn) error {
	for {
		select {
		case event := <-conn.Events():
			if err := wsjson.Write(ctx, ws, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
				return err
			}
		case <-conn.Done():
			// closed by the hub, e.g. after a sweep
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || lo.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	patterns := lo.Map(origins, func(origin string, _ int) string {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			return u.Host
		}
		return origin
	})
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// truncateReason keeps close reasons within the 123 bytes a close frame allows.
func truncateReason(reason string) string {
	const maxReason = 120
	if len(reason) <= maxReason {
		return reason
	}
	return strings.ToValidUTF8(reason[:maxReason], "")
}
