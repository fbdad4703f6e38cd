package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/auth"
	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/proto"
	"github.com/beamchat/server/internal/utils"
)

// WSHandler upgrades HTTP connections to websocket and bridges them to
// the hub. Each connection gets a read loop and a write loop; identity
// is bound only after a hello carrying a valid session token.
type WSHandler struct {
	hub       *core.Hub
	auth      *auth.Service
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, rateLimit int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		auth:      authService,
		rateLimit: rateLimit,
		log:       logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser clients connect from the app's own origin in production;
		// the desktop shell sends no origin header at all.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	client := core.NewClient(utils.NewID())
	h.hub.RegisterClient(client)
	defer func() {
		h.hub.UnregisterClient(client)
		close(client.Commands)
	}()

	h.log.Debug().Str("client_id", client.ID).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- h.readLoop(ctx, conn, client) }()
	go func() { errCh <- h.writeLoop(ctx, conn, client) }()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.log.Debug().Str("client_id", client.ID).Msg("websocket closed")
	case errors.Is(err, context.Canceled):
		h.log.Debug().Str("client_id", client.ID).Msg("websocket context cancelled")
	case err != nil:
		h.log.Debug().Err(err).Str("client_id", client.ID).Msg("websocket terminated")
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop consumes inbound frames until the connection breaks. Bad
// payloads produce an error response, never a disconnect.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)
	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return err
		}

		if !limiter.allow(time.Now()) {
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		if in.Type == proto.InboundTypeHello {
			if protoErr := h.handleHello(client, in.Data); protoErr != nil {
				if err := writeError(ctx, conn, protoErr); err != nil {
					return err
				}
			}
			continue
		}

		cmd, protoErr := inboundToCommand(in)
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// writeLoop pushes hub events to the wire.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case ev := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(ev)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleHello verifies the session token and binds the identity from
// its claims. The client never chooses its own routing name.
func (h *WSHandler) handleHello(client *core.Client, data json.RawMessage) *proto.Error {
	var hello proto.HelloData
	if err := json.Unmarshal(data, &hello); err != nil {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed hello payload"}
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
	}
	claims, err := h.auth.ValidateToken(hello.Token)
	if err != nil {
		return &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
	}
	h.hub.IdentifyClient(client, claims.Username)
	return nil
}

func writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
}
