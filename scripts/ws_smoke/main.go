package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/beamchat/server/internal/proto"
)

// Smoke client: authenticates over websocket with an existing token and
// sends one global chat message, printing everything the server pushes
// back until the timeout runs out.
func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		log.Fatal("a -token from /api/login or /api/register is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(msgType string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("marshal %s: %v", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); err != nil {
			log.Fatalf("send %s: %v", msgType, err)
		}
	}

	mustSend(proto.InboundTypeHello, proto.HelloData{Token: *token, Protocol: proto.ProtocolVersion})
	mustSend(proto.InboundTypeChatMessage, proto.ChatMessageData{Message: *text})

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			fmt.Printf("connection done: %v\n", err)
			return
		}

		switch {
		case outbound.Error != nil:
			fmt.Printf("error: code=%s msg=%s\n", outbound.Error.Code, outbound.Error.Msg)
		case outbound.Event != "":
			fmt.Printf("event=%s data=%s\n", outbound.Event, string(outbound.Data))
		default:
			fmt.Printf("frame: type=%s\n", outbound.Type)
		}
	}
}
