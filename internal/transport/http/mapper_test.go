package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/proto"
)

func TestInboundToCommandValidation(t *testing.T) {
	tests := []struct {
		name     string
		msgType  string
		data     string
		wantKind core.CommandKind
		wantErr  bool
	}{
		{"chat message", proto.InboundTypeChatMessage, `{"message":"hi"}`, core.CommandSendGlobalMessage, false},
		{"chat message empty", proto.InboundTypeChatMessage, `{"message":""}`, 0, true},
		{"chat message malformed", proto.InboundTypeChatMessage, `"nope"`, 0, true},
		{"private message", proto.InboundTypePrivateMessage, `{"receiver":"bob","message":"hi"}`, core.CommandSendPrivateMessage, false},
		{"private message file only", proto.InboundTypePrivateMessage, `{"receiver":"bob","messageType":"file","fileData":{"fileId":"x"}}`, core.CommandSendPrivateMessage, false},
		{"private message no receiver", proto.InboundTypePrivateMessage, `{"message":"hi"}`, 0, true},
		{"private message empty", proto.InboundTypePrivateMessage, `{"receiver":"bob"}`, 0, true},
		{"call offer", proto.InboundTypeCallOffer, `{"to":"bob","callId":"c1","offer":{"sdp":"x"}}`, core.CommandSendSignal, false},
		{"call offer no offer", proto.InboundTypeCallOffer, `{"to":"bob","callId":"c1"}`, 0, true},
		{"call answer", proto.InboundTypeCallAnswer, `{"to":"alice","callId":"c1","answer":{"sdp":"y"}}`, core.CommandSendSignal, false},
		{"ice candidate", proto.InboundTypeICECandidate, `{"to":"bob","callId":"c1","candidate":{"candidate":"z"}}`, core.CommandSendSignal, false},
		{"end call", proto.InboundTypeEndCall, `{"to":"bob","callId":"c1"}`, core.CommandSendSignal, false},
		{"end call no target", proto.InboundTypeEndCall, `{"callId":"c1"}`, 0, true},
		{"screen share start", proto.InboundTypeScreenShareStart, `{"to":"bob","callId":"c1"}`, core.CommandSendSignal, false},
		{"online users", proto.InboundTypeOnlineUsers, ``, core.CommandListOnlineUsers, false},
		{"ping", proto.InboundTypePing, ``, core.CommandPing, false},
		{"unknown type", "teleport", `{}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr := inboundToCommand(proto.Inbound{Type: tt.msgType, Data: json.RawMessage(tt.data)})
			if tt.wantErr {
				if protoErr == nil {
					t.Fatalf("expected error, got command %+v", cmd)
				}
				if protoErr.Code != core.ErrCodeBadRequest {
					t.Errorf("error code = %q, want %q", protoErr.Code, core.ErrCodeBadRequest)
				}
				return
			}
			if protoErr != nil {
				t.Fatalf("unexpected error: %+v", protoErr)
			}
			if cmd.Kind != tt.wantKind {
				t.Errorf("kind = %d, want %d", cmd.Kind, tt.wantKind)
			}
		})
	}
}

func TestInboundToCommandSignalKinds(t *testing.T) {
	tests := []struct {
		msgType string
		want    core.SignalKind
	}{
		{proto.InboundTypeEndCall, core.SignalEndCall},
		{proto.InboundTypeScreenShareStart, core.SignalScreenShareStart},
		{proto.InboundTypeScreenShareEnd, core.SignalScreenShareEnd},
	}
	for _, tt := range tests {
		cmd, protoErr := inboundToCommand(proto.Inbound{
			Type: tt.msgType,
			Data: json.RawMessage(`{"to":"bob","callId":"c1"}`),
		})
		if protoErr != nil {
			t.Fatalf("%s: unexpected error %+v", tt.msgType, protoErr)
		}
		if cmd.Signal.Kind != tt.want {
			t.Errorf("%s: signal kind = %d, want %d", tt.msgType, cmd.Signal.Kind, tt.want)
		}
	}
}

func TestOutboundFromEventWireShape(t *testing.T) {
	sent := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	out := outboundFromEvent(&core.Event{
		Kind: core.EventGlobalMessage,
		Message: core.Message{
			ID:          7,
			Sender:      "alice",
			Text:        "hello",
			DisplayTime: "15:09:26",
			SentAt:      sent,
		},
	})

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal outbound: %v", err)
	}

	var decoded struct {
		Type  string `json:"type"`
		Event string `json:"event"`
		Data  struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
			TS        int64  `json:"ts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal wire form: %v", err)
	}

	if decoded.Type != proto.OutboundTypeEvent || decoded.Event != proto.EventChatMessage {
		t.Errorf("envelope = %s/%s", decoded.Type, decoded.Event)
	}
	if decoded.Data.Username != "alice" || decoded.Data.Message != "hello" {
		t.Errorf("data = %+v", decoded.Data)
	}
	if decoded.Data.TS != sent.UnixMilli() {
		t.Errorf("ts = %d, want %d", decoded.Data.TS, sent.UnixMilli())
	}
}

func TestOutboundFromEventSignalCarriesFrom(t *testing.T) {
	payload := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	out := outboundFromEvent(&core.Event{
		Kind: core.EventCallAnswered,
		Signal: core.Signal{
			Kind:    core.SignalAnswer,
			From:    "bob",
			To:      "alice",
			CallID:  "c1",
			Payload: payload,
		},
	})

	data, ok := out.Data.(proto.EventCallAnsweredData)
	if !ok {
		t.Fatalf("data type = %T", out.Data)
	}
	if data.From != "bob" || data.CallID != "c1" {
		t.Errorf("data = %+v", data)
	}
	if string(data.Answer) != string(payload) {
		t.Errorf("answer = %s", data.Answer)
	}
}

func TestOutboundFromEventError(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: core.ErrCodeNotIdentified, Message: "send hello first"},
	})
	if out.Type != proto.OutboundTypeError {
		t.Fatalf("type = %q", out.Type)
	}
	if out.Error == nil || out.Error.Code != core.ErrCodeNotIdentified {
		t.Errorf("error = %+v", out.Error)
	}
}
