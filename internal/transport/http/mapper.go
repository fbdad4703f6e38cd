package http

import (
	"encoding/json"

	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/proto"
)

// inboundToCommand translates a wire message into a hub command. A
// malformed or incomplete payload yields a protocol error for the
// client instead of a command; the connection stays up either way.
func inboundToCommand(in proto.Inbound) (*core.Command, *proto.Error) {
	switch in.Type {
	case proto.InboundTypeChatMessage:
		var data proto.ChatMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed chat message payload")
		}
		if data.Message == "" {
			return nil, badRequest("message is required")
		}
		return &core.Command{
			Kind:    core.CommandSendGlobalMessage,
			Message: core.Message{Text: data.Message},
		}, nil

	case proto.InboundTypePrivateMessage:
		var data proto.PrivateMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed private message payload")
		}
		if data.Receiver == "" {
			return nil, badRequest("receiver is required")
		}
		if data.Message == "" && len(data.FileData) == 0 {
			return nil, badRequest("message is required")
		}
		return &core.Command{
			Kind: core.CommandSendPrivateMessage,
			Message: core.Message{
				Receiver:    data.Receiver,
				Text:        data.Message,
				MessageType: data.MessageType,
				FileData:    data.FileData,
			},
		}, nil

	case proto.InboundTypeCallOffer:
		var data proto.CallOfferData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed call offer payload")
		}
		if data.To == "" || data.CallID == "" || len(data.Offer) == 0 {
			return nil, badRequest("to, callId and offer are required")
		}
		return &core.Command{
			Kind: core.CommandSendSignal,
			Signal: core.Signal{
				Kind:        core.SignalOffer,
				To:          data.To,
				CallID:      data.CallID,
				IsVideoCall: data.IsVideoCall,
				Payload:     data.Offer,
			},
		}, nil

	case proto.InboundTypeCallAnswer:
		var data proto.CallAnswerData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed call answer payload")
		}
		if data.To == "" || data.CallID == "" || len(data.Answer) == 0 {
			return nil, badRequest("to, callId and answer are required")
		}
		return &core.Command{
			Kind: core.CommandSendSignal,
			Signal: core.Signal{
				Kind:    core.SignalAnswer,
				To:      data.To,
				CallID:  data.CallID,
				Payload: data.Answer,
			},
		}, nil

	case proto.InboundTypeICECandidate:
		var data proto.ICECandidateData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed ice candidate payload")
		}
		if data.To == "" || data.CallID == "" || len(data.Candidate) == 0 {
			return nil, badRequest("to, callId and candidate are required")
		}
		return &core.Command{
			Kind: core.CommandSendSignal,
			Signal: core.Signal{
				Kind:    core.SignalICECandidate,
				To:      data.To,
				CallID:  data.CallID,
				Payload: data.Candidate,
			},
		}, nil

	case proto.InboundTypeEndCall, proto.InboundTypeScreenShareStart, proto.InboundTypeScreenShareEnd:
		var data proto.CallControlData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badRequest("malformed call control payload")
		}
		if data.To == "" || data.CallID == "" {
			return nil, badRequest("to and callId are required")
		}
		return &core.Command{
			Kind: core.CommandSendSignal,
			Signal: core.Signal{
				Kind:   controlSignalKind(in.Type),
				To:     data.To,
				CallID: data.CallID,
			},
		}, nil

	case proto.InboundTypeOnlineUsers:
		return &core.Command{Kind: core.CommandListOnlineUsers}, nil

	case proto.InboundTypePing:
		return &core.Command{Kind: core.CommandPing}, nil

	default:
		return nil, badRequest("unknown message type: " + in.Type)
	}
}

func controlSignalKind(inboundType string) core.SignalKind {
	switch inboundType {
	case proto.InboundTypeEndCall:
		return core.SignalEndCall
	case proto.InboundTypeScreenShareStart:
		return core.SignalScreenShareStart
	default:
		return core.SignalScreenShareEnd
	}
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// outboundFromEvent translates a hub event into its wire representation.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventGlobalMessage:
		return eventOutbound(proto.EventChatMessage, proto.EventChatMessageData{
			ID:        ev.Message.ID,
			Username:  ev.Message.Sender,
			Message:   ev.Message.Text,
			Timestamp: ev.Message.DisplayTime,
			TS:        ev.Message.SentAt.UnixMilli(),
		})
	case core.EventPrivateMessage:
		return eventOutbound(proto.EventPrivateMessage, proto.EventPrivateMessageData{
			Sender:      ev.Message.Sender,
			Receiver:    ev.Message.Receiver,
			Message:     ev.Message.Text,
			MessageType: ev.Message.MessageType,
			FileData:    ev.Message.FileData,
			Timestamp:   ev.Message.DisplayTime,
			TS:          ev.Message.SentAt.UnixMilli(),
		})
	case core.EventIncomingCall:
		return eventOutbound(proto.EventIncomingCall, proto.EventIncomingCallData{
			From:        ev.Signal.From,
			Offer:       ev.Signal.Payload,
			IsVideoCall: ev.Signal.IsVideoCall,
			CallID:      ev.Signal.CallID,
		})
	case core.EventCallAnswered:
		return eventOutbound(proto.EventCallAnswered, proto.EventCallAnsweredData{
			From:   ev.Signal.From,
			Answer: ev.Signal.Payload,
			CallID: ev.Signal.CallID,
		})
	case core.EventICECandidate:
		return eventOutbound(proto.EventICECandidate, proto.EventICECandidateData{
			From:      ev.Signal.From,
			Candidate: ev.Signal.Payload,
			CallID:    ev.Signal.CallID,
		})
	case core.EventCallEnded:
		return eventOutbound(proto.EventCallEnded, proto.EventCallControlData{
			From:   ev.Signal.From,
			CallID: ev.Signal.CallID,
		})
	case core.EventScreenShareStarted:
		return eventOutbound(proto.EventScreenShareStarted, proto.EventCallControlData{
			From:   ev.Signal.From,
			CallID: ev.Signal.CallID,
		})
	case core.EventScreenShareEnded:
		return eventOutbound(proto.EventScreenShareEnded, proto.EventCallControlData{
			From:   ev.Signal.From,
			CallID: ev.Signal.CallID,
		})
	case core.EventUserStatusChanged:
		return eventOutbound(proto.EventUserStatusChanged, proto.EventUserStatusData{
			Username: ev.User,
			IsOnline: ev.Online,
		})
	case core.EventOnlineUsers:
		return eventOutbound(proto.EventOnlineUsers, proto.EventOnlineUsersData{
			Users: ev.Users,
		})
	case core.EventNotification:
		return eventOutbound(proto.EventSystemNotification, proto.EventNotificationData{
			ID:      ev.Notification.ID,
			Title:   ev.Notification.Title,
			Message: ev.Notification.Body,
			From:    ev.Notification.Sender,
			TS:      ev.Notification.CreatedAt.UnixMilli(),
		})
	case core.EventPong:
		return eventOutbound(proto.EventPong, nil)
	default:
		out := proto.Outbound{Type: proto.OutboundTypeError}
		if ev.Error != nil {
			out.Error = &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message}
		} else {
			out.Error = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown event"}
		}
		return out
	}
}

func eventOutbound(event string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event, Data: data}
}
