package gate

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound event names (client -> server).
const (
	EventJoin        = "join"
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
)

// Outbound event names (server -> client).
const (
	EventJoined           = "joined"
	EventChatJoined       = "chat_joined"
	EventChatLeft         = "chat_left"
	EventNewMessage       = "new_message"
	EventMessageSent      = "message_sent"
	EventUserTyping       = "user_typing"
	EventUserDisconnected = "user_disconnected"
	EventDashboardUpdate  = "dashboard_update"
	EventError            = "error"
)

// Frame is the inbound envelope. Data stays untyped here; handlers decode
// it into their own payload structs.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event name")
	}
	return f, nil
}

// Envelope is the outbound counterpart.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func EncodeEnvelope(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// OutboundMessage is a message already durably written by the external
// store, handed over purely for delivery.
type OutboundMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
	CreatedAt  int64  `json:"createdAt"` // unix millis
}

type NewMessageData struct {
	OutboundMessage
	// IsActiveChat tells the client the conversation is foregrounded on
	// both sides; ShowNotification is its inverse so the client can raise
	// a local banner without re-deriving the rule.
	IsActiveChat     bool `json:"isActiveChat"`
	ShowNotification bool `json:"showNotification"`
}

type MessageSentData struct {
	MessageID      string `json:"messageId"`
	ReceiverID     string `json:"receiverId"`
	Classification string `json:"classification"`
	CreatedAt      int64  `json:"createdAt"`
}

// ---- outbound event builders ----

func BuildJoined(userID string) *Envelope {
	return &Envelope{Event: EventJoined, Data: map[string]any{
		"userId": userID,
		"ts":     time.Now().UnixMilli(),
	}}
}

func BuildChatJoined(userA, userB string) *Envelope {
	return &Envelope{Event: EventChatJoined, Data: map[string]any{
		"userA": userA,
		"userB": userB,
	}}
}

func BuildChatLeft(userA, userB string) *Envelope {
	return &Envelope{Event: EventChatLeft, Data: map[string]any{
		"userA": userA,
		"userB": userB,
	}}
}

func BuildNewMessage(msg OutboundMessage, isActiveChat bool) *Envelope {
	return &Envelope{Event: EventNewMessage, Data: NewMessageData{
		OutboundMessage:  msg,
		IsActiveChat:     isActiveChat,
		ShowNotification: !isActiveChat,
	}}
}

func BuildMessageSent(msg OutboundMessage, outcome Outcome) *Envelope {
	return &Envelope{Event: EventMessageSent, Data: MessageSentData{
		MessageID:      msg.ID,
		ReceiverID:     msg.ReceiverID,
		Classification: string(outcome),
		CreatedAt:      msg.CreatedAt,
	}}
}

func BuildUserTyping(fromUser string, isTyping bool) *Envelope {
	return &Envelope{Event: EventUserTyping, Data: map[string]any{
		"userId":   fromUser,
		"isTyping": isTyping,
	}}
}

func BuildUserDisconnected(userID string) *Envelope {
	return &Envelope{Event: EventUserDisconnected, Data: map[string]any{
		"userId": userID,
		"ts":     time.Now().UnixMilli(),
	}}
}

func BuildDashboardUpdate(updateType string, payload any) *Envelope {
	return &Envelope{Event: EventDashboardUpdate, Data: map[string]any{
		"updateType": updateType,
		"payload":    payload,
		"ts":         time.Now().UnixMilli(),
	}}
}

// BuildError carries a human-readable message. The connection stays open;
// errors are events, never close frames.
func BuildError(msg string) *Envelope {
	return &Envelope{Event: EventError, Data: map[string]any{
		"message": msg,
	}}
}
