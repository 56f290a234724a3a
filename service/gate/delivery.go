package gate

import (
	"context"
	"time"

	"PPresence/logger"
	"PPresence/tools/safe"
)

// Outcome classifies how a message reaches its receiver.
type Outcome string

const (
	LiveOnly      Outcome = "live_only"       // mutual active session, push suppressed
	LiveAndNotify Outcome = "live_and_notify" // connected but not foregrounded
	NotifyOnly    Outcome = "notify_only"     // offline, push only
)

// Notifier is the boundary to the notification dispatcher. Implementations
// must be best-effort and non-blocking from the caller's perspective.
type Notifier interface {
	Notify(ctx context.Context, targetUser, title, body string, meta map[string]string)
}

const notifyTimeout = 10 * time.Second

// DeliveryEngine decides, per message, between live push, background
// notification, or both, from the registry and session tracker state at
// the instant the message is processed.
type DeliveryEngine struct {
	reg      *Registry
	sessions *SessionTracker
	notifier Notifier
}

func NewDeliveryEngine(reg *Registry, sessions *SessionTracker, notifier Notifier) *DeliveryEngine {
	return &DeliveryEngine{reg: reg, sessions: sessions, notifier: notifier}
}

// Classify evaluates the delivery decision table in order, first match
// wins. A mutual active session always wins: both parties are verified to
// be looking at the conversation, a push would be redundant noise. Mere
// presence (socket open) only proves connectivity, so a connected receiver
// still gets a notification alongside the live event.
func (e *DeliveryEngine) Classify(sender, receiver string) Outcome {
	if e.sessions.IsActiveBetween(sender, receiver) {
		return LiveOnly
	}
	if e.reg.IsConnected(receiver) {
		return LiveAndNotify
	}
	return NotifyOnly
}

// Deliver routes one message and returns the final outcome, degraded to
// NotifyOnly when the live emit failed. The caller acks the sender with
// the returned classification.
func (e *DeliveryEngine) Deliver(ctx context.Context, msg OutboundMessage) Outcome {
	outcome := e.Classify(msg.SenderID, msg.ReceiverID)

	if e.receiverBusyElsewhere(msg.SenderID, msg.ReceiverID) {
		// Informational only: a receiver active in another conversation
		// still gets live + notify per the decision table.
		logger.Debug("[delivery] receiver busy in another conversation")
	}

	if outcome != NotifyOnly {
		if err := e.emitLive(msg, outcome); err != nil {
			// Registry said connected but the handle did not take the
			// write. Surface the inconsistency, then fall back as if the
			// receiver were offline. No retry.
			logger.Warnf("[delivery] live emit failed, degrading to notify-only msg=%s receiver=%s: %v",
				msg.ID, msg.ReceiverID, err)
			outcome = NotifyOnly
		}
	}

	if outcome != LiveOnly {
		e.notifyAsync(msg)
	}
	return outcome
}

func (e *DeliveryEngine) emitLive(msg OutboundMessage, outcome Outcome) error {
	c, ok := e.reg.Lookup(msg.ReceiverID)
	if !ok {
		return ErrClientClosed
	}
	return c.SendEnvelope(BuildNewMessage(msg, outcome == LiveOnly))
}

func (e *DeliveryEngine) notifyAsync(msg OutboundMessage) {
	if e.notifier == nil {
		return
	}
	body := msg.Body
	if len(body) > 120 {
		body = body[:120]
	}
	meta := map[string]string{
		"type":      "chat_message",
		"messageId": msg.ID,
		"senderId":  msg.SenderID,
	}
	target := msg.ReceiverID
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		e.notifier.Notify(ctx, target, "New message", body, meta)
	})
}

func (e *DeliveryEngine) receiverBusyElsewhere(sender, receiver string) bool {
	for _, pa := range e.sessions.ActiveSessionsFor(receiver) {
		if pa.Peer != sender {
			return true
		}
	}
	return false
}
