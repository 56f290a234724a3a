// Package notify wraps the external push provider and the notification
// persistence log. Strictly best-effort: nothing here may block or fail
// the message-send path.
package notify

import (
	"context"

	"PPresence/logger"
)

type Result string

const (
	ResultSent    Result = "sent"
	ResultNoToken Result = "no_token" // no-op, not an error
	ResultFailed  Result = "failed"
)

// PushProvider is the external push service.
type PushProvider interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) (messageID string, err error)
}

// NotificationLog persists a record per dispatched notification so
// downstream read/unread tracking is possible.
type NotificationLog interface {
	Record(ctx context.Context, userID, typ, title, body, correlationID string) error
}

// TokenSource resolves a user's push-registration token. The user
// directory satisfies this.
type TokenSource interface {
	PushToken(ctx context.Context, userID string) (string, error)
}

type Dispatcher struct {
	provider PushProvider
	log      NotificationLog
	tokens   TokenSource
}

func NewDispatcher(provider PushProvider, log NotificationLog, tokens TokenSource) *Dispatcher {
	return &Dispatcher{provider: provider, log: log, tokens: tokens}
}

// Dispatch sends one notification. Every failure is caught and logged
// here; callers never see an error, only the result class.
func (d *Dispatcher) Dispatch(ctx context.Context, targetUser, title, body string, meta map[string]string) Result {
	token, err := d.tokens.PushToken(ctx, targetUser)
	if err != nil {
		logger.Warnf("[notify] token lookup user=%s: %v", targetUser, err)
		return ResultFailed
	}
	if token == "" {
		logger.Debug("[notify] no push token, skipping")
		d.record(ctx, targetUser, title, body, "")
		return ResultNoToken
	}

	msgID, err := d.provider.Send(ctx, token, title, body, meta)
	if err != nil {
		logger.Warnf("[notify] provider send user=%s: %v", targetUser, err)
		return ResultFailed
	}

	d.record(ctx, targetUser, title, body, msgID)
	return ResultSent
}

// Notify adapts Dispatch to the delivery engine's notifier boundary.
func (d *Dispatcher) Notify(ctx context.Context, targetUser, title, body string, meta map[string]string) {
	_ = d.Dispatch(ctx, targetUser, title, body, meta)
}

func (d *Dispatcher) record(ctx context.Context, userID, title, body, correlationID string) {
	if d.log == nil {
		return
	}
	if err := d.log.Record(ctx, userID, "chat_message", title, body, correlationID); err != nil {
		// Persistence failure must not surface; the push already went out.
		logger.Warnf("[notify] record user=%s corr=%s: %v", userID, correlationID, err)
	}
}
