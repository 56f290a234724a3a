package handlers

import (
	"context"
	"time"

	"PPresence/logger"
	"PPresence/service/gate"
	"PPresence/tools/decode"
	errs "PPresence/tools/errs"
	"PPresence/tools/ids"
)

type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
}

// SendMessageHandler runs the delivery decision for one message. The
// durable write happened upstream (write-then-notify); this only routes.
type SendMessageHandler struct{}

func NewSendMessageHandler() gate.Handler { return &SendMessageHandler{} }

func (h *SendMessageHandler) Event() string { return gate.EventSendMessage }

func (h *SendMessageHandler) Handle(ctx *gate.Context, f *gate.Frame, c *gate.Client) error {
	p, err := decode.Map[SendMessagePayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.SenderID == "" || p.ReceiverID == "" || p.Body == "" {
		return errs.ErrValidation.WithDetail("senderId, receiverId and body are required")
	}
	if u := c.User(); u != "" && u != p.SenderID {
		logger.Warnf("[message] senderId=%s differs from connection user=%s", p.SenderID, u)
	}

	msg := gate.OutboundMessage{
		ID:         ids.GenerateString(),
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Body:       p.Body,
		CreatedAt:  ctx.S.Conf().Clock().UnixMilli(),
	}

	dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome := ctx.S.Engine().Deliver(dctx, msg)

	// The sender always gets the ack with the final classification,
	// independent of the receiver-side result.
	return c.SendEnvelope(gate.BuildMessageSent(msg, outcome))
}
