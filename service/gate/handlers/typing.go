package handlers

import (
	"PPresence/service/gate"
	"PPresence/tools/decode"
	errs "PPresence/tools/errs"
)

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

// TypingHandler relays a typing indicator to the receiver when connected.
// Fire-and-forget, nothing recorded.
type TypingHandler struct{}

func NewTypingHandler() gate.Handler { return &TypingHandler{} }

func (h *TypingHandler) Event() string { return gate.EventTyping }

func (h *TypingHandler) Handle(ctx *gate.Context, f *gate.Frame, c *gate.Client) error {
	p, err := decode.Map[TypingPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.ReceiverID == "" {
		return errs.ErrValidation.WithDetail("receiverId is required")
	}
	if rc, ok := ctx.S.Registry().Lookup(p.ReceiverID); ok {
		_ = rc.SendEnvelope(gate.BuildUserTyping(c.User(), p.IsTyping))
	}
	return nil
}
