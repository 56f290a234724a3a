package handlers

import (
	"PPresence/service/gate"
	"PPresence/tools/decode"
	errs "PPresence/tools/errs"
)

type ChatPayload struct {
	UserA string `json:"userA"`
	UserB string `json:"userB"`
}

func (p *ChatPayload) validate() error {
	if p.UserA == "" || p.UserB == "" {
		return errs.ErrValidation.WithDetail("userA and userB are required")
	}
	return nil
}

// JoinChatHandler marks the dyad as actively viewed.
type JoinChatHandler struct{}

func NewJoinChatHandler() gate.Handler { return &JoinChatHandler{} }

func (h *JoinChatHandler) Event() string { return gate.EventJoinChat }

func (h *JoinChatHandler) Handle(ctx *gate.Context, f *gate.Frame, c *gate.Client) error {
	p, err := decode.Map[ChatPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if err := p.validate(); err != nil {
		return err
	}
	ctx.S.Sessions().MarkActive(p.UserA, p.UserB)
	return c.SendEnvelope(gate.BuildChatJoined(p.UserA, p.UserB))
}

// LeaveChatHandler removes the dyad entry outright.
type LeaveChatHandler struct{}

func NewLeaveChatHandler() gate.Handler { return &LeaveChatHandler{} }

func (h *LeaveChatHandler) Event() string { return gate.EventLeaveChat }

func (h *LeaveChatHandler) Handle(ctx *gate.Context, f *gate.Frame, c *gate.Client) error {
	p, err := decode.Map[ChatPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if err := p.validate(); err != nil {
		return err
	}
	ctx.S.Sessions().MarkInactive(p.UserA, p.UserB)
	return c.SendEnvelope(gate.BuildChatLeft(p.UserA, p.UserB))
}
