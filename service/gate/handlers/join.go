package handlers

import (
	"context"
	"time"

	"PPresence/logger"
	"PPresence/service/gate"
	"PPresence/tools/decode"
	errs "PPresence/tools/errs"
	"PPresence/tools/safe"
)

const validateTimeout = 3 * time.Second

type JoinPayload struct {
	UserID    string `json:"userId"`
	AuthToken string `json:"authToken"`
}

type JoinHandler struct{}

func NewJoinHandler() gate.Handler { return &JoinHandler{} }

func (h *JoinHandler) Event() string { return gate.EventJoin }

func (h *JoinHandler) Handle(ctx *gate.Context, f *gate.Frame, c *gate.Client) error {
	p, err := decode.Map[JoinPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.UserID == "" || p.AuthToken == "" {
		return errs.ErrValidation.WithDetail("userId and authToken are required")
	}

	vctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()
	rec, err := ctx.S.Directory().Validate(vctx, p.UserID, p.AuthToken)
	if err != nil {
		// Registry untouched, socket stays open for a retry.
		return err
	}

	c.SetUser(rec.UserID)
	if evicted := ctx.S.Registry().Register(rec.UserID, c); evicted != nil {
		// Last join wins. The old transport is only logically
		// disconnected; it closes on its own lifecycle and its eventual
		// disconnect resolves to a no-op.
		logger.Infof("[join] superseded user=%s old_conn=%s new_conn=%s",
			rec.UserID, evicted.ConnID, c.ConnID)
	}

	user := rec.UserID
	safe.Go(func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer pcancel()
		if err := ctx.S.Presence().Online(pctx, user); err != nil {
			logger.Warnf("[join] presence online user=%s: %v", user, err)
		}
	})

	logger.Infof("[join] user=%s conn=%s", rec.UserID, c.ConnID)
	return c.SendEnvelope(gate.BuildJoined(rec.UserID))
}
