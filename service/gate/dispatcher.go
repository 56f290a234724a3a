package gate

import (
	errs "PPresence/tools/errs"
)

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errs.ErrValidation.WithDetail("unknown event " + f.Event)
	}
	return h.Handle(ctx, f, c)
}

func (d *Dispatcher) GetHandler(event string) Handler {
	return d.handlers[event]
}
