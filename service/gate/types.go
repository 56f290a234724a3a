package gate

// Handler processes one inbound event type.
type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, c *Client) error
}

type Context struct {
	S *Server
}
