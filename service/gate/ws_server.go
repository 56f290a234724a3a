package gate

import (
	"net"
	"net/http"

	"PPresence/logger"
	errs "PPresence/tools/errs"
	"PPresence/tools/ids"
	"PPresence/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxFrameBytes = 64 << 10

// HandleWS upgrades the request and runs the connection's read loop.
// Events from the same connection are processed in arrival order by this
// single goroutine; writes go through the client's writer pump.
func (s *Server) HandleWS(c *gin.Context) {
	up := websocket.Upgrader{
		ReadBufferSize:  s.conf.ReadBufferSize,
		WriteBufferSize: s.conf.WriteBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	ws, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	ws.SetReadLimit(maxFrameBytes)
	client := NewClient(ids.GenerateString(), ws, s.conf.SendQueueSize)
	safe.Go(client.WritePump)
	logger.Infof("[ws] connected conn=%s remote=%s", client.ConnID, ws.RemoteAddr())

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", client.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			_ = client.SendEnvelope(BuildError("malformed event"))
			continue
		}

		// Everything except join requires an authenticated connection.
		if client.User() == "" && frame.Event != EventJoin {
			_ = client.SendEnvelope(BuildError("join required before " + frame.Event))
			continue
		}

		if err := s.DispatchFrame(frame, client); err != nil {
			// Validation and auth failures surface as error events; the
			// connection stays open so the client can retry.
			logger.Infof("[ws] handle event=%s conn=%s: %v", frame.Event, client.ConnID, err)
			_ = client.SendEnvelope(BuildError(errs.UserMessage(err)))
		}
	}

	s.OnDisconnect(client.ConnID)
	client.Close()
}
