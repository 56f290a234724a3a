package handlers

import (
	"PPresence/service/gate"
)

// RegisterAll wires every inbound event handler into the server's
// dispatcher.
func RegisterAll(s *gate.Server) {
	s.Disp().Register(NewJoinHandler())
	s.Disp().Register(NewJoinChatHandler())
	s.Disp().Register(NewLeaveChatHandler())
	s.Disp().Register(NewSendMessageHandler())
	s.Disp().Register(NewTypingHandler())
}
