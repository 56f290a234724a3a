// Package dashboard relays producer-originated "dashboard changed"
// events into the live fan-out. This core never originates dashboard
// content, it only wakes clients up.
package dashboard

import (
	"encoding/json"
	"net/http"

	"PPresence/logger"

	"github.com/gin-gonic/gin"
)

// Broadcaster is the fan-out surface consumed by ingest paths.
type Broadcaster interface {
	BroadcastAll(updateType string, payload any)
	SendToUser(userID, updateType string, payload any) bool
}

// Update is the producer-facing shape. UserID targets one user; empty
// means broadcast to everyone.
type Update struct {
	Type    string         `json:"type"`
	UserID  string         `json:"userId,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

func relay(b Broadcaster, u Update) bool {
	if u.UserID != "" {
		return b.SendToUser(u.UserID, u.Type, u.Payload)
	}
	b.BroadcastAll(u.Type, u.Payload)
	return true
}

// IngestHandler accepts dashboard updates over REST, for producers
// without a broker connection.
func IngestHandler(b Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var u Update
		if err := json.NewDecoder(c.Request.Body).Decode(&u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update body"})
			return
		}
		if u.Type == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
			return
		}
		delivered := relay(b, u)
		logger.Infof("[dashboard] ingest type=%s user=%q delivered=%v", u.Type, u.UserID, delivered)
		c.JSON(http.StatusOK, gin.H{"ok": true, "delivered": delivered})
	}
}
