package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"krida.io/dealdesk/internal/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventsStream handles GET /events/stream: a server-sent-events feed of one
// deal's events, or of every deal when dealId is absent. The stream stays
// open until the client disconnects; idle periods carry keepalive events.
func (s *Server) EventsStream(c *gin.Context) {
	sub := s.broker.Subscribe(c.Query("dealId"))
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			// Client gone or subscription closed; either way the stream ends.
			return
		}

		frame := "event: " + string(ev.Type) + "\n"
		if ev.Data != nil {
			data, err := json.Marshal(ev.Data)
			if err != nil {
				logger.Warn("Dropping unencodable event",
					zap.String("event", string(ev.Type)), zap.Error(err))
				continue
			}
			frame += "data: " + string(data) + "\n"
		}
		if _, err := c.Writer.WriteString(frame + "\n"); err != nil {
			return
		}
		c.Writer.Flush()
	}
}
