package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/crystaldolphin/cronkeeper/internal/config"
	"github.com/crystaldolphin/cronkeeper/internal/crontab"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// eventData is the payload of one listing event.
func eventData(e crontab.ScheduleEntry) string {
	return fmt.Sprintf("%s %s (managed=%t)", e.Schedule, e.Command, e.Managed)
}

func (s *Server) streamEntries(c echo.Context, entries []crontab.ScheduleEntry) error {
	switch s.opts.Transport {
	case config.TransportEventStream:
		return streamEvents(c, entries)
	case config.TransportWebSocket:
		return s.streamWebSocket(c, entries)
	default:
		return streamText(c, entries)
	}
}

func streamText(c echo.Context, entries []crontab.ScheduleEntry) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	w.WriteHeader(http.StatusOK)

	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\n", e.ToLine()); err != nil {
			return nil
		}
		w.Flush()
	}
	return nil
}

func streamEvents(c echo.Context, entries []crontab.ScheduleEntry) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := fmt.Fprintf(w, "event: schedule\ndata: %s\n\n", eventData(e)); err != nil {
			return nil
		}
		w.Flush()
	}
	return nil
}

func (s *Server) streamWebSocket(c echo.Context, entries []crontab.ScheduleEntry) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.log.Warn("http: websocket upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	for _, e := range entries {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(eventData(e))); err != nil {
			s.log.Warn("http: websocket write failed", "err", err)
			return nil
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return nil
}
