package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"NepsePulse/internal/domain/models"
	applogger "NepsePulse/pkg/logger"
)

const writeWait = 10 * time.Second

// LiveStream hands out live feed subscriptions.
type LiveStream interface {
	SubscribeLive() (<-chan models.LiveResult, func())
}

// LiveHandler streams live market updates over a websocket. Each
// connection holds one subscription; the background poller runs only
// while connections exist.
type LiveHandler struct {
	logger   *applogger.Logger
	stream   LiveStream
	upgrader websocket.Upgrader
}

func NewLiveHandler(logger *applogger.Logger, stream LiveStream) *LiveHandler {
	return &LiveHandler{
		logger: logger,
		stream: stream,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/live", h.Live)
}

func (h *LiveHandler) Live(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	updates, cancel := h.stream.SubscribeLive()
	defer cancel()

	h.logger.Info("live stream connected", applogger.String("remote", conn.RemoteAddr().String()))

	// Read pump: the client sends nothing meaningful, reads only
	// surface the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case res, ok := <-updates:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				h.logger.Debug("live stream write failed", applogger.Error(err))
				return nil
			}
		}
	}
}
