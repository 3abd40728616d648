package ws

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"NepsePulse/internal/domain/models"
	applogger "NepsePulse/pkg/logger"
)

type stubStream struct {
	ch        chan models.LiveResult
	cancelled int32
}

func (s *stubStream) SubscribeLive() (<-chan models.LiveResult, func()) {
	return s.ch, func() { atomic.StoreInt32(&s.cancelled, 1) }
}

func TestLiveStreamDeliversUpdates(t *testing.T) {
	stream := &stubStream{ch: make(chan models.LiveResult, 1)}
	e := echo.New()
	NewLiveHandler(applogger.Nop(), stream).RegisterRoutes(e)

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stream.ch <- models.LiveResult{Ticks: []models.MarketTick{{Symbol: "NABIL", LastPrice: 512.5}}}

	var res models.LiveResult
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(res.Ticks) != 1 || res.Ticks[0].Symbol != "NABIL" {
		t.Errorf("result = %+v", res)
	}
}

func TestLiveStreamUnsubscribesOnClose(t *testing.T) {
	stream := &stubStream{ch: make(chan models.LiveResult)}
	e := echo.New()
	NewLiveHandler(applogger.Nop(), stream).RegisterRoutes(e)

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&stream.cancelled) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription not cancelled after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
