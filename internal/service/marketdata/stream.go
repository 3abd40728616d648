package marketdata

import (
	"context"
	"sync"
	"time"

	"NepsePulse/internal/domain/models"
	applogger "NepsePulse/pkg/logger"
)

// SubscribeLive registers a live feed subscriber and returns its
// channel with a cancel function. The background poller runs only
// while at least one subscriber exists; cancel must be called when the
// subscriber goes away. Slow subscribers drop updates instead of
// blocking the poller.
func (s *Service) SubscribeLive() (<-chan models.LiveResult, func()) {
	ch := make(chan models.LiveResult, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	if len(s.subs) == 1 {
		s.pollStop = make(chan struct{})
		go s.pollLive(s.pollStop)
	}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			if len(s.subs) == 0 && s.pollStop != nil {
				close(s.pollStop)
				s.pollStop = nil
			}
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) pollLive(stop <-chan struct{}) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		res, err := s.Live(context.Background())
		if err != nil {
			s.logger.Warn("live poll failed", applogger.Error(err))
		} else {
			s.broadcast(res)
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// broadcast delivers a refresh to every subscriber. Channel sends and
// subscriber removal share subMu, so no send can race a close.
func (s *Service) broadcast(res models.LiveResult) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- res:
		default:
		}
	}
}
