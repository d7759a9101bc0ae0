package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// handlePriceStream upgrades to a websocket and pushes every price tick as a
// JSON object. Ticks are dropped for clients that cannot keep up.
func (s *Server) handlePriceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	ticks, cancel := s.store.SubscribePrices(DefaultPriceBuffer)
	defer cancel()

	// The read loop handles pongs and detects a closed client.
	closed := make(chan struct{})

	_ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Current prices first, so a new client does not wait for the next candle.
	for _, tick := range s.store.Prices() {
		if err := s.writeTick(conn, tick); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case tick, ok := <-ticks:
			if !ok {
				return
			}

			if err := s.writeTick(conn, tick); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeTick(conn *websocket.Conn, tick types.PriceTick) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}

	if err := conn.WriteJSON(tick); err != nil {
		s.logger.Debug("Price stream closed", zap.Error(err))

		return err
	}

	return nil
}
