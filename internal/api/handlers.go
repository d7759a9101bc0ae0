package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleDailyStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.DailyStats())
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Positions())
}

// handleTrades lists trades, optionally filtered by ?symbol= and truncated
// to the latest ?limit= entries.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	trades := make([]types.Trade, 0)

	for _, trade := range s.store.Trades() {
		if symbol == "" || trade.Symbol == symbol {
			trades = append(trades, trade)
		}
	}

	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	writeJSON(w, http.StatusOK, trades)
}

// handleOrders lists orders, optionally filtered by ?symbol= and ?status=.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := strings.ToUpper(query.Get("symbol"))
	status := types.OrderStatus(strings.ToUpper(query.Get("status")))

	if status != "" && !status.IsValid() {
		s.writeError(w, errors.Newf(errors.ErrCodeInvalidInput, "unknown order status %q", query.Get("status")))

		return
	}

	orders := make([]types.Order, 0)

	for _, o := range s.engine.Orders() {
		if symbol != "" && o.Symbol != symbol {
			continue
		}

		if status != "" && o.Status != status {
			continue
		}

		orders = append(orders, o)
	}

	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handlePrices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Prices())
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	tick, ok := s.store.Price(symbol)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    errors.ErrCodeInvalidInput,
			Message: "no price for " + symbol,
		})

		return
	}

	writeJSON(w, http.StatusOK, tick)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Start(r.Context()); err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Stop(r.Context()); err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, s.engine.Status())
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidInput, "invalid limit %q", raw)
	}

	return limit, nil
}

// statusFor maps an error code to the HTTP status returned for it.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfiguration, errors.ErrCodeInvalidMode:
		return http.StatusBadRequest
	case errors.ErrCodeEngineAlreadyRunning, errors.ErrCodeEngineNotRunning:
		return http.StatusConflict
	case errors.ErrCodeExchangeAuth, errors.ErrCodeExchangeUnavailable, errors.ErrCodeExchangeNetwork,
		errors.ErrCodeExchangeRateLimited:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
