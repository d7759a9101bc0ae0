package prefetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/logger"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// maxFetch is the largest history request a gateway serves in one call.
const maxFetch = 1000

// PrefetchManager loads closed historical candles so symbol windows start
// warm, and backfills candles missed between warm-up and the first streamed
// candle.
type PrefetchManager struct {
	gateway   tradingprovider.ExchangeGateway
	timeframe types.Timeframe
	interval  time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

// NewPrefetchManager creates a PrefetchManager. Each gateway call is bounded by timeout.
func NewPrefetchManager(
	gateway tradingprovider.ExchangeGateway,
	timeframe types.Timeframe,
	timeout time.Duration,
	log *logger.Logger,
) (*PrefetchManager, error) {
	interval, err := timeframe.Duration()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &PrefetchManager{
		gateway:   gateway,
		timeframe: timeframe,
		interval:  interval,
		timeout:   timeout,
		logger:    log,
	}, nil
}

// Warmup fetches the latest count closed candles of symbol, oldest first.
func (p *PrefetchManager) Warmup(ctx context.Context, symbol string, count int) ([]types.Candle, error) {
	if count <= 0 {
		return nil, nil
	}

	if count > maxFetch {
		count = maxFetch
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	candles, err := p.gateway.FetchCandles(callCtx, symbol, p.timeframe, count)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to warm up %s", symbol)
	}

	return increasing(candles), nil
}

// ExecutePrefetch warms up every symbol. A symbol that fails starts with an
// empty window; the failure is logged and the other symbols continue.
func (p *PrefetchManager) ExecutePrefetch(ctx context.Context, symbols []string, count int) map[string][]types.Candle {
	p.logger.Info("Starting historical data prefetch",
		zap.Strings("symbols", symbols),
		zap.String("timeframe", string(p.timeframe)),
		zap.Int("count", count),
	)

	windows := make(map[string][]types.Candle, len(symbols))

	for _, symbol := range symbols {
		candles, err := p.Warmup(ctx, symbol, count)
		if err != nil {
			p.logger.Warn("Failed to prefetch data for symbol",
				zap.String("symbol", symbol),
				zap.Error(err),
			)

			continue
		}

		windows[symbol] = candles
	}

	p.logger.Info("Prefetch completed", zap.Int("symbols", len(windows)))

	return windows
}

// DetectGap returns how much time is missing between the last stored candle
// and the first streamed candle. Adjacent candles return 0.
func (p *PrefetchManager) DetectGap(lastStored, firstStream time.Time) time.Duration {
	if lastStored.IsZero() {
		return 0
	}

	gap := firstStream.Sub(lastStored)
	if gap <= p.interval {
		return 0
	}

	p.logger.Info("Gap detected",
		zap.Time("last_stored", lastStored),
		zap.Time("first_stream", firstStream),
		zap.Duration("gap", gap),
	)

	return gap
}

// FillGap fetches the candles strictly between from and to.
func (p *PrefetchManager) FillGap(ctx context.Context, symbol string, from, to time.Time) ([]types.Candle, error) {
	// The gateway serves the latest candles, so also count those closed
	// since the first streamed one.
	missing := int(to.Sub(from) / p.interval)
	if elapsed := time.Since(to); elapsed > 0 {
		missing += int(elapsed / p.interval)
	}

	p.logger.Info("Filling gap",
		zap.String("symbol", symbol),
		zap.Time("from", from),
		zap.Time("to", to),
	)

	candles, err := p.Warmup(ctx, symbol, missing)
	if err != nil {
		return nil, err
	}

	filled := make([]types.Candle, 0, len(candles))

	for _, candle := range candles {
		if candle.Timestamp.After(from) && candle.Timestamp.Before(to) {
			filled = append(filled, candle)
		}
	}

	return filled, nil
}

// HandleStreamStart returns the candles missed between lastStored and the
// first streamed candle. Failures are logged and yield no candles.
func (p *PrefetchManager) HandleStreamStart(ctx context.Context, symbol string, lastStored, firstStream time.Time) []types.Candle {
	if p.DetectGap(lastStored, firstStream) == 0 {
		return nil
	}

	candles, err := p.FillGap(ctx, symbol, lastStored, firstStream)
	if err != nil {
		p.logger.Warn("Failed to fill gap",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return nil
	}

	p.logger.Info("Gap filled successfully",
		zap.String("symbol", symbol),
		zap.Int("candles", len(candles)),
	)

	return candles
}

// increasing drops candles that do not advance the timestamp.
func increasing(candles []types.Candle) []types.Candle {
	out := make([]types.Candle, 0, len(candles))

	for _, candle := range candles {
		if len(out) > 0 && !candle.Timestamp.After(out[len(out)-1].Timestamp) {
			continue
		}

		out = append(out, candle)
	}

	return out
}
