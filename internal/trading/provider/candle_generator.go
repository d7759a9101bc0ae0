package tradingprovider

import (
	"math"
	"math/rand"
	"time"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// CandleGenerator produces synthetic OHLCV bars following a geometric
// Brownian motion. It is not safe for concurrent use.
type CandleGenerator struct {
	rng        *rand.Rand
	volatility float64
	drift      float64
	volumeBase float64
}

// NewCandleGenerator creates a generator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewCandleGenerator(seed int64, volatility, drift float64) *CandleGenerator {
	return &CandleGenerator{
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // simulated prices only
		volatility: volatility,
		drift:      drift,
		volumeBase: 100,
	}
}

// Next generates the bar that opens at ts at price open.
func (g *CandleGenerator) Next(symbol string, timeframe types.Timeframe, ts time.Time, open float64) types.Candle {
	// Box-Muller transform for a standard normal draw
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()
	z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

	closePrice := open * (1 + g.volatility*z + g.drift)
	if closePrice <= 0 {
		closePrice = open * 0.99
	}

	highExtension := math.Abs(g.rng.Float64() * g.volatility * open * 0.5)
	lowExtension := math.Abs(g.rng.Float64() * g.volatility * open * 0.5)

	high := math.Max(open, closePrice) + highExtension

	low := math.Min(open, closePrice) - lowExtension
	if low <= 0 {
		low = math.Min(open, closePrice) * 0.99
	}

	volume := g.volumeBase * (0.7 + g.rng.Float64()*0.6)

	return types.Candle{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: ts,
		Open:      roundToDecimals(open, 4),
		High:      roundToDecimals(high, 4),
		Low:       roundToDecimals(low, 4),
		Close:     roundToDecimals(closePrice, 4),
		Volume:    roundToDecimals(volume, 2),
	}
}

// Series generates count consecutive bars starting at start.
func (g *CandleGenerator) Series(symbol string, timeframe types.Timeframe, start time.Time, interval time.Duration, open float64, count int) []types.Candle {
	candles := make([]types.Candle, 0, count)
	price := open
	ts := start

	for range count {
		candle := g.Next(symbol, timeframe, ts, price)
		candles = append(candles, candle)
		price = candle.Close
		ts = ts.Add(interval)
	}

	return candles
}

func roundToDecimals(value float64, decimals int) float64 {
	multiplier := math.Pow10(decimals)

	return math.Round(value*multiplier) / multiplier
}
