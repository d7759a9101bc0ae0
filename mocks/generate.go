package mocks

//go:generate mockgen -destination=./mock_exchange_gateway.go -package=mocks github.com/econicmedia/bot-sub001/internal/trading/provider ExchangeGateway
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/econicmedia/bot-sub001/internal/strategy Strategy,StructureAnalyzer
//go:generate mockgen -destination=./mock_trading_engine.go -package=mocks github.com/econicmedia/bot-sub001/internal/trading/engine TradingEngine
