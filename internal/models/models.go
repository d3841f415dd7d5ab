// Package models provides domain models for the trading robot.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
)

// SignalAction represents the direction of a trading signal.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "SL"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductMIS  ProductType = "MIS"  // Intraday
	ProductCNC  ProductType = "CNC"  // Delivery
	ProductNRML ProductType = "NRML" // F&O Normal
)

// OrderStatus represents the state of a placed order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderComplete  OrderStatus = "COMPLETE"
	OrderRejected  OrderStatus = "REJECTED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Tick represents real-time market data.
type Tick struct {
	Symbol    string
	LTP       float64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Timestamp time.Time
}

// Quote represents a market quote.
type Quote struct {
	Symbol        string
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	AvgVolume     int64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// MACDValue holds the components of a MACD reading.
type MACDValue struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// BollingerBands holds a Bollinger band reading.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// MovingAverages holds the moving averages consumed by the generators.
type MovingAverages struct {
	Short float64 // fast MA, e.g. 9-period
	Long  float64 // slow MA, e.g. 21-period
}

// TechnicalSnapshot is a point-in-time view of the indicators for a symbol.
// It is produced by a TechnicalProvider and consumed within a single tick.
type TechnicalSnapshot struct {
	Symbol         string
	RSI            float64
	MACD           MACDValue
	MovingAverages MovingAverages
	Bollinger      BollingerBands
	ATR            float64
	Timestamp      time.Time
}
