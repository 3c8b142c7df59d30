package types

type PositionSide string

type PositionStatus string

type CloseReason string

type Pool string

type Category string

type Business string

const (
	PositionSideBuy  PositionSide = "buy"
	PositionSideSell PositionSide = "sell"
)

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

const (
	CloseReasonStopLoss   CloseReason = "SL"
	CloseReasonTakeProfit CloseReason = "TP"
	CloseReasonStopOut    CloseReason = "STOP_OUT"
	CloseReasonUser       CloseReason = "USER"
)

const (
	PoolTrading   Pool = "trading"
	PoolChallenge Pool = "challenge"
)

const (
	CategoryForex       Category = "Forex"
	CategoryMetals      Category = "Metals"
	CategoryCommodities Category = "Commodities"
	CategoryCrypto      Category = "Crypto"
)

const (
	BusinessCrypto Business = "crypto"
	BusinessCommon Business = "common"
)
