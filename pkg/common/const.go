package common

const (
	KEY_KLINES     = "klines:%s:%s:%d:%d:%d"
	KEY_LAST_PRICE = "last_price:%s"
	KEY_SNAPSHOT   = "snapshot:%s:%s:%s"
)

const (
	SOURCE_BINANCE = "binance"
	SOURCE_CSV     = "csv"
	SOURCE_DB      = "db"
)
