package dto

const (
	Interval1Min  string = "1m"
	Interval5Min  string = "5m"
	Interval15Min string = "15m"
	Interval30Min string = "30m"
	Interval1Hour string = "1h"
	Interval4Hour string = "4h"
	Interval1Day  string = "1d"
	Interval1Week string = "1w"
)

const minutesPerDay = 1440

var timeframeMinutes = map[string]int{
	Interval1Min:  1,
	Interval5Min:  5,
	Interval15Min: 15,
	Interval30Min: 30,
	Interval1Hour: 60,
	Interval4Hour: 240,
	Interval1Day:  minutesPerDay,
	Interval1Week: 7 * minutesPerDay,
}

// TimeframeMinutes maps an interval string to its bar duration in minutes.
// Unknown intervals fall back to one day, the most conservative
// annualization for the Sharpe ratio.
func TimeframeMinutes(timeframe string) int {
	if m, ok := timeframeMinutes[timeframe]; ok {
		return m
	}
	return minutesPerDay
}
