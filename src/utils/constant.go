package utils

import "math"

// MSE session parameters. Trading runs Monday to Friday in Skopje local time.
const (
	MSETimezone  = "Europe/Skopje"
	MSEMic       = "xmae"
	MSEOpenHour  = 9
	MSECloseHour = 16

	// Peak window used by the refresher, inside the session.
	PeakStartHour = 10
	PeakEndHour   = 14
)

// -----------------------------------------------------------------------------

// CalculateMaxDataPoints returns how many history points one symbol
// accumulates over days sessions when refreshed every intervalSeconds.
func CalculateMaxDataPoints(days, intervalSeconds int) int {
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}
	perDay := float64((MSECloseHour-MSEOpenHour)*3600) / float64(intervalSeconds)
	return int(math.Ceil(float64(days) * perDay))
}
