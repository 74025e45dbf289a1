package constant

import "time"

// Defaults used when the matching dispatch.* key is missing from env.yaml.
const (
	DefaultAcceptWindow   = 1 * time.Hour
	DefaultTravelHours    = 1.0
	DefaultWeeklyCapHours = 40
	DefaultDailyCapHours  = 10
	DefaultDayEndHour     = 21

	DiscountLookback = 30 * 24 * time.Hour
	BookingHorizon   = 90 * 24 * time.Hour

	FirstSlotMinutes = 9 * 60
	LastSlotMinutes  = 18 * 60
)
