package utils

import (
	"time"

	"trading-robot/internal/models"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Session boundaries in minutes since midnight IST.
const (
	minutesPreOpen = 9 * 60     // 9:00
	minutesOpen    = 9*60 + 15  // 9:15
	minutesOpening = 9*60 + 45  // 9:45
	minutesMorning = 12 * 60    // 12:00
	minutesClosing = 14*60 + 30 // 14:30
	minutesClose   = 15*60 + 30 // 15:30
)

// IsTradingDay returns true if t falls on a weekday.
func IsTradingDay(t time.Time) bool {
	wd := t.In(IndiaLocation).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsMarketOpen returns true if the market is open at t (9:15-15:30 IST,
// weekdays only).
func IsMarketOpen(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	m := minutesSinceMidnight(t)
	return m >= minutesOpen && m < minutesClose
}

// TimeOfDayAt classifies t into the intraday session window.
// Outside trading hours it returns PreOpen.
func TimeOfDayAt(t time.Time) models.TimeOfDay {
	m := minutesSinceMidnight(t)
	switch {
	case m < minutesOpen:
		return models.TimePreOpen
	case m < minutesOpening:
		return models.TimeOpening
	case m < minutesMorning:
		return models.TimeMorning
	case m < minutesClosing:
		return models.TimeAfternoon
	case m < minutesClose:
		return models.TimeClosing
	default:
		return models.TimePreOpen
	}
}

// DayTypeAt classifies the trading day. Weekly index options expire on
// Thursday; that day gets elevated gamma risk treatment downstream.
func DayTypeAt(t time.Time) models.DayType {
	if t.In(IndiaLocation).Weekday() == time.Thursday {
		return models.DayExpiry
	}
	return models.DayNormal
}

// SquareOffTimeAt returns the intraday square-off deadline on t's date.
func SquareOffTimeAt(t time.Time, hour, minute int) time.Time {
	ist := t.In(IndiaLocation)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), hour, minute, 0, 0, IndiaLocation)
}

// MarketCloseAt returns the market close time on t's date.
func MarketCloseAt(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 15, 30, 0, 0, IndiaLocation)
}

// NextMarketOpen returns the next market opening time after t.
func NextMarketOpen(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	next := time.Date(ist.Year(), ist.Month(), ist.Day(), 9, 15, 0, 0, IndiaLocation)
	if ist.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextExpiry returns the next weekly expiry (Thursday) on or after t,
// for time-to-expiry calculations.
func NextExpiry(t time.Time) time.Time {
	ist := t.In(IndiaLocation)
	d := ist
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	expiry := time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, IndiaLocation)
	if !expiry.After(ist) {
		return NextExpiry(ist.AddDate(0, 0, 1))
	}
	return expiry
}

// YearsUntil returns the year fraction between t and expiry.
func YearsUntil(t, expiry time.Time) float64 {
	return expiry.Sub(t).Hours() / (24 * 365)
}

func minutesSinceMidnight(t time.Time) int {
	ist := t.In(IndiaLocation)
	return ist.Hour()*60 + ist.Minute()
}
