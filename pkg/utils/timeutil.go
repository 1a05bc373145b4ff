package utils

import (
	"time"
)

// ICT is the Indochina Time location (UTC+7).
var ICT *time.Location

func init() {
	var err error
	ICT, err = time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		ICT = time.FixedZone("ICT", 7*60*60)
	}
}

// NowICT returns the current time in ICT.
func NowICT() time.Time {
	return time.Now().In(ICT)
}

// ToICT converts a time.Time to ICT.
func ToICT(t time.Time) time.Time {
	return t.In(ICT)
}

// MarketOpenTime returns the HOSE opening time (9:00 AM ICT) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ICT)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, ICT)
}

// MarketCloseTime returns the HOSE closing time (2:45 PM ICT, end of the
// ATC auction) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ICT)
	return time.Date(d.Year(), d.Month(), d.Day(), 14, 45, 0, 0, ICT)
}

// LunchBreakStart returns the start of the midday break (11:30 AM ICT).
func LunchBreakStart(date time.Time) time.Time {
	d := date.In(ICT)
	return time.Date(d.Year(), d.Month(), d.Day(), 11, 30, 0, 0, ICT)
}

// LunchBreakEnd returns the end of the midday break (1:00 PM ICT).
func LunchBreakEnd(date time.Time) time.Time {
	d := date.In(ICT)
	return time.Date(d.Year(), d.Month(), d.Day(), 13, 0, 0, 0, ICT)
}

// IsMarketOpen checks if HOSE is currently in a trading session.
func IsMarketOpen() bool {
	return IsMarketOpenAt(NowICT())
}

// IsMarketOpenAt checks if HOSE would be trading at the given time.
// The midday break counts as closed.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(ICT)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if IsTradingHoliday(t) {
		return false
	}

	open := MarketOpenTime(t)
	close := MarketCloseTime(t)
	if t.Before(open) || t.After(close) {
		return false
	}

	// Midday break: 11:30 - 13:00
	if !t.Before(LunchBreakStart(t)) && t.Before(LunchBreakEnd(t)) {
		return false
	}
	return true
}

// NextTradingDay returns the next trading day from the given date.
// If the given date is a trading day, it returns the next one.
func NextTradingDay(from time.Time) time.Time {
	next := from.In(ICT).AddDate(0, 0, 1)
	for !IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PrevTradingDay returns the previous trading day from the given date.
func PrevTradingDay(from time.Time) time.Time {
	prev := from.In(ICT).AddDate(0, 0, -1)
	for !IsTradingDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// IsTradingDay checks if the given date is a trading day (not weekend, not holiday).
func IsTradingDay(t time.Time) bool {
	t = t.In(ICT)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// TradingDaysBetween returns the number of trading days between two dates (exclusive of end).
func TradingDaysBetween(start, end time.Time) int {
	start = start.In(ICT)
	end = end.In(ICT)
	count := 0
	current := start
	for current.Before(end) {
		if IsTradingDay(current) {
			count++
		}
		current = current.AddDate(0, 0, 1)
	}
	return count
}

// IsTradingHoliday checks if the given date is a Vietnamese exchange holiday.
// This list should be updated annually.
func IsTradingHoliday(t time.Time) bool {
	t = t.In(ICT)
	dateStr := t.Format("2006-01-02")

	_, isHoliday := vnHolidays2026[dateStr]
	return isHoliday
}

// Vietnamese exchange holidays for 2026 (update annually).
// Tết spans five sessions; observed days follow the state holiday calendar.
var vnHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-02-16": "Tết (Lunar New Year)",
	"2026-02-17": "Tết (Lunar New Year)",
	"2026-02-18": "Tết (Lunar New Year)",
	"2026-02-19": "Tết (Lunar New Year)",
	"2026-02-20": "Tết (Lunar New Year)",
	"2026-04-27": "Hùng Kings' Festival (observed)",
	"2026-04-30": "Reunification Day",
	"2026-05-01": "International Labour Day",
	"2026-09-02": "National Day",
	"2026-09-03": "National Day (observed)",
}

// GetTradingHolidays returns all exchange holidays for the current year.
func GetTradingHolidays() map[string]string {
	return vnHolidays2026
}

// ParseDateICT parses a date string in "2006-01-02" format and returns it in ICT.
func ParseDateICT(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, ICT)
}

// FormatDateICT formats a time.Time to "2006-01-02" in ICT.
func FormatDateICT(t time.Time) string {
	return t.In(ICT).Format("2006-01-02")
}

// FormatDateTimeICT formats a time.Time to "2006-01-02 15:04:05 ICT".
func FormatDateTimeICT(t time.Time) string {
	return t.In(ICT).Format("2006-01-02 15:04:05 ICT")
}

// MarketStatus returns the current market status string.
func MarketStatus() string {
	return MarketStatusAt(NowICT())
}

// MarketStatusAt returns the market status string for the given time.
func MarketStatusAt(now time.Time) string {
	now = now.In(ICT)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if IsTradingHoliday(now) {
		holiday := vnHolidays2026[now.Format("2006-01-02")]
		return "CLOSED (" + holiday + ")"
	}

	open := MarketOpenTime(now)
	close := MarketCloseTime(now)

	switch {
	case now.Before(open):
		return "PRE-MARKET"
	case !now.Before(LunchBreakStart(now)) && now.Before(LunchBreakEnd(now)):
		return "LUNCH BREAK"
	case !now.After(close):
		return "OPEN"
	default:
		return "CLOSED"
	}
}
