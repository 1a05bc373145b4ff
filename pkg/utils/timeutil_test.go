package utils

import (
	"testing"
	"time"
)

func TestNowICT(t *testing.T) {
	now := NowICT()
	if now.Location().String() != "Asia/Ho_Chi_Minh" && now.Location().String() != "ICT" {
		t.Errorf("NowICT() location = %s, want Asia/Ho_Chi_Minh or ICT", now.Location().String())
	}
}

func TestMarketOpenClose(t *testing.T) {
	date := time.Date(2026, 3, 11, 12, 0, 0, 0, ICT)

	open := MarketOpenTime(date)
	if open.Hour() != 9 || open.Minute() != 0 {
		t.Errorf("MarketOpenTime = %v, want 09:00", open)
	}

	close := MarketCloseTime(date)
	if close.Hour() != 14 || close.Minute() != 45 {
		t.Errorf("MarketCloseTime = %v, want 14:45", close)
	}
}

func TestIsMarketOpenAt(t *testing.T) {
	// Wednesday at 10:00 AM ICT — should be open
	weekday := time.Date(2026, 3, 11, 10, 0, 0, 0, ICT)
	if !IsMarketOpenAt(weekday) {
		t.Error("Expected market to be open on Wednesday 10:00 AM")
	}

	// Saturday — should be closed
	saturday := time.Date(2026, 3, 14, 10, 0, 0, 0, ICT)
	if IsMarketOpenAt(saturday) {
		t.Error("Expected market to be closed on Saturday")
	}

	// Wednesday at 8:00 AM — before market open
	earlyMorning := time.Date(2026, 3, 11, 8, 0, 0, 0, ICT)
	if IsMarketOpenAt(earlyMorning) {
		t.Error("Expected market to be closed at 8:00 AM")
	}

	// Wednesday at 12:00 — midday break
	lunch := time.Date(2026, 3, 11, 12, 0, 0, 0, ICT)
	if IsMarketOpenAt(lunch) {
		t.Error("Expected market to be closed during the midday break")
	}

	// Wednesday at 4:00 PM — after market close
	afterHours := time.Date(2026, 3, 11, 16, 0, 0, 0, ICT)
	if IsMarketOpenAt(afterHours) {
		t.Error("Expected market to be closed at 4:00 PM")
	}
}

func TestIsTradingHoliday(t *testing.T) {
	// National Day 2026
	nationalDay := time.Date(2026, 9, 2, 10, 0, 0, 0, ICT)
	if !IsTradingHoliday(nationalDay) {
		t.Error("Expected National Day to be a trading holiday")
	}

	// Tết session
	tet := time.Date(2026, 2, 17, 10, 0, 0, 0, ICT)
	if !IsTradingHoliday(tet) {
		t.Error("Expected Tết to be a trading holiday")
	}

	// Ordinary Wednesday
	ordinary := time.Date(2026, 3, 11, 10, 0, 0, 0, ICT)
	if IsTradingHoliday(ordinary) {
		t.Error("Expected ordinary Wednesday not to be a holiday")
	}
}

func TestNextPrevTradingDay(t *testing.T) {
	// Friday 2026-03-13 → next trading day is Monday 2026-03-16
	friday := time.Date(2026, 3, 13, 10, 0, 0, 0, ICT)
	next := NextTradingDay(friday)
	if next.Weekday() != time.Monday || next.Day() != 16 {
		t.Errorf("NextTradingDay(Friday) = %v, want Monday 16th", next)
	}

	// Monday 2026-03-16 → previous trading day is Friday 2026-03-13
	monday := time.Date(2026, 3, 16, 10, 0, 0, 0, ICT)
	prev := PrevTradingDay(monday)
	if prev.Weekday() != time.Friday || prev.Day() != 13 {
		t.Errorf("PrevTradingDay(Monday) = %v, want Friday 13th", prev)
	}
}

func TestTradingDaysBetween(t *testing.T) {
	// Mon 2026-03-09 through Sun 2026-03-15: five trading days
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, ICT)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, ICT)
	if got := TradingDaysBetween(start, end); got != 5 {
		t.Errorf("TradingDaysBetween = %d, want 5", got)
	}
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		at       time.Time
		expected string
	}{
		{time.Date(2026, 3, 11, 10, 0, 0, 0, ICT), "OPEN"},
		{time.Date(2026, 3, 11, 12, 0, 0, 0, ICT), "LUNCH BREAK"},
		{time.Date(2026, 3, 11, 8, 0, 0, 0, ICT), "PRE-MARKET"},
		{time.Date(2026, 3, 11, 16, 0, 0, 0, ICT), "CLOSED"},
		{time.Date(2026, 3, 14, 10, 0, 0, 0, ICT), "CLOSED (Weekend)"},
	}
	for _, tt := range tests {
		if got := MarketStatusAt(tt.at); got != tt.expected {
			t.Errorf("MarketStatusAt(%v) = %q, want %q", tt.at, got, tt.expected)
		}
	}
}

func TestParseFormatDateICT(t *testing.T) {
	parsed, err := ParseDateICT("2026-03-11")
	if err != nil {
		t.Fatalf("ParseDateICT: %v", err)
	}
	if FormatDateICT(parsed) != "2026-03-11" {
		t.Errorf("round trip = %q", FormatDateICT(parsed))
	}
}
