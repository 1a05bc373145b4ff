package utils

import "testing"

func TestFormatVND(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0 ₫"},
		{100, "100 ₫"},
		{1000, "1.000 ₫"},
		{62300, "62.300 ₫"},
		{123456, "123.456 ₫"},
		{1234567, "1.234.567 ₫"},
		{1234567890, "1.234.567.890 ₫"},
		{62300.4, "62.300 ₫"},
		{62300.6, "62.301 ₫"},
		{-1234, "-1.234 ₫"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatVND(tt.input)
			if result != tt.expected {
				t.Errorf("FormatVND(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatVNDCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "500 ₫"},
		{62300, "62,3 nghìn ₫"},
		{2300000, "2,3 triệu ₫"},
		{9500000000, "9,5 tỷ ₫"},
		{1500000000000, "1,5 nghìn tỷ ₫"},
		{-9500000000, "-9,5 tỷ ₫"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatVNDCompact(tt.input)
			if result != tt.expected {
				t.Errorf("FormatVNDCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestBillionsConversion(t *testing.T) {
	if got := ToBillions(9500000000); got != 9.5 {
		t.Errorf("ToBillions(9500000000) = %f, want 9.5", got)
	}
	if got := FromBillions(9.5); got != 9500000000 {
		t.Errorf("FromBillions(9.5) = %f, want 9500000000", got)
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{-1.23, "-1.23%"},
		{0.0, "+0.00%"},
		{15.0, "+15.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatPct(tt.input); got != tt.expected {
				t.Errorf("FormatPct(%f) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{500, "500"},
		{25000, "25 nghìn"},
		{1500000, "1,5 triệu"},
		{2500000000, "2,5 tỷ"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatVolume(tt.input); got != tt.expected {
				t.Errorf("FormatVolume(%d) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
