package textutil

import (
	"testing"
	"time"

	"github.com/ts4z/homegame/paytable"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "$0.00"},
		{20, "$20.00"},
		{1234.5, "$1,234.50"},
		{-20, "-$20.00"},
		{0.01, "$0.01"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.input); got != tt.expected {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatWhole(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "$0"},
		{1650, "$1,650"},
		{-35, "-$35"},
	}
	for _, tt := range tests {
		if got := FormatWhole(tt.input); got != tt.expected {
			t.Errorf("FormatWhole(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNames(t *testing.T) {
	if got := CleanName("  Big   Slick \t"); got != "Big Slick" {
		t.Errorf("CleanName = %q", got)
	}
	if !SameName("big slick", " Big  SLICK") {
		t.Errorf("SameName should ignore case and spacing")
	}
	if SameName("Alice", "Alicia") {
		t.Errorf("SameName(Alice, Alicia) should be false")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"1:30", 90 * time.Second, false},
		{"1:00:05", time.Hour + 5*time.Second, false},
		{"-2:00", -2 * time.Minute, false},
		{"90", 0, true},
		{"a:10", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0:00"},
		{90 * time.Second, "1:30"},
		{20 * time.Minute, "20:00"},
		{time.Hour + 2*time.Minute + 5*time.Second, "1:02:05"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.input); got != tt.expected {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseSplit(t *testing.T) {
	tests := []struct {
		input    string
		expected paytable.Split
		wantErr  bool
	}{
		{"60/25/15", paytable.Split{First: 60, Second: 25, Third: 15}, false},
		{" 65 / 35 ", paytable.Split{First: 65, Second: 35}, false},
		{"100", paytable.Split{First: 100}, false},
		{"50/30/10", paytable.Split{First: 50, Second: 30, Third: 10}, false},
		{"50/30/10/10", paytable.Split{}, true},
		{"abc", paytable.Split{}, true},
		{"110/-10", paytable.Split{First: 110, Second: -10}, false},
		{"50//50", paytable.Split{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSplit(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSplit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseSplit(%q) = %+v, want %+v", tt.input, got, tt.expected)
		}
	}
}

func TestFormatPlace(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 112: "112th"}
	for place, expected := range tests {
		if got := FormatPlace(place); got != expected {
			t.Errorf("FormatPlace(%d) = %q, want %q", place, got, expected)
		}
	}
}
