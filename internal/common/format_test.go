package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestShortAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0xc34abfb1daabca88ec6af4bab642aa80f2aa489b", "0xc34a…489b"},
		{"0x1234", "0x1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortAddress(tt.in); got != tt.want {
			t.Errorf("ShortAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEtherAndTime(t *testing.T) {
	if got := FormatEther(decimal.RequireFromString("0.01")); got != "0.0100 ETH" {
		t.Errorf("FormatEther = %q", got)
	}
	if got := FormatTime(nil); got != "-" {
		t.Errorf("FormatTime(nil) = %q", got)
	}
	ts := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	if got := FormatTime(&ts); got != "2025-03-14 12:00:00 UTC" {
		t.Errorf("FormatTime = %q", got)
	}
}
