package common

import (
	"testing"
	"time"
)

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{in: "301", want: 301, wantOK: true},
		{in: " 7 ", want: 7, wantOK: true},
		{in: "0", want: -1},
		{in: "-3", want: -1},
		{in: "abc", want: -1},
		{in: "", want: -1},
	}
	for _, tt := range tests {
		got, ok := ParsePositiveInt(tt.in, -1)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePositiveInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDate(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)

	got, err := ParseDate("2026-06-30", lisbon)
	if err != nil {
		t.Fatalf("ParseDate() error: %v", err)
	}
	if want := time.Date(2026, 6, 30, 0, 0, 0, 0, lisbon); !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}

	got, err = ParseDate("2026-06-30T10:00:00Z", lisbon)
	if err != nil || got.Hour() != 10 {
		t.Errorf("RFC3339 = %v, %v", got, err)
	}

	if got, err := ParseDate("  ", lisbon); got != nil || err != nil {
		t.Errorf("blank = %v, %v; want nil, nil", got, err)
	}
	if _, err := ParseDate("30/06/2026", lisbon); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
