package core

import (
	"testing"
	"time"
)

func TestMonthYear_Next(t *testing.T) {
	tests := []struct {
		name string
		in   MonthYear
		want MonthYear
	}{
		{"mid-year", MonthYear{time.March, 2024}, MonthYear{time.April, 2024}},
		{"december rolls the year", MonthYear{time.December, 2024}, MonthYear{time.January, 2025}},
		{"january", MonthYear{time.January, 2024}, MonthYear{time.February, 2024}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Next(); got != tt.want {
				t.Fatalf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDate_MonthYear(t *testing.T) {
	d := NewDate(2024, time.January, 15)
	want := MonthYear{Month: time.January, Year: 2024}
	if got := d.MonthYear(); got != want {
		t.Fatalf("MonthYear() = %v, want %v", got, want)
	}
}

func TestDate_RoundTrip(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("String() = %q", d.String())
	}

	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var back Date
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}
}

func TestDateFromTime_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	d := DateFromTime(time.Date(2024, time.June, 1, 0, 30, 0, 0, loc))
	// 00:30 CET is 23:30 UTC of the previous day.
	if d.String() != "2024-05-31" {
		t.Fatalf("got %s", d)
	}
}
