package core

import (
	"fmt"
	"time"
)

// Date is a calendar day in UTC with no time component.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateFromTime truncates t to its UTC calendar day.
func DateFromTime(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses an ISO "2006-01-02" day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date: %w", err)
	}
	return DateFromTime(t), nil
}

func (d Date) MonthYear() MonthYear {
	return MonthYear{Month: d.Time.Month(), Year: d.Time.Year()}
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthYear identifies one calendar month of one year.
type MonthYear struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Next returns the month immediately after my. December rolls the year.
func (my MonthYear) Next() MonthYear {
	if my.Month == time.December {
		return MonthYear{Month: time.January, Year: my.Year + 1}
	}
	return MonthYear{Month: my.Month + 1, Year: my.Year}
}

func (my MonthYear) String() string {
	return fmt.Sprintf("%04d-%02d", my.Year, int(my.Month))
}
