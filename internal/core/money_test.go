package core

import (
	"errors"
	"testing"
)

func TestMoney_Add(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Money
		want      Money
		wantErr   bool
	}{
		{
			name: "same currency",
			a:    NewMoney(1000, EUR),
			b:    NewMoney(500, EUR),
			want: NewMoney(1500, EUR),
		},
		{
			name: "negative amounts",
			a:    NewMoney(1000, EUR),
			b:    NewMoney(-1500, EUR),
			want: NewMoney(-500, EUR),
		},
		{
			name:    "mismatched currency",
			a:       NewMoney(1000, EUR),
			b:       NewMoney(500, USD),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Add(tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrCurrencyMismatch) {
					t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoney_Sub(t *testing.T) {
	got, err := NewMoney(1000, EUR).Sub(NewMoney(1500, EUR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != NewMoney(-500, EUR) {
		t.Fatalf("got %v", got)
	}

	if _, err := NewMoney(1000, EUR).Sub(NewMoney(500, CHF)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		money Money
		want  string
	}{
		{NewMoney(1234, EUR), "12.34 EUR"},
		{NewMoney(-1500, USD), "-15.00 USD"},
		{NewMoney(5, EUR), "0.05 EUR"},
		{NewMoney(0, CHF), "0.00 CHF"},
	}
	for _, tt := range tests {
		if got := tt.money.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoney_IsNegative(t *testing.T) {
	if NewMoney(100, EUR).IsNegative() {
		t.Error("positive amount reported negative")
	}
	if NewMoney(0, EUR).IsNegative() {
		t.Error("zero amount reported negative")
	}
	if !NewMoney(-1, EUR).IsNegative() {
		t.Error("negative amount not reported negative")
	}
}
