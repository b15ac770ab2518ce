package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true}, // zero is a valid amount
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{123, "1.23"},
		{80000, "800.00"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("String(%d) expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte(`"12.34"`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != 1234 {
		t.Fatalf("expected 1234 cents, got %d", m.Cents)
	}
	out, err := m.MarshalJSON()
	if err != nil || string(out) != `"12.34"` {
		t.Fatalf("marshal got %s (err=%v)", out, err)
	}
	if err := m.UnmarshalJSON([]byte(`"-5"`)); err == nil {
		t.Fatal("signed amount should be rejected")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 250}
	b := Money{Cents: 100}
	if got := a.Add(b).Cents; got != 350 {
		t.Fatalf("Add expected 350, got %d", got)
	}
	if got := b.Sub(a).Cents; got != -150 {
		t.Fatalf("Sub expected -150, got %d", got)
	}
	if got := a.Units(); got != 2.5 {
		t.Fatalf("Units expected 2.5, got %v", got)
	}
}
